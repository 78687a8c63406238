package transport

import (
	"time"

	natssrv "github.com/nats-io/nats-server/v2/server"
)

// StartEmbeddedNATS starts an in-process NATS server, used by tests and by
// the single-machine demo runner. Pass port -1 to bind a random free port.
func StartEmbeddedNATS(port int, readyTimeout time.Duration) (*natssrv.Server, error) {
	if readyTimeout <= 0 {
		readyTimeout = 5 * time.Second
	}

	opts := &natssrv.Options{
		Host: "127.0.0.1",
		Port: port,
	}
	s, err := natssrv.NewServer(opts)
	if err != nil {
		return nil, err
	}

	go s.Start()
	if !s.ReadyForConnections(readyTimeout) {
		s.Shutdown()
		return nil, &Error{Code: "NATS_NOT_READY", Message: "embedded nats server not ready"}
	}
	return s, nil
}
