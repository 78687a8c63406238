package transport

import (
	"context"
	"testing"
	"time"

	natssrv "github.com/nats-io/nats-server/v2/server"
)

func runTestNATSServer(t *testing.T) *natssrv.Server {
	t.Helper()

	s, err := StartEmbeddedNATS(-1, 5*time.Second)
	if err != nil {
		t.Fatalf("StartEmbeddedNATS: %v", err)
	}
	t.Cleanup(func() {
		s.Shutdown()
	})
	return s
}

func TestNATSTransport_SendAndReceive(t *testing.T) {
	s := runTestNATSServer(t)

	ctx := context.Background()
	receiver, err := NewNATSTransport(ctx, NATSConfig{URL: s.ClientURL(), Prefix: "depositflow.test"})
	if err != nil {
		t.Fatalf("receiver: %v", err)
	}
	t.Cleanup(func() { _ = receiver.Close() })

	sender, err := NewNATSTransport(ctx, NATSConfig{URL: s.ClientURL(), Prefix: "depositflow.test"})
	if err != nil {
		t.Fatalf("sender: %v", err)
	}
	t.Cleanup(func() { _ = sender.Close() })

	got := make(chan Envelope, 1)
	if _, err := receiver.Subscribe("agent1target", func(_ context.Context, env Envelope) error {
		got <- env
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	env := testEnvelope("agent1target")
	env.Headers = map[string]string{HeaderCorrelationID: "corr-7"}
	if err := sender.Send(ctx, env); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case received := <-got:
		if received.Session != "sess" {
			t.Fatalf("session = %s", received.Session)
		}
		if received.Headers[HeaderCorrelationID] != "corr-7" {
			t.Fatalf("correlation header lost: %v", received.Headers)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("envelope never delivered over NATS")
	}
}

func TestNATSTransport_QueueGroupPointToPoint(t *testing.T) {
	s := runTestNATSServer(t)
	ctx := context.Background()

	tr, err := NewNATSTransport(ctx, NATSConfig{URL: s.ClientURL(), Prefix: "depositflow.test"})
	if err != nil {
		t.Fatalf("transport: %v", err)
	}
	t.Cleanup(func() { _ = tr.Close() })

	// Two queue subscribers on one address: each envelope lands on exactly
	// one of them.
	got := make(chan struct{}, 16)
	for i := 0; i < 2; i++ {
		if _, err := tr.Subscribe("agent1shared", func(context.Context, Envelope) error {
			got <- struct{}{}
			return nil
		}); err != nil {
			t.Fatalf("subscribe %d: %v", i, err)
		}
	}

	const sends = 5
	for i := 0; i < sends; i++ {
		if err := tr.Send(ctx, testEnvelope("agent1shared")); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}

	received := 0
	deadline := time.After(3 * time.Second)
	for received < sends {
		select {
		case <-got:
			received++
		case <-deadline:
			t.Fatalf("received %d envelopes, want %d", received, sends)
		}
	}

	// No duplicates should trail in.
	select {
	case <-got:
		t.Fatal("envelope delivered more than once")
	case <-time.After(200 * time.Millisecond):
	}
}
