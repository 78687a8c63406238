package transport

import (
	"context"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSConfig configures the NATS-backed Transport.
type NATSConfig struct {
	// URL is the NATS server URL, e.g. "nats://127.0.0.1:4222".
	URL string `yaml:"url"`

	// Prefix is prepended to all subjects. Default: "depositflow".
	Prefix string `yaml:"prefix"`

	// Name is an optional NATS connection name.
	Name string `yaml:"name"`
}

// NewNATSTransport creates a Transport backed by NATS.
//
// Subject mapping: <prefix>.send.<address>, queue-subscribed on the same
// subject so each envelope lands on exactly one subscriber.
func NewNATSTransport(ctx context.Context, cfg NATSConfig) (*NATSTransport, error) {
	if ctx == nil {
		return nil, &Error{Code: "INVALID_CONFIG", Message: "ctx cannot be nil"}
	}

	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "depositflow"
	}

	nc, err := nats.Connect(url, func(o *nats.Options) error {
		if cfg.Name != "" {
			o.Name = cfg.Name
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &NATSTransport{
		ctx:    ctx,
		nc:     nc,
		prefix: prefix,
	}, nil
}

// NATSTransport moves envelopes over a NATS server. Handlers run on the
// subscription's dispatcher goroutine, so a subscriber sees one envelope at
// a time.
type NATSTransport struct {
	ctx    context.Context
	nc     *nats.Conn
	prefix string

	mu     sync.Mutex
	closed bool
}

func (t *NATSTransport) subject(address string) string {
	return t.prefix + ".send." + address
}

func (t *NATSTransport) Send(_ context.Context, env Envelope) error {
	if err := ValidateEnvelope(env); err != nil {
		return err
	}

	data, err := JSONEncode(env)
	if err != nil {
		return err
	}

	msg := &nats.Msg{
		Subject: t.subject(env.Target),
		Data:    data,
		Header:  nats.Header{},
	}
	if cid := env.Headers[HeaderCorrelationID]; cid != "" {
		msg.Header.Set(HeaderCorrelationID, cid)
	}

	return t.nc.PublishMsg(msg)
}

func (t *NATSTransport) Subscribe(address string, handler Handler) (Subscription, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, &Error{Code: "INVALID_HANDLER", Message: "handler cannot be nil"}
	}

	subject := t.subject(address)
	sub, err := t.nc.QueueSubscribe(subject, subject, func(nm *nats.Msg) {
		var env Envelope
		if err := JSONDecode(nm.Data, &env); err != nil {
			// Malformed frame; nothing useful to do without a reply path.
			return
		}
		_ = handler(t.ctx, env)
	})
	if err != nil {
		return nil, err
	}

	return &natsSubscription{address: address, sub: sub}, nil
}

func (t *NATSTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true

	_ = t.nc.Drain()

	// Drain is asynchronous; give in-flight handlers a moment before the
	// hard close.
	deadline := time.Now().Add(2 * time.Second)
	for t.nc.IsDraining() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	t.nc.Close()
	return nil
}

type natsSubscription struct {
	address string
	sub     *nats.Subscription
}

func (s *natsSubscription) Address() string { return s.address }

func (s *natsSubscription) Unsubscribe() error {
	return s.sub.Unsubscribe()
}
