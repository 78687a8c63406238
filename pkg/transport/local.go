package transport

import (
	"context"
	"sync"
)

// LocalTransport is an in-process Transport. Each subscription owns a
// mailbox goroutine, so a subscriber sees one envelope at a time. Sends to
// the same address are spread round-robin when several subscriptions exist,
// keeping point-to-point semantics.
type LocalTransport struct {
	mu     sync.RWMutex
	subs   map[string][]*localSubscription
	rr     map[string]uint64
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// NewLocalTransport creates an in-process transport.
func NewLocalTransport() *LocalTransport {
	ctx, cancel := context.WithCancel(context.Background())
	return &LocalTransport{
		subs:   make(map[string][]*localSubscription),
		rr:     make(map[string]uint64),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (t *LocalTransport) Send(ctx context.Context, env Envelope) error {
	if err := ValidateEnvelope(env); err != nil {
		return err
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	subs := t.subs[env.Target]
	if len(subs) == 0 {
		t.mu.Unlock()
		return ErrNoRoute
	}
	n := t.rr[env.Target]
	t.rr[env.Target] = n + 1
	sub := subs[n%uint64(len(subs))]
	t.mu.Unlock()

	select {
	case sub.mailbox <- env:
		return nil
	case <-sub.done:
		return ErrClosed
	case <-t.ctx.Done():
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *LocalTransport) Subscribe(address string, handler Handler) (Subscription, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, &Error{Code: "INVALID_HANDLER", Message: "handler cannot be nil"}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrClosed
	}

	sub := &localSubscription{
		address: address,
		mailbox: make(chan Envelope, 100),
		done:    make(chan struct{}),
		parent:  t,
	}
	t.subs[address] = append(t.subs[address], sub)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for {
			select {
			case env := <-sub.mailbox:
				// Handler errors are the subscriber's concern; the
				// transport only moves envelopes.
				_ = handler(t.ctx, env)
			case <-sub.done:
				return
			case <-t.ctx.Done():
				return
			}
		}
	}()

	return sub, nil
}

func (t *LocalTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	t.cancel()
	t.wg.Wait()
	return nil
}

type localSubscription struct {
	address string
	mailbox chan Envelope
	done    chan struct{}
	parent  *LocalTransport

	once sync.Once
}

func (s *localSubscription) Address() string { return s.address }

func (s *localSubscription) Unsubscribe() error {
	s.once.Do(func() {
		close(s.done)

		s.parent.mu.Lock()
		subs := s.parent.subs[s.address]
		for i, cur := range subs {
			if cur == s {
				s.parent.subs[s.address] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		s.parent.mu.Unlock()
	})
	return nil
}
