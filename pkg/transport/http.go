package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
)

// submitPath is the fixed submission endpoint every agent exposes.
const submitPath = "/submit"

// Resolver maps an agent address to its HTTP submit endpoint.
type Resolver interface {
	Resolve(address string) (string, error)
}

// StaticResolver is a fixed address-to-endpoint table.
type StaticResolver map[string]string

func (r StaticResolver) Resolve(address string) (string, error) {
	endpoint, ok := r[address]
	if !ok {
		return "", ErrNoRoute
	}
	return endpoint, nil
}

// HTTPConfig configures the HTTP submit transport.
type HTTPConfig struct {
	// ListenAddr is the local bind address, e.g. ":8000". Use "127.0.0.1:0"
	// to pick a free port (tests).
	ListenAddr string

	// Resolver maps peer addresses to their submit endpoints.
	Resolver Resolver

	// Name is an optional server name.
	Name string

	// WriteTimeout bounds a single outbound POST. Default: 5s.
	WriteTimeout time.Duration
}

// HTTPTransport moves envelopes by POSTing them to each agent's /submit
// endpoint, mirroring the one-port-per-service topology. Inbound envelopes
// are acknowledged immediately and dispatched through a mailbox, so the
// sender never blocks on handler execution.
type HTTPTransport struct {
	cfg    HTTPConfig
	ln     net.Listener
	srv    *fasthttp.Server
	client *fasthttp.Client

	mu     sync.RWMutex
	subs   map[string]*httpSubscription
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHTTPTransport binds the listen address and starts serving /submit.
func NewHTTPTransport(cfg HTTPConfig) (*HTTPTransport, error) {
	if cfg.Resolver == nil {
		return nil, &Error{Code: "INVALID_CONFIG", Message: "resolver cannot be nil"}
	}
	if cfg.ListenAddr == "" {
		return nil, &Error{Code: "INVALID_CONFIG", Message: "listen address cannot be empty"}
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", cfg.ListenAddr, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &HTTPTransport{
		cfg:    cfg,
		ln:     ln,
		client: &fasthttp.Client{Name: cfg.Name},
		subs:   make(map[string]*httpSubscription),
		ctx:    ctx,
		cancel: cancel,
	}
	t.srv = &fasthttp.Server{
		Handler: t.handleSubmit,
		Name:    cfg.Name,
	}

	go func() {
		// Serve returns on Shutdown; nothing to do with the error here.
		_ = t.srv.Serve(ln)
	}()

	return t, nil
}

// Endpoint returns this transport's submit URL, useful when listening on a
// random port.
func (t *HTTPTransport) Endpoint() string {
	return "http://" + t.ln.Addr().String() + submitPath
}

func (t *HTTPTransport) handleSubmit(ctx *fasthttp.RequestCtx) {
	if string(ctx.Path()) != submitPath {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		return
	}
	if !ctx.IsPost() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		return
	}

	var env Envelope
	if err := JSONDecode(ctx.PostBody(), &env); err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		ctx.SetBodyString("malformed envelope")
		return
	}

	t.mu.RLock()
	sub := t.subs[env.Target]
	t.mu.RUnlock()
	if sub == nil {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetBodyString("unknown target address")
		return
	}

	select {
	case sub.mailbox <- env:
		ctx.SetStatusCode(fasthttp.StatusOK)
	case <-t.ctx.Done():
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
	}
}

func (t *HTTPTransport) Send(ctx context.Context, env Envelope) error {
	if err := ValidateEnvelope(env); err != nil {
		return err
	}

	t.mu.RLock()
	closed := t.closed
	t.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	endpoint, err := t.cfg.Resolver.Resolve(env.Target)
	if err != nil {
		return err
	}

	data, err := JSONEncode(env)
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if cid := env.Headers[HeaderCorrelationID]; cid != "" {
		req.Header.Set(HeaderCorrelationID, cid)
	}
	req.SetBody(data)

	if err := t.client.DoTimeout(req, resp, t.cfg.WriteTimeout); err != nil {
		return fmt.Errorf("post %s: %w", endpoint, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return &Error{
			Code:    "SUBMIT_FAILED",
			Message: fmt.Sprintf("submit to %s returned status %d", endpoint, resp.StatusCode()),
		}
	}
	return nil
}

func (t *HTTPTransport) Subscribe(address string, handler Handler) (Subscription, error) {
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
	if _, exists := t.subs[address]; exists {
		return nil, &Error{Code: "ADDRESS_BOUND", Message: "address already subscribed: " + address}
	}

	sub := &httpSubscription{
		address: address,
		mailbox: make(chan Envelope, 100),
		done:    make(chan struct{}),
		parent:  t,
	}
	t.subs[address] = sub

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for {
			select {
			case env := <-sub.mailbox:
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

func (t *HTTPTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	err := t.srv.Shutdown()
	t.cancel()
	t.wg.Wait()
	return err
}

type httpSubscription struct {
	address string
	mailbox chan Envelope
	done    chan struct{}
	parent  *HTTPTransport

	once sync.Once
}

func (s *httpSubscription) Address() string { return s.address }

func (s *httpSubscription) Unsubscribe() error {
	s.once.Do(func() {
		close(s.done)

		s.parent.mu.Lock()
		delete(s.parent.subs, s.address)
		s.parent.mu.Unlock()
	})
	return nil
}
