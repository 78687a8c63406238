package agent

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/refundlabs/depositflow/pkg/observability"
	"github.com/refundlabs/depositflow/pkg/transport"
)

// Message is one inbound envelope as presented to a handler.
type Message struct {
	Sender  string
	Schema  string
	Session string

	payload json.RawMessage
	headers map[string]string
}

// DecodeBody decodes the message payload into v.
func (m Message) DecodeBody(v interface{}) error {
	return transport.JSONDecode(m.payload, v)
}

// Header returns a header value, or "" when absent.
func (m Message) Header(key string) string {
	return m.headers[key]
}

// HandlerFunc processes one inbound message. Handlers on the same agent run
// one at a time; no internal synchronization is needed for agent-local state.
type HandlerFunc func(ctx *Context, msg Message) error

// IntervalFunc runs on a recurring timer, serialized with message handlers.
type IntervalFunc func(ctx *Context) error

// Option configures an Agent.
type Option func(*Agent)

// WithLogger replaces the default logger.
func WithLogger(l Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// WithMetrics attaches Prometheus metrics to the agent.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Agent) { a.metrics = m }
}

// WithTracerProvider enables tracing of handler dispatch.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(a *Agent) { a.tracer = tp.Tracer("depositflow/agent") }
}

// Agent is a single-threaded message endpoint: a seed-derived identity, a
// set of schema handlers, and optional interval tasks, all executing on one
// run loop over a Transport subscription.
type Agent struct {
	identity  Identity
	tr        transport.Transport
	logger    Logger
	metrics   *observability.Metrics
	tracer    trace.Tracer
	handlers  map[string]HandlerFunc
	intervals []intervalTask

	mu      sync.Mutex
	started bool
	sub     transport.Subscription
	queue   chan func(ctx context.Context)
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type intervalTask struct {
	period time.Duration
	fn     IntervalFunc
}

// New creates an agent with the given name and secret seed on a transport.
func New(name, seed string, tr transport.Transport, opts ...Option) *Agent {
	a := &Agent{
		identity: NewIdentity(name, seed),
		tr:       tr,
		logger:   NewDefaultLogger(name),
		handlers: make(map[string]HandlerFunc),
		queue:    make(chan func(ctx context.Context), 128),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the agent name.
func (a *Agent) Name() string { return a.identity.Name }

// Address returns the seed-derived messaging address.
func (a *Agent) Address() string { return a.identity.Address }

// Logger returns the agent's logger.
func (a *Agent) Logger() Logger { return a.logger }

// OnMessage registers the handler for a message schema. Registration must
// happen before Start.
func (a *Agent) OnMessage(schema string, h HandlerFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handlers[schema] = h
}

// OnInterval registers a recurring task. Registration must happen before
// Start.
func (a *Agent) OnInterval(period time.Duration, fn IntervalFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.intervals = append(a.intervals, intervalTask{period: period, fn: fn})
}

// Start subscribes the agent on its address and begins the run loop and
// interval tickers. It returns once the agent is live.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return &transport.Error{Code: "ALREADY_STARTED", Message: "agent already started: " + a.identity.Name}
	}

	runCtx, cancel := context.WithCancel(ctx)

	sub, err := a.tr.Subscribe(a.identity.Address, a.enqueueEnvelope)
	if err != nil {
		cancel()
		return err
	}
	a.sub = sub
	a.cancel = cancel
	a.started = true

	// Run loop: one queued item at a time.
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case task := <-a.queue:
				task(runCtx)
			case <-runCtx.Done():
				return
			}
		}
	}()

	for _, iv := range a.intervals {
		iv := iv
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			ticker := time.NewTicker(iv.period)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					select {
					case a.queue <- a.intervalDispatch(iv.fn):
					case <-runCtx.Done():
						return
					}
				case <-runCtx.Done():
					return
				}
			}
		}()
	}

	a.logger.Infof("agent %s listening at %s", a.identity.Name, a.identity.Address)
	return nil
}

// Stop unsubscribes and waits for the run loop to drain.
func (a *Agent) Stop() error {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return nil
	}
	a.started = false
	sub := a.sub
	cancel := a.cancel
	a.mu.Unlock()

	if sub != nil {
		_ = sub.Unsubscribe()
	}
	cancel()
	a.wg.Wait()
	return nil
}

// enqueueEnvelope is the transport callback; it hands the envelope to the
// run loop so handlers never run concurrently.
func (a *Agent) enqueueEnvelope(ctx context.Context, env transport.Envelope) error {
	select {
	case a.queue <- func(runCtx context.Context) { a.dispatch(runCtx, env) }:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Agent) dispatch(ctx context.Context, env transport.Envelope) {
	a.mu.Lock()
	h := a.handlers[env.Schema]
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.MessagesTotal.WithLabelValues(a.identity.Name, env.Schema, "inbound").Inc()
	}
	if h == nil {
		a.logger.Warnf("no handler registered for schema %s", env.Schema)
		return
	}

	hctx := ctx
	var span trace.Span
	if a.tracer != nil {
		hctx, span = a.tracer.Start(ctx, "agent.handle",
			trace.WithAttributes(
				attribute.String("agent", a.identity.Name),
				attribute.String("schema", env.Schema),
			))
	}

	c := &Context{
		ctx:         hctx,
		agent:       a,
		session:     env.Session,
		correlation: env.Headers[transport.HeaderCorrelationID],
	}
	msg := Message{
		Sender:  env.Sender,
		Schema:  env.Schema,
		Session: env.Session,
		payload: env.Payload,
		headers: env.Headers,
	}

	start := time.Now()
	err := h(c, msg)
	if span != nil {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}
	if a.metrics != nil {
		a.metrics.ObserveHandler(a.identity.Name, env.Schema, start, err)
	}
	if err != nil {
		a.logger.Errorf("handler for %s failed: %v", env.Schema, err)
	}
}

func (a *Agent) intervalDispatch(fn IntervalFunc) func(ctx context.Context) {
	return func(ctx context.Context) {
		c := &Context{
			ctx:     ctx,
			agent:   a,
			session: uuid.NewString(),
		}
		if err := fn(c); err != nil {
			a.logger.Errorf("interval task failed: %v", err)
		}
	}
}
