package agent

import (
	"context"

	"github.com/refundlabs/depositflow/pkg/transport"
)

// Context is handed to every handler and interval task. It carries the
// agent, the session of the current workflow hop, and an optional
// correlation token propagated across hops.
type Context struct {
	ctx         context.Context
	agent       *Agent
	session     string
	correlation string
}

// Context returns the underlying context for the current dispatch.
func (c *Context) Context() context.Context { return c.ctx }

// Logger returns the agent's logger.
func (c *Context) Logger() Logger { return c.agent.logger }

// Address returns the agent's own address.
func (c *Context) Address() string { return c.agent.Address() }

// Session returns the session id of the current hop.
func (c *Context) Session() string { return c.session }

// Correlation returns the correlation token, or "" when unset.
func (c *Context) Correlation() string { return c.correlation }

// SetCorrelation attaches a correlation token to subsequent sends from this
// context. The orchestrator sets one when it opens a workflow.
func (c *Context) SetCorrelation(id string) { c.correlation = id }

// Send delivers a message to the target address. The schema name is derived
// from the message's struct type; session and correlation carry over from
// the current hop.
func (c *Context) Send(target string, body interface{}) error {
	payload, err := transport.JSONEncode(body)
	if err != nil {
		return err
	}

	schema := SchemaOf(body)
	var headers map[string]string
	if c.correlation != "" {
		headers = map[string]string{transport.HeaderCorrelationID: c.correlation}
	}

	env := transport.Envelope{
		Version: transport.EnvelopeVersion,
		Sender:  c.agent.Address(),
		Target:  target,
		Session: c.session,
		Schema:  schema,
		Payload: payload,
		Headers: headers,
	}

	if c.agent.metrics != nil {
		c.agent.metrics.MessagesTotal.WithLabelValues(c.agent.Name(), schema, "outbound").Inc()
	}
	return c.agent.tr.Send(c.ctx, env)
}
