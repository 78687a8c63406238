package agent

import (
	"context"
	"testing"
	"time"

	"github.com/refundlabs/depositflow/pkg/contracts"
	"github.com/refundlabs/depositflow/pkg/transport"
)

func TestAgent_RequestReplyAcrossAgents(t *testing.T) {
	tr := transport.NewLocalTransport()
	t.Cleanup(func() { _ = tr.Close() })
	ctx := context.Background()

	responder := New("responder", "seed", tr)
	responder.OnMessage(contracts.SchemaDamageRequest, func(c *Context, m Message) error {
		var req contracts.DamageRequest
		if err := m.DecodeBody(&req); err != nil {
			return err
		}
		return c.Send(m.Sender, contracts.DamageResponse{
			Decision:       contracts.DecisionFullPayout,
			ApprovedAmount: req.ClaimAmount,
			PolicyID:       req.PolicyID,
		})
	})

	type result struct {
		resp        contracts.DamageResponse
		session     string
		correlation string
	}
	got := make(chan result, 1)

	caller := New("caller", "seed", tr)
	caller.OnMessage(contracts.SchemaDamageResponse, func(c *Context, m Message) error {
		var resp contracts.DamageResponse
		if err := m.DecodeBody(&resp); err != nil {
			return err
		}
		got <- result{resp: resp, session: c.Session(), correlation: c.Correlation()}
		return nil
	})

	if err := responder.Start(ctx); err != nil {
		t.Fatalf("start responder: %v", err)
	}
	t.Cleanup(func() { _ = responder.Stop() })
	if err := caller.Start(ctx); err != nil {
		t.Fatalf("start caller: %v", err)
	}
	t.Cleanup(func() { _ = caller.Stop() })

	payload, err := transport.JSONEncode(contracts.DamageRequest{
		BeforeImage: "a.jpg",
		AfterImage:  "a.jpg",
		ClaimAmount: 1000.0,
		PolicyID:    "POL-1",
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	env := transport.Envelope{
		Version: transport.EnvelopeVersion,
		Sender:  caller.Address(),
		Target:  responder.Address(),
		Session: "sess-1",
		Schema:  contracts.SchemaDamageRequest,
		Payload: payload,
		Headers: map[string]string{transport.HeaderCorrelationID: "corr-1"},
	}
	if err := tr.Send(ctx, env); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case r := <-got:
		if r.resp.Decision != contracts.DecisionFullPayout {
			t.Fatalf("decision = %s", r.resp.Decision)
		}
		if r.resp.ApprovedAmount != 1000.0 {
			t.Fatalf("approved = %f", r.resp.ApprovedAmount)
		}
		if r.resp.PolicyID != "POL-1" {
			t.Fatalf("policy = %s", r.resp.PolicyID)
		}
		// Session and correlation must survive the reply hop.
		if r.session != "sess-1" {
			t.Fatalf("session = %s, want sess-1", r.session)
		}
		if r.correlation != "corr-1" {
			t.Fatalf("correlation = %s, want corr-1", r.correlation)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reply")
	}
}

func TestAgent_IntervalFiresWithFreshSessions(t *testing.T) {
	tr := transport.NewLocalTransport()
	t.Cleanup(func() { _ = tr.Close() })

	sessions := make(chan string, 8)
	a := New("ticker", "seed", tr)
	a.OnInterval(10*time.Millisecond, func(c *Context) error {
		select {
		case sessions <- c.Session():
		default:
		}
		return nil
	})

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = a.Stop() })

	var first, second string
	select {
	case first = <-sessions:
	case <-time.After(3 * time.Second):
		t.Fatal("first tick never fired")
	}
	select {
	case second = <-sessions:
	case <-time.After(3 * time.Second):
		t.Fatal("second tick never fired")
	}
	if first == second {
		t.Fatal("each tick should run in a fresh session")
	}
}

func TestAgent_StartTwiceFails(t *testing.T) {
	tr := transport.NewLocalTransport()
	t.Cleanup(func() { _ = tr.Close() })

	a := New("dup", "seed", tr)
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = a.Stop() })

	if err := a.Start(context.Background()); err == nil {
		t.Fatal("second Start must fail")
	}
}
