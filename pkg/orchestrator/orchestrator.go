package orchestrator

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/refundlabs/depositflow/pkg/agent"
	"github.com/refundlabs/depositflow/pkg/contracts"
	"github.com/refundlabs/depositflow/pkg/fsm"
	"github.com/refundlabs/depositflow/pkg/observability"
)

// Service drives the refund workflow: it files a claim on a timer, chains
// the damage assessment into a payment request, and reports the settled
// outcome. Workflow state is kept per policy id, so a second trigger can
// never clobber a refund that is still in flight.
//
// There is deliberately no timeout or retry on awaited responses: a peer
// that never answers leaves that policy's workflow parked in its current
// state, with nothing but the absent summary to show for it.
type Service struct {
	assessorAddr string
	paymentsAddr string
	claim        contracts.DamageRequest
	summary      io.Writer
	metrics      *observability.Metrics

	mu    sync.Mutex
	flows map[string]*workflow
}

// Option configures the orchestrator service.
type Option func(*Service)

// WithClaim replaces the demo claim filed on each trigger.
func WithClaim(claim contracts.DamageRequest) Option {
	return func(s *Service) { s.claim = claim }
}

// WithSummaryWriter redirects the final human-readable summary.
func WithSummaryWriter(w io.Writer) Option {
	return func(s *Service) { s.summary = w }
}

// WithMetrics attaches workflow metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates the orchestrator targeting the two backend agents.
func NewService(assessorAddr, paymentsAddr string, opts ...Option) *Service {
	s := &Service{
		assessorAddr: assessorAddr,
		paymentsAddr: paymentsAddr,
		claim: contracts.DamageRequest{
			BeforeImage: contracts.DemoBeforeImage,
			AfterImage:  contracts.DemoAfterImage,
			ClaimAmount: contracts.DemoClaimAmount,
			PolicyID:    contracts.DemoPolicyID,
		},
		summary: os.Stdout,
		flows:   make(map[string]*workflow),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register installs the workflow trigger and response handlers on the agent.
func (s *Service) Register(a *agent.Agent, interval time.Duration) {
	a.OnInterval(interval, s.initiateRefund)
	a.OnMessage(contracts.SchemaDamageResponse, s.handleDamageResponse)
	a.OnMessage(contracts.SchemaPaymentResponse, s.handlePaymentResponse)
}

// State returns the workflow state for a policy, StateIdle when none exists.
func (s *Service) State(policyID string) fsm.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	flow, ok := s.flows[policyID]
	if !ok {
		return StateIdle
	}
	return flow.machine.CurrentState()
}

// Result returns the settled payment for a policy once its workflow is Done.
func (s *Service) Result(policyID string) (contracts.PaymentResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flow, ok := s.flows[policyID]
	if !ok || flow.payment == nil {
		return contracts.PaymentResponse{}, false
	}
	return *flow.payment, true
}

// initiateRefund fires on the recurring trigger. A policy with a workflow
// already past Idle is skipped rather than restarted.
func (s *Service) initiateRefund(ctx *agent.Context) error {
	return s.StartWorkflow(ctx, s.claim)
}

// StartWorkflow files a claim unless one is already tracked for the policy.
func (s *Service) StartWorkflow(ctx *agent.Context, claim contracts.DamageRequest) error {
	log := ctx.Logger()

	s.mu.Lock()
	if existing, ok := s.flows[claim.PolicyID]; ok {
		state := existing.machine.CurrentState()
		s.mu.Unlock()
		if state == StateDone {
			log.Debugf("refund for policy %s already completed; skipping trigger", claim.PolicyID)
		} else {
			log.Warnf("refund for policy %s still in flight (%s); skipping trigger", claim.PolicyID, state)
		}
		return nil
	}
	flow := newWorkflow(claim, uuid.NewString())
	s.flows[claim.PolicyID] = flow
	s.mu.Unlock()

	ctx.SetCorrelation(flow.correlation)

	log.Info("starting security deposit refund process")
	if _, err := flow.machine.Fire(ctx.Context(), EventClaimFiled, nil); err != nil {
		return err
	}

	log.Infof("sending damage verification request to %s", s.assessorAddr)
	return ctx.Send(s.assessorAddr, flow.claim)
}

func (s *Service) handleDamageResponse(ctx *agent.Context, msg agent.Message) error {
	var resp contracts.DamageResponse
	if err := msg.DecodeBody(&resp); err != nil {
		return err
	}

	log := ctx.Logger()

	flow := s.flowFor(resp.PolicyID)
	if flow == nil || flow.machine.CurrentState() != StateAwaitingDamage {
		log.Warnf("unexpected damage response for policy %s; ignoring", resp.PolicyID)
		return nil
	}
	if cid := ctx.Correlation(); cid != "" && cid != flow.correlation {
		log.Warnf("damage response for policy %s carries foreign correlation %s; ignoring", resp.PolicyID, cid)
		return nil
	}

	log.Info("damage assessment received:")
	log.Infof("  decision: %s", resp.Decision)
	log.Infof("  approved amount: $%.2f", resp.ApprovedAmount)
	log.Infof("  deduction: $%.2f", resp.Deduction)

	if _, err := flow.machine.Fire(ctx.Context(), EventDamageAssessed, resp); err != nil {
		return err
	}

	s.mu.Lock()
	flow.assessment = &resp
	s.mu.Unlock()

	payment := contracts.PaymentRequest{
		Decision:       resp.Decision,
		ApprovedAmount: resp.ApprovedAmount,
		PolicyID:       resp.PolicyID,
	}
	log.Infof("sending payment request to %s", s.paymentsAddr)
	return ctx.Send(s.paymentsAddr, payment)
}

func (s *Service) handlePaymentResponse(ctx *agent.Context, msg agent.Message) error {
	var resp contracts.PaymentResponse
	if err := msg.DecodeBody(&resp); err != nil {
		return err
	}

	log := ctx.Logger()

	flow := s.flowFor(resp.PolicyID)
	if flow == nil || flow.machine.CurrentState() != StateAwaitingPayment {
		log.Warnf("unexpected payment response for policy %s; ignoring", resp.PolicyID)
		return nil
	}
	if cid := ctx.Correlation(); cid != "" && cid != flow.correlation {
		log.Warnf("payment response for policy %s carries foreign correlation %s; ignoring", resp.PolicyID, cid)
		return nil
	}

	log.Info("payment processing completed:")
	log.Infof("  status: %s", resp.Status)
	log.Infof("  paid amount: $%.2f", resp.PaidAmount)
	log.Infof("  transaction id: %s", resp.TransactionID)

	if _, err := flow.machine.Fire(ctx.Context(), EventPaymentSettled, resp); err != nil {
		return err
	}

	s.mu.Lock()
	flow.payment = &resp
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.WorkflowsCompleted.Inc()
	}

	s.printSummary(resp)
	return nil
}

func (s *Service) flowFor(policyID string) *workflow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flows[policyID]
}

func (s *Service) printSummary(resp contracts.PaymentResponse) {
	fmt.Fprintf(s.summary, "\nSecurity Deposit Refund Process Complete!\n")
	fmt.Fprintln(s.summary, strings.Repeat("=", 50))
	fmt.Fprintf(s.summary, "Policy ID: %s\n", resp.PolicyID)
	fmt.Fprintf(s.summary, "Final Status: %s\n", resp.Status)
	fmt.Fprintf(s.summary, "Amount Refunded: $%.2f\n", resp.PaidAmount)
	fmt.Fprintf(s.summary, "Transaction ID: %s\n", resp.TransactionID)
}
