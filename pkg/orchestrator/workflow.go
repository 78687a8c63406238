package orchestrator

import (
	"time"

	"github.com/refundlabs/depositflow/pkg/contracts"
	"github.com/refundlabs/depositflow/pkg/fsm"
)

// Workflow states. One machine exists per policy id, so concurrent refunds
// for different policies never share state.
const (
	StateIdle            fsm.State = "Idle"
	StateAwaitingDamage  fsm.State = "AwaitingDamage"
	StateAwaitingPayment fsm.State = "AwaitingPayment"
	StateDone            fsm.State = "Done"
)

// Workflow events.
const (
	EventClaimFiled     fsm.Event = "ClaimFiled"
	EventDamageAssessed fsm.Event = "DamageAssessed"
	EventPaymentSettled fsm.Event = "PaymentSettled"
)

// workflow tracks one refund in flight: its state machine, the correlation
// token stamped on every hop, and the responses collected so far.
type workflow struct {
	machine     *fsm.StateMachine
	correlation string
	claim       contracts.DamageRequest
	startedAt   time.Time

	assessment *contracts.DamageResponse
	payment    *contracts.PaymentResponse
}

func newWorkflow(claim contracts.DamageRequest, correlation string) *workflow {
	m := fsm.New("refund/"+claim.PolicyID, StateIdle)
	m.Configure(StateIdle).Permit(EventClaimFiled, StateAwaitingDamage)
	m.Configure(StateAwaitingDamage).Permit(EventDamageAssessed, StateAwaitingPayment)
	m.Configure(StateAwaitingPayment).Permit(EventPaymentSettled, StateDone)

	return &workflow{
		machine:     m,
		correlation: correlation,
		claim:       claim,
		startedAt:   time.Now(),
	}
}
