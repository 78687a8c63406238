package assessor

import (
	"github.com/refundlabs/depositflow/pkg/agent"
	"github.com/refundlabs/depositflow/pkg/contracts"
)

// DeductionRate is the fraction of the claim withheld when the before and
// after images differ.
const DeductionRate = 0.2

// Assess applies the damage rule to a claim. Identical before/after images
// mean no damage: full payout. Anything else deducts a fifth of the claim.
// Inputs are not validated; a negative claim flows through the arithmetic
// untouched.
func Assess(req contracts.DamageRequest) contracts.DamageResponse {
	if req.BeforeImage == req.AfterImage {
		return contracts.DamageResponse{
			Decision:       contracts.DecisionFullPayout,
			ApprovedAmount: req.ClaimAmount,
			Deduction:      0,
			PolicyID:       req.PolicyID,
		}
	}

	deduction := req.ClaimAmount * DeductionRate
	return contracts.DamageResponse{
		Decision:       contracts.DecisionDeductPayout,
		ApprovedAmount: req.ClaimAmount - deduction,
		Deduction:      deduction,
		PolicyID:       req.PolicyID,
	}
}

// Service wires the damage assessment rule onto an agent.
type Service struct{}

// NewService creates the damage assessor service.
func NewService() *Service { return &Service{} }

// Register installs the service's handlers on the agent.
func (s *Service) Register(a *agent.Agent) {
	a.OnMessage(contracts.SchemaDamageRequest, s.handleDamageRequest)
}

func (s *Service) handleDamageRequest(ctx *agent.Context, msg agent.Message) error {
	var req contracts.DamageRequest
	if err := msg.DecodeBody(&req); err != nil {
		return err
	}

	log := ctx.Logger()
	log.Infof("verifying damage for policy %s", req.PolicyID)
	log.Infof("before image: %s", req.BeforeImage)
	log.Infof("after image: %s", req.AfterImage)

	resp := Assess(req)

	log.Infof("damage assessment complete: %s", resp.Decision)
	log.Infof("approved amount: $%.2f", resp.ApprovedAmount)

	return ctx.Send(msg.Sender, resp)
}
