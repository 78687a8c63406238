package payments

import (
	"fmt"
	"math/rand/v2"

	"github.com/refundlabs/depositflow/pkg/agent"
	"github.com/refundlabs/depositflow/pkg/contracts"
)

// TransactionPrefix starts every generated transaction id.
const TransactionPrefix = "TXN_"

// Transaction id numeral bounds, inclusive.
const (
	txnMin = 100000
	txnMax = 999999
)

// NewTransactionID returns TXN_ plus a uniformly random 6-digit numeral.
// There is no uniqueness guarantee across calls; fine for a demo, not for
// production.
func NewTransactionID() string {
	return fmt.Sprintf("%s%d", TransactionPrefix, rand.IntN(txnMax-txnMin+1)+txnMin)
}

// Process settles a payment request. Dispatch on the forwarded decision is
// exhaustive: the two payout decisions complete at the approved amount,
// "error" fails with nothing paid, and anything else is rejected with
// nothing paid.
func Process(req contracts.PaymentRequest) contracts.PaymentResponse {
	resp := contracts.PaymentResponse{
		PolicyID:      req.PolicyID,
		Decision:      req.Decision,
		TransactionID: NewTransactionID(),
	}

	switch req.Decision {
	case contracts.DecisionFullPayout, contracts.DecisionDeductPayout:
		resp.PaidAmount = req.ApprovedAmount
		resp.Status = contracts.StatusCompleted
	case contracts.DecisionError:
		resp.PaidAmount = 0
		resp.Status = contracts.StatusFailed
	default:
		resp.PaidAmount = 0
		resp.Status = contracts.StatusRejected
	}
	return resp
}

// Service wires payment processing onto an agent.
type Service struct{}

// NewService creates the payment processor service.
func NewService() *Service { return &Service{} }

// Register installs the service's handlers on the agent.
func (s *Service) Register(a *agent.Agent) {
	a.OnMessage(contracts.SchemaPaymentRequest, s.handlePaymentRequest)
}

func (s *Service) handlePaymentRequest(ctx *agent.Context, msg agent.Message) error {
	var req contracts.PaymentRequest
	if err := msg.DecodeBody(&req); err != nil {
		return err
	}

	log := ctx.Logger()
	log.Infof("processing payment for policy %s", req.PolicyID)
	log.Infof("decision: %s", req.Decision)
	log.Infof("approved amount: $%.2f", req.ApprovedAmount)

	resp := Process(req)

	log.Infof("payment processed: %s", resp.Status)
	log.Infof("paid amount: $%.2f", resp.PaidAmount)
	log.Infof("transaction id: %s", resp.TransactionID)

	return ctx.Send(msg.Sender, resp)
}
