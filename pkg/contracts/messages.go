package contracts

// Contracts are the shared message types exchanged between the deposit-refund
// agents. Field names and types are the wire contract; keep them stable so a
// service can be swapped out without touching its peers.

// Decision classifies the outcome of a damage assessment. The payment
// processor dispatches on it and passes it through unchanged, so unknown
// values survive the round trip (they land in the rejected branch).
type Decision string

const (
	DecisionFullPayout   Decision = "full_payout"
	DecisionDeductPayout Decision = "deduct_payout"
	DecisionError        Decision = "error"
)

// Status is the terminal state of a payment.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRejected  Status = "rejected"
)

// Schema names carried in the message envelope. They match the struct names
// so a handler can be registered against agent.SchemaOf(msg).
const (
	SchemaDamageRequest   = "DamageRequest"
	SchemaDamageResponse  = "DamageResponse"
	SchemaPaymentRequest  = "PaymentRequest"
	SchemaPaymentResponse = "PaymentResponse"
)

// DamageRequest asks the damage assessor to compare two property images and
// decide how much of the claimed deposit to refund.
type DamageRequest struct {
	BeforeImage string  `json:"before_image"`
	AfterImage  string  `json:"after_image"`
	ClaimAmount float64 `json:"claim_amount"`
	PolicyID    string  `json:"policy_id"`
}

// DamageResponse carries the assessment decision back to the requester.
// Invariant: ApprovedAmount + Deduction == the request's ClaimAmount.
type DamageResponse struct {
	Decision       Decision `json:"decision"`
	ApprovedAmount float64  `json:"approved_amount"`
	Deduction      float64  `json:"deduction"`
	PolicyID       string   `json:"policy_id"`
}

// PaymentRequest forwards an assessment decision to the payment processor.
type PaymentRequest struct {
	Decision       Decision `json:"decision"`
	ApprovedAmount float64  `json:"approved_amount"`
	PolicyID       string   `json:"policy_id"`
}

// PaymentResponse reports the settled payment. TransactionID is a demo
// identifier with no uniqueness guarantee across calls.
type PaymentResponse struct {
	PolicyID      string   `json:"policy_id"`
	Decision      Decision `json:"decision"`
	PaidAmount    float64  `json:"paid_amount"`
	TransactionID string   `json:"transaction_id"`
	Status        Status   `json:"status"`
}
