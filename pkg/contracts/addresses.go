package contracts

import "fmt"

// Roles identify the three services. Each agent's messaging address is
// derived from its role plus the shared AGENT_SEED secret, so every process
// can compute its peers' addresses without a discovery step.
const (
	RoleAssessor = "damage-assessor"
	RolePayments = "payment-processor"
	RoleClient   = "refund-client"
)

// Default local ports for the HTTP submit transport, one per service.
const (
	DefaultAssessorPort = 8000
	DefaultPaymentsPort = 8001
	DefaultClientPort   = 8003
)

// SubmitPath is the fixed submission endpoint every agent exposes on the
// HTTP transport.
const SubmitPath = "/submit"

// SubmitEndpoint returns the local submit URL for a service port.
func SubmitEndpoint(port int) string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", port, SubmitPath)
}

// Demo claim defaults, used by the client when no claim is configured.
const (
	DemoBeforeImage = "https://example.com/before.jpg"
	DemoAfterImage  = "https://example.com/after.jpg"
	DemoClaimAmount = 1000.0
	DemoPolicyID    = "POL-12345"
)
