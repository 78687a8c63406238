package payments

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refundlabs/depositflow/pkg/contracts"
)

func TestProcess_Dispatch(t *testing.T) {
	cases := []struct {
		name       string
		decision   contracts.Decision
		approved   float64
		wantPaid   float64
		wantStatus contracts.Status
	}{
		{"full payout completes", contracts.DecisionFullPayout, 1000.0, 1000.0, contracts.StatusCompleted},
		{"deduct payout completes", contracts.DecisionDeductPayout, 800.0, 800.0, contracts.StatusCompleted},
		{"error fails with nothing paid", contracts.DecisionError, 500.0, 0, contracts.StatusFailed},
		{"unknown decision is rejected", contracts.Decision("made_up_value"), 500.0, 0, contracts.StatusRejected},
		{"empty decision is rejected", contracts.Decision(""), 500.0, 0, contracts.StatusRejected},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := Process(contracts.PaymentRequest{
				Decision:       tc.decision,
				ApprovedAmount: tc.approved,
				PolicyID:       "POL-12345",
			})

			assert.Equal(t, tc.wantStatus, resp.Status)
			assert.Equal(t, tc.wantPaid, resp.PaidAmount)
			assert.Equal(t, "POL-12345", resp.PolicyID)
			// Decision is forwarded unchanged, even when unrecognized.
			assert.Equal(t, tc.decision, resp.Decision)
		})
	}
}

var txnPattern = regexp.MustCompile(`^TXN_\d{6}$`)

func TestNewTransactionID_Format(t *testing.T) {
	for i := 0; i < 1000; i++ {
		id := NewTransactionID()
		require.Regexp(t, txnPattern, id)

		n, err := strconv.Atoi(strings.TrimPrefix(id, TransactionPrefix))
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 100000)
		require.LessOrEqual(t, n, 999999)
	}
}
