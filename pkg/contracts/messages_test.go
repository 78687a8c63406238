package contracts

import (
	"encoding/json"
	"testing"
)

// The JSON field names are the wire contract shared with the original
// system; renaming any of them is a breaking change.
func TestWireFieldNames(t *testing.T) {
	keysOf := func(v interface{}) map[string]struct{} {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var m map[string]json.RawMessage
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		keys := make(map[string]struct{}, len(m))
		for k := range m {
			keys[k] = struct{}{}
		}
		return keys
	}

	cases := []struct {
		name string
		v    interface{}
		want []string
	}{
		{"DamageRequest", DamageRequest{}, []string{"before_image", "after_image", "claim_amount", "policy_id"}},
		{"DamageResponse", DamageResponse{}, []string{"decision", "approved_amount", "deduction", "policy_id"}},
		{"PaymentRequest", PaymentRequest{}, []string{"decision", "approved_amount", "policy_id"}},
		{"PaymentResponse", PaymentResponse{}, []string{"policy_id", "decision", "paid_amount", "transaction_id", "status"}},
	}

	for _, tc := range cases {
		got := keysOf(tc.v)
		if len(got) != len(tc.want) {
			t.Fatalf("%s: got %d fields, want %d", tc.name, len(got), len(tc.want))
		}
		for _, k := range tc.want {
			if _, ok := got[k]; !ok {
				t.Fatalf("%s: missing wire field %q", tc.name, k)
			}
		}
	}
}
