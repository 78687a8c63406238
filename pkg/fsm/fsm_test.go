package fsm

import (
	"context"
	"errors"
	"testing"
)

func newRefundMachine() *StateMachine {
	m := New("test", "Idle")
	m.Configure("Idle").Permit("File", "Waiting")
	m.Configure("Waiting").Permit("Settle", "Done")
	return m
}

func TestFire_Transitions(t *testing.T) {
	m := newRefundMachine()
	ctx := context.Background()

	if got := m.CurrentState(); got != "Idle" {
		t.Fatalf("initial state = %s, want Idle", got)
	}

	state, err := m.Fire(ctx, "File", nil)
	if err != nil {
		t.Fatalf("Fire(File): %v", err)
	}
	if state != "Waiting" {
		t.Fatalf("state after File = %s, want Waiting", state)
	}

	state, err = m.Fire(ctx, "Settle", nil)
	if err != nil {
		t.Fatalf("Fire(Settle): %v", err)
	}
	if state != "Done" {
		t.Fatalf("state after Settle = %s, want Done", state)
	}
}

func TestFire_UndefinedEventKeepsState(t *testing.T) {
	m := newRefundMachine()

	state, err := m.Fire(context.Background(), "Settle", nil)
	if err == nil {
		t.Fatal("expected error for event undefined in current state")
	}
	if state != "Idle" {
		t.Fatalf("state = %s, want Idle", state)
	}
	if m.CurrentState() != "Idle" {
		t.Fatalf("CurrentState = %s, want Idle", m.CurrentState())
	}
}

func TestFire_GuardBlocksTransition(t *testing.T) {
	m := New("guarded", "Idle")
	m.Configure("Idle").PermitIf("File", "Waiting", func(context.Context, TransitionContext) bool {
		return false
	})

	if _, err := m.Fire(context.Background(), "File", nil); err == nil {
		t.Fatal("expected guard failure")
	}
	if m.CurrentState() != "Idle" {
		t.Fatalf("guard failure must not change state, got %s", m.CurrentState())
	}
}

func TestFire_ActionOrderAndFailure(t *testing.T) {
	var order []string
	record := func(name string) Action {
		return func(context.Context, TransitionContext) error {
			order = append(order, name)
			return nil
		}
	}

	m := New("actions", "Idle")
	m.Configure("Idle").
		Permit("File", "Waiting").
		OnExit(record("exit-idle")).
		OnTransitionDo("File", record("transition"))
	m.Configure("Waiting").OnEntry(record("entry-waiting"))

	if _, err := m.Fire(context.Background(), "File", nil); err != nil {
		t.Fatalf("Fire: %v", err)
	}

	want := []string{"exit-idle", "transition", "entry-waiting"}
	if len(order) != len(want) {
		t.Fatalf("actions = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("actions = %v, want %v", order, want)
		}
	}
}

func TestFire_ExitActionErrorAbortsTransition(t *testing.T) {
	boom := errors.New("boom")
	m := New("failing", "Idle")
	m.Configure("Idle").
		Permit("File", "Waiting").
		OnExit(func(context.Context, TransitionContext) error { return boom })

	state, err := m.Fire(context.Background(), "File", nil)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
	if state != "Idle" {
		t.Fatalf("state = %s, want Idle", state)
	}
}

func TestOnTransition_ListenerSeesContext(t *testing.T) {
	m := newRefundMachine()

	var seen []TransitionContext
	m.OnTransition(func(tc TransitionContext) { seen = append(seen, tc) })

	if _, err := m.Fire(context.Background(), "File", "payload"); err != nil {
		t.Fatalf("Fire: %v", err)
	}

	if len(seen) != 1 {
		t.Fatalf("listener calls = %d, want 1", len(seen))
	}
	tc := seen[0]
	if tc.From != "Idle" || tc.To != "Waiting" || tc.Event != "File" {
		t.Fatalf("unexpected transition context: %+v", tc)
	}
	if tc.Data != "payload" {
		t.Fatalf("data = %v, want payload", tc.Data)
	}
}
