package supervisor

import (
	"context"
	"testing"
	"time"
)

func TestSupervisor_ShutsDownOnCancel(t *testing.T) {
	s := New("/bin/sleep",
		[]Spec{
			{Name: "svc-a", Args: []string{"30"}},
			{Name: "svc-b", Args: []string{"30"}},
		},
		WithStagger(10*time.Millisecond),
		WithPollInterval(20*time.Millisecond),
		WithGracePeriod(2*time.Second),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Give both children time to launch, then interrupt.
	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not shut down after cancel")
	}
}

func TestSupervisor_NoServicesStarted(t *testing.T) {
	s := New("/nonexistent/depositflow-binary",
		[]Spec{{Name: "svc-a"}, {Name: "svc-b"}},
		WithStagger(time.Millisecond),
	)

	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected error when no child could be launched")
	}
}

func TestSupervisor_ReportsDeadChild(t *testing.T) {
	s := New("/bin/sleep",
		[]Spec{{Name: "short", Args: []string{"0.05"}}},
		WithPollInterval(20*time.Millisecond),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// The child exits almost immediately; Run keeps polling until the
	// context ends and must not hang on the already-dead process.
	if err := s.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
}
