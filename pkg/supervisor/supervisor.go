package supervisor

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/refundlabs/depositflow/pkg/agent"
)

// Spec describes one service subprocess: a display name and the argv passed
// to the shared binary.
type Spec struct {
	Name string
	Args []string
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger replaces the default logger.
func WithLogger(l agent.Logger) Option {
	return func(s *Supervisor) { s.logger = l }
}

// WithStagger sets the delay between consecutive launches.
func WithStagger(d time.Duration) Option {
	return func(s *Supervisor) { s.stagger = d }
}

// WithPollInterval sets the liveness poll period.
func WithPollInterval(d time.Duration) Option {
	return func(s *Supervisor) { s.pollEvery = d }
}

// WithGracePeriod sets how long a child gets between SIGTERM and SIGKILL.
func WithGracePeriod(d time.Duration) Option {
	return func(s *Supervisor) { s.grace = d }
}

// Supervisor launches the backend services as subprocesses, polls their
// liveness, and shuts them down gracefully on interrupt: SIGTERM, a bounded
// wait, then SIGKILL.
type Supervisor struct {
	binary string
	specs  []Spec
	logger agent.Logger

	stagger   time.Duration
	pollEvery time.Duration
	grace     time.Duration
}

// New creates a supervisor that runs each spec as `binary <args>`.
func New(binary string, specs []Spec, opts ...Option) *Supervisor {
	s := &Supervisor{
		binary:    binary,
		specs:     specs,
		logger:    agent.NewDefaultLogger("supervisor"),
		stagger:   2 * time.Second,
		pollEvery: 1 * time.Second,
		grace:     5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type child struct {
	spec   Spec
	cmd    *exec.Cmd
	exited chan error
	done   atomic.Bool
}

// Run launches the services and blocks until ctx is cancelled. A service
// that fails to launch is reported and skipped; the rest still start.
func (s *Supervisor) Run(ctx context.Context) error {
	children := make([]*child, 0, len(s.specs))
	for i, spec := range s.specs {
		if i > 0 {
			select {
			case <-time.After(s.stagger):
			case <-ctx.Done():
				s.shutdown(children)
				return nil
			}
		}

		s.logger.Infof("starting %s...", spec.Name)
		cmd := exec.Command(s.binary, spec.Args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			s.logger.Errorf("failed to start %s: %v", spec.Name, err)
			continue
		}
		s.logger.Infof("%s started with PID %d", spec.Name, cmd.Process.Pid)

		c := &child{spec: spec, cmd: cmd, exited: make(chan error, 1)}
		go func() { c.exited <- cmd.Wait() }()
		children = append(children, c)
	}

	if len(children) == 0 {
		return errors.New("no services started")
	}
	s.logger.Info("all services are running; press Ctrl+C to stop")

	ticker := time.NewTicker(s.pollEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.shutdown(children)
			return nil
		case <-ticker.C:
			for _, c := range children {
				if c.done.Load() {
					continue
				}
				select {
				case err := <-c.exited:
					c.done.Store(true)
					s.logger.Warnf("%s has stopped unexpectedly: %v", c.spec.Name, err)
				default:
				}
			}
		}
	}
}

func (s *Supervisor) shutdown(children []*child) {
	s.logger.Info("shutting down services...")
	for _, c := range children {
		if c.done.Load() {
			continue
		}

		s.logger.Infof("stopping %s...", c.spec.Name)
		_ = c.cmd.Process.Signal(syscall.SIGTERM)

		select {
		case <-c.exited:
			s.logger.Infof("%s stopped", c.spec.Name)
		case <-time.After(s.grace):
			s.logger.Warnf("force killing %s...", c.spec.Name)
			_ = c.cmd.Process.Kill()
			<-c.exited
		}
		c.done.Store(true)
	}
	s.logger.Info("all services stopped")
}
