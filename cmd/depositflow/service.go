package main

import (
	"context"
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/refundlabs/depositflow/pkg/agent"
	"github.com/refundlabs/depositflow/pkg/config"
	"github.com/refundlabs/depositflow/pkg/contracts"
	"github.com/refundlabs/depositflow/pkg/observability"
	"github.com/refundlabs/depositflow/pkg/transport"
)

// seedFor derives a role-specific seed from the shared AGENT_SEED secret.
// Every process derives the same seeds, so peer addresses are computable
// everywhere without discovery.
func seedFor(secret, role string) string {
	return secret + "/" + role
}

// buildResolver maps every role's derived address to its submit endpoint.
func buildResolver(cfg config.Config, secret string) transport.StaticResolver {
	return transport.StaticResolver{
		agent.DeriveAddress(contracts.RoleAssessor, seedFor(secret, contracts.RoleAssessor)): contracts.SubmitEndpoint(cfg.Assessor.Port),
		agent.DeriveAddress(contracts.RolePayments, seedFor(secret, contracts.RolePayments)): contracts.SubmitEndpoint(cfg.Payments.Port),
		agent.DeriveAddress(contracts.RoleClient, seedFor(secret, contracts.RoleClient)):     contracts.SubmitEndpoint(cfg.Client.Port),
	}
}

func buildTransport(ctx context.Context, cfg config.Config, svc config.ServiceConfig, secret string) (transport.Transport, error) {
	switch cfg.Transport {
	case config.TransportHTTP:
		return transport.NewHTTPTransport(transport.HTTPConfig{
			ListenAddr: fmt.Sprintf(":%d", svc.Port),
			Resolver:   buildResolver(cfg, secret),
			Name:       "depositflow",
		})
	case config.TransportNATS:
		return transport.NewNATSTransport(ctx, cfg.NATS)
	case config.TransportLocal:
		// Only meaningful when all agents share one process; kept for
		// experiments and parity with the test setup.
		return transport.NewLocalTransport(), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

// serviceRuntime bundles everything one service process needs.
type serviceRuntime struct {
	cfg     config.Config
	secrets config.Secrets
	tr      transport.Transport
	agent   *agent.Agent
	metrics *observability.Metrics
	tracer  *sdktrace.TracerProvider
}

// newServiceRuntime loads secrets and config, builds the transport and the
// agent for a role. Secrets come first: a missing AGENT_SEED aborts before
// anything is bound or launched.
func newServiceRuntime(ctx context.Context, cfgPath, role string, pick func(config.Config) config.ServiceConfig) (*serviceRuntime, error) {
	secrets, err := config.LoadSecrets()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	svc := pick(cfg)

	tr, err := buildTransport(ctx, cfg, svc, secrets.AgentSeed)
	if err != nil {
		return nil, err
	}

	metrics := observability.NewMetrics(role)
	opts := []agent.Option{agent.WithMetrics(metrics)}

	var tp *sdktrace.TracerProvider
	if cfg.Tracing {
		tp, err = observability.NewStdoutTracerProvider()
		if err != nil {
			_ = tr.Close()
			return nil, err
		}
		opts = append(opts, agent.WithTracerProvider(tp))
	}

	a := agent.New(role, seedFor(secrets.AgentSeed, role), tr, opts...)

	if svc.MetricsAddr != "" {
		go func() {
			if err := metrics.ListenAndServe(svc.MetricsAddr); err != nil {
				a.Logger().Errorf("metrics listener failed: %v", err)
			}
		}()
	}

	return &serviceRuntime{
		cfg:     cfg,
		secrets: secrets,
		tr:      tr,
		agent:   a,
		metrics: metrics,
		tracer:  tp,
	}, nil
}

// run starts the agent and blocks until the context is cancelled, then
// tears everything down.
func (r *serviceRuntime) run(ctx context.Context) error {
	if err := r.agent.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	_ = r.agent.Stop()
	err := r.tr.Close()
	_ = observability.ShutdownTracerProvider(context.Background(), r.tracer)
	return err
}
