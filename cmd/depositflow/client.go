package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/refundlabs/depositflow/pkg/agent"
	"github.com/refundlabs/depositflow/pkg/config"
	"github.com/refundlabs/depositflow/pkg/contracts"
	"github.com/refundlabs/depositflow/pkg/orchestrator"
)

func newClientCommand() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "client",
		Short: "Run the refund client (workflow orchestrator)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := newServiceRuntime(ctx, cfgPath, contracts.RoleClient,
				func(c config.Config) config.ServiceConfig { return c.Client })
			if err != nil {
				return err
			}

			// Peer addresses are derived from the shared seed, the same way
			// the peers derive their own.
			secret := rt.secrets.AgentSeed
			assessorAddr := agent.DeriveAddress(contracts.RoleAssessor, seedFor(secret, contracts.RoleAssessor))
			paymentsAddr := agent.DeriveAddress(contracts.RolePayments, seedFor(secret, contracts.RolePayments))

			svc := orchestrator.NewService(assessorAddr, paymentsAddr,
				orchestrator.WithMetrics(rt.metrics))
			svc.Register(rt.agent, rt.cfg.Interval.Std())

			rt.agent.Logger().Infof("damage assessor at %s", assessorAddr)
			rt.agent.Logger().Infof("payment processor at %s", paymentsAddr)
			return rt.run(ctx)
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to YAML config file")
	return cmd
}
