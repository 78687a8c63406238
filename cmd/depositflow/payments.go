package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/refundlabs/depositflow/pkg/config"
	"github.com/refundlabs/depositflow/pkg/contracts"
	"github.com/refundlabs/depositflow/pkg/payments"
)

func newPaymentsCommand() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Run the payment processor agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := newServiceRuntime(ctx, cfgPath, contracts.RolePayments,
				func(c config.Config) config.ServiceConfig { return c.Payments })
			if err != nil {
				return err
			}

			payments.NewService().Register(rt.agent)
			return rt.run(ctx)
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to YAML config file")
	return cmd
}
