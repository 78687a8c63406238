package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/refundlabs/depositflow/pkg/assessor"
	"github.com/refundlabs/depositflow/pkg/config"
	"github.com/refundlabs/depositflow/pkg/contracts"
)

func newAssessorCommand() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "assessor",
		Short: "Run the damage assessor agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := newServiceRuntime(ctx, cfgPath, contracts.RoleAssessor,
				func(c config.Config) config.ServiceConfig { return c.Assessor })
			if err != nil {
				return err
			}

			assessor.NewService().Register(rt.agent)
			return rt.run(ctx)
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to YAML config file")
	return cmd
}
