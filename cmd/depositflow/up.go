package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/refundlabs/depositflow/pkg/config"
	"github.com/refundlabs/depositflow/pkg/supervisor"
	"github.com/refundlabs/depositflow/pkg/transport"
)

func newUpCommand() *cobra.Command {
	var cfgPath string
	var embeddedNATS bool
	var natsPort int

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Launch the backend services under a supervisor",
		Long: "up starts the assessor and payments services as subprocesses, polls\n" +
			"their liveness once per second, and on interrupt stops them gracefully\n" +
			"(SIGTERM, wait up to 5s, then SIGKILL). Run the client separately.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Environment contract check before anything launches.
			if _, err := config.LoadSecrets(); err != nil {
				return err
			}
			if _, err := config.Load(cfgPath); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if embeddedNATS {
				srv, err := transport.StartEmbeddedNATS(natsPort, 5*time.Second)
				if err != nil {
					return err
				}
				defer srv.Shutdown()
			}

			binary, err := os.Executable()
			if err != nil {
				return err
			}

			childArgs := func(sub string) []string {
				args := []string{sub}
				if cfgPath != "" {
					args = append(args, "--config", cfgPath)
				}
				return args
			}

			sup := supervisor.New(binary, []supervisor.Spec{
				{Name: "damage-assessor", Args: childArgs("assessor")},
				{Name: "payment-processor", Args: childArgs("payments")},
			})
			return sup.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to YAML config file")
	cmd.Flags().BoolVar(&embeddedNATS, "embedded-nats", false, "Start an in-process NATS server for the nats transport")
	cmd.Flags().IntVar(&natsPort, "nats-port", 4222, "Port for the embedded NATS server")
	return cmd
}
