package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newDepositflowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "depositflow",
		Short: "Multi-agent security deposit refund demo",
		Long: "depositflow runs three cooperating agents: a damage assessor, a payment\n" +
			"processor, and a client that drives the refund workflow between them.",
	}

	cmd.AddCommand(
		newAssessorCommand(),
		newPaymentsCommand(),
		newClientCommand(),
		newUpCommand(),
		newVersionCommand(),
	)
	return cmd
}

func main() {
	if err := newDepositflowCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
