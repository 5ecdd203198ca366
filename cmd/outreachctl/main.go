package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/julianb233/outreach-backend/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "outreachctl",
		Short: "outreachctl - operator CLI for the relationship outreach engine",
		Long: `outreachctl talks to a running outreach server to review today's
suggested candidates, approve/deny/delay them, and manage the send queue.`,
	}

	rootCmd.PersistentFlags().String("server", cli.DefaultServer(), "Base URL of the outreach server")

	rootCmd.AddCommand(cli.CandidatesCmd())
	rootCmd.AddCommand(cli.ApproveCmd())
	rootCmd.AddCommand(cli.DenyCmd())
	rootCmd.AddCommand(cli.DelayCmd())
	rootCmd.AddCommand(cli.SendCmd())
	rootCmd.AddCommand(cli.QueueCmd())
	rootCmd.AddCommand(cli.StatsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
