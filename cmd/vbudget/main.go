package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vbudget/internal/cli"
)

var (
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "vbudget",
		Short: "VBudget personal budgeting web frontend",
		Long: `vbudget serves the VBudget web interface: dashboard, transactions,
categories, notification rules and integrations, backed by the VBudget REST API.`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			cli.LoadEnvFile()
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "vbudget", version)
		},
	}
}
