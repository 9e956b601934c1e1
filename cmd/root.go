package cmd

import (
	"github.com/spf13/cobra"
	configx "github.com/tanpawarit/portfolio-agent/pkg/config"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "portfolio-agent",
		Short:         "Portfolio assistant: chat with an LLM that can rebalance, cut fees and report performance",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configx.SetEnvFile(envFile)
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to .env file")

	rootCmd.AddCommand(
		newServeCmd(),
		newChatCmd(),
	)
	return rootCmd
}
