package cli

import (
	"github.com/spf13/cobra"

	"github.com/accord-io/accord/internal/logging"
)

var (
	rootRepoDir  string
	rootLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "accord",
	Short: "GitOps reconciliation for identity and access resources",
	Long: `Accord reconciles declarative YAML templates against cloud identity
providers and reports or applies the differences.

Templates live in a git repo; accord plan shows drift without touching
anything, accord apply executes the minimal set of changes per account.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(rootLogLevel)
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootRepoDir, "repo", "r", ".", "Template repository root")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(expireCmd)
	rootCmd.AddCommand(versionCmd)
}
