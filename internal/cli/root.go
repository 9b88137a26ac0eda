package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// Version returns the version string injected at build time.
func Version() string { return appVersion }

var rootCmd = &cobra.Command{
	Use:   "dlg",
	Short: "Delegation dashboard - turn task emails into delegated Slack notifications",
	Long: `dlg drives a task-delegation agent that scans recent emails for tasks,
extracts titles, priorities and assignees, and notifies teammates on Slack.

It shows the outcome of each run in an interactive dashboard, keeps a
searchable history of past runs for the session, and can preview a
built-in sample dataset.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dlg %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
