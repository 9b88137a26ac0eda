package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var processJSON bool

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the delegation agent once and print the result",
	Long: `Ask the delegation agent to process recent emails for tasks, notify the
assigned teammates, and print the summary, statistics and extracted tasks.

Exits with an error when the agent call fails or the agent reports a failure.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Dash == nil {
			return fmt.Errorf("dashboard not initialized")
		}

		if err := Dash.Process(commandContext(cmd.Context())); err != nil {
			return fmt.Errorf("processing tasks: %w", err)
		}

		v := Dash.View()
		notifyRun(cmd.ErrOrStderr(), v)

		if processJSON {
			return writeViewJSON(cmd.OutOrStdout(), v, false)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n", v.StatusMessage)
		writeViewText(cmd.OutOrStdout(), v, false)
		return nil
	},
}

func init() {
	processCmd.Flags().BoolVar(&processJSON, "json", false, "Output the result as JSON")
	rootCmd.AddCommand(processCmd)
}
