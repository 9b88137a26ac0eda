package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sampleJSON bool

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print the sample dataset",
	Long: `Print the demonstration dataset shown by the dashboard's sample mode:
the sample result, its statistics and the sample history. No agent is called.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Dash == nil {
			return fmt.Errorf("dashboard not initialized")
		}

		prev := Dash.SampleMode()
		Dash.SetSampleMode(true)
		v := Dash.View()
		Dash.SetSampleMode(prev)

		if sampleJSON {
			return writeViewJSON(cmd.OutOrStdout(), v, true)
		}
		writeViewText(cmd.OutOrStdout(), v, true)
		return nil
	},
}

func init() {
	sampleCmd.Flags().BoolVar(&sampleJSON, "json", false, "Output the sample dataset as JSON")
	rootCmd.AddCommand(sampleCmd)
}
