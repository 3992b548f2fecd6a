package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfrund/shellbus/cmd/shellbus/internal/output"
)

var (
	conflictsOutputFormat string
	conflictsStrict       bool
)

var topicsConflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Report catalog entries that cannot talk to each other",
	Long: `List topic names that are registered with several versions, or whose versions
disagree on replaying the last value. Producers and consumers on different
versions of a name never see each other's values.

With --strict the command fails when any conflict is found, for use in CI.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(conflictsOutputFormat)
		if err != nil {
			return err
		}
		manager, err := catalog()
		if err != nil {
			return err
		}

		conflicts := manager.Conflicts()
		if err := output.Conflicts(cmd.OutOrStdout(), format, conflicts); err != nil {
			return err
		}
		if conflictsStrict && len(conflicts) > 0 {
			return fmt.Errorf("%d topic conflict(s) found", len(conflicts))
		}
		return nil
	},
}

func init() {
	topicsCmd.AddCommand(topicsConflictsCmd)
	topicsConflictsCmd.Flags().StringVarP(&conflictsOutputFormat, "format", "f", "table", "Output format (table, json, yaml)")
	topicsConflictsCmd.Flags().BoolVar(&conflictsStrict, "strict", false, "Exit with an error when conflicts exist")
}
