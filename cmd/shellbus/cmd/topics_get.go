package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nfrund/shellbus/cmd/shellbus/internal/output"
)

var getOutputFormat string

// topicsGetCmd represents the topics get command
var topicsGetCmd = &cobra.Command{
	Use:   "get <topic-name> [version]",
	Short: "Get detailed information about a topic",
	Long: `Show one catalog entry, including the broadcast channel it uses. Without a
version the latest registered version of the name is shown.

Examples:
  shellbus topics get currentTheme
  shellbus topics get userProfile 1 --format json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: topicsGetHandler,
}

func topicsGetHandler(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(getOutputFormat)
	if err != nil {
		return err
	}
	manager, err := catalog()
	if err != nil {
		return err
	}

	name := args[0]
	var version int
	if len(args) == 2 {
		if version, err = parseVersion(args[1]); err != nil {
			return err
		}
	} else {
		versions := manager.Versions(name)
		if len(versions) == 0 {
			return fmt.Errorf("topic '%s' not found, use 'shellbus topics list' to see all available topics", name)
		}
		version = versions[len(versions)-1]
	}

	entry, err := manager.Require(name, version)
	if err != nil {
		return err
	}
	return output.Topic(cmd.OutOrStdout(), format, entry)
}

func parseVersion(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("invalid version %q, versions are positive integers", s)
	}
	return v, nil
}

func init() {
	topicsCmd.AddCommand(topicsGetCmd)
	topicsGetCmd.Flags().StringVarP(&getOutputFormat, "format", "f", "table", "Output format (table, json, yaml)")
}
