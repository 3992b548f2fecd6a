package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfrund/shellbus/internal/topicmgr"
)

var errValidationFailed = errors.New("validation failed")

// topicsValidateCmd represents the topics validate command
var topicsValidateCmd = &cobra.Command{
	Use:   "validate <topic-name> [version]",
	Short: "Validate a topic name and definition",
	Long: `Check that a topic name follows the naming rules and, when the topic is in the
catalog, that every registered version (or the given one) has a complete
definition.

The validation process includes:
- Name format (lowerCamel segments separated by dots, at most 100 characters)
- Reserved prefix checking (internal., debug.)
- Version is a positive integer and a description is present
- Scope rules (framework topics have no module, module names are lowercase)

Examples:
  shellbus topics validate currentTheme
  shellbus topics validate checkout.cartUpdated 2
  shellbus topics validate Invalid.Topic         # Shows name format error`,
	Args: cobra.RangeArgs(1, 2),
	RunE: topicsValidateHandler,
}

func topicsValidateHandler(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	name := args[0]

	manager, err := catalog()
	if err != nil {
		return err
	}

	if err := manager.ValidateTopicName(name); err != nil {
		fmt.Fprintf(out, "❌ Topic name validation failed: %v\n", err)
		return errValidationFailed
	}

	var entries []topicmgr.Topic
	if len(args) == 2 {
		version, err := parseVersion(args[1])
		if err != nil {
			return err
		}
		entry, err := manager.Require(name, version)
		if err != nil {
			fmt.Fprintf(out, "❌ %v\n", err)
			return errValidationFailed
		}
		entries = append(entries, entry)
	} else {
		for _, v := range manager.Versions(name) {
			entry, _ := manager.Get(name, v)
			entries = append(entries, entry)
		}
	}

	if len(entries) == 0 {
		fmt.Fprintf(out, "✅ Topic name '%s' is valid (not registered)\n", name)
		return nil
	}

	failed := false
	for _, entry := range entries {
		if err := manager.ValidateDefinition(topicmgr.Describe(entry)); err != nil {
			fmt.Fprintf(out, "❌ Topic %s failed validation: %v\n", entry.Key(), err)
			failed = true
			continue
		}
		fmt.Fprintf(out, "✅ Topic %s is valid\n", entry.Key())
		fmt.Fprintf(out, "   Scope: %s\n", entry.Scope())
		if entry.Module() != "" {
			fmt.Fprintf(out, "   Module: %s\n", entry.Module())
		} else {
			fmt.Fprintf(out, "   Module: (framework)\n")
		}
		fmt.Fprintf(out, "   Replay last: %t\n", entry.ReplayLast())
		fmt.Fprintf(out, "   Description: %s\n", entry.Description())
	}
	if failed {
		return errValidationFailed
	}
	return nil
}

func init() {
	topicsCmd.AddCommand(topicsValidateCmd)
}
