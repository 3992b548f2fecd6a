package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nfrund/shellbus/cmd/shellbus/internal/output"
	"github.com/nfrund/shellbus/internal/topicmgr"
)

var (
	listOutputFormat string
	listModuleFilter string
	listScopeFilter  string
	listMatch        string
)

// topicsListCmd represents the topics list command
var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered topics",
	Long: `List every topic version in the catalog, sorted by name then version.

Examples:
  shellbus topics list                       # Table of all topics
  shellbus topics list --format json         # Machine-readable output
  shellbus topics list --scope framework     # Shell topics only
  shellbus topics list --module checkout     # Topics owned by one micro frontend
  shellbus topics list --match current*      # Names starting with "current"`,
	Args: cobra.NoArgs,
	RunE: topicsListHandler,
}

func topicsListHandler(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(listOutputFormat)
	if err != nil {
		return err
	}
	manager, err := catalog()
	if err != nil {
		return err
	}

	var scope topicmgr.TopicScope
	if listScopeFilter != "" {
		if scope = parseScope(listScopeFilter); scope == "" {
			return fmt.Errorf("invalid scope %q, valid scopes: framework, module", listScopeFilter)
		}
	}

	var list []topicmgr.Topic
	switch {
	case listMatch != "":
		list = manager.FindTopics(listMatch)
	case listModuleFilter != "":
		list = manager.ListByModule(listModuleFilter)
	default:
		list = manager.List()
	}

	filtered := list[:0:0]
	for _, t := range list {
		if scope != "" && t.Scope() != scope {
			continue
		}
		if listModuleFilter != "" && t.Module() != listModuleFilter {
			continue
		}
		filtered = append(filtered, t)
	}

	if len(filtered) == 0 && format == output.FormatTable {
		message := "No topics found"
		var filters []string
		if listModuleFilter != "" {
			filters = append(filters, fmt.Sprintf("module '%s'", listModuleFilter))
		}
		if listScopeFilter != "" {
			filters = append(filters, fmt.Sprintf("scope '%s'", listScopeFilter))
		}
		if listMatch != "" {
			filters = append(filters, fmt.Sprintf("pattern '%s'", listMatch))
		}
		if len(filters) > 0 {
			message += " matching: " + strings.Join(filters, ", ")
		}
		fmt.Fprintln(cmd.OutOrStdout(), message)
		return nil
	}

	return output.Topics(cmd.OutOrStdout(), format, filtered)
}

// parseScope converts string scope to topicmgr.TopicScope
func parseScope(scopeStr string) topicmgr.TopicScope {
	switch strings.ToLower(scopeStr) {
	case "framework":
		return topicmgr.ScopeFramework
	case "module":
		return topicmgr.ScopeModule
	default:
		return ""
	}
}

func init() {
	topicsCmd.AddCommand(topicsListCmd)

	topicsListCmd.Flags().StringVarP(&listOutputFormat, "format", "f", "table", "Output format (table, json, yaml)")
	topicsListCmd.Flags().StringVarP(&listModuleFilter, "module", "m", "", "Filter topics by module name")
	topicsListCmd.Flags().StringVarP(&listScopeFilter, "scope", "s", "", "Filter topics by scope (framework, module)")
	topicsListCmd.Flags().StringVar(&listMatch, "match", "", "Filter topic names by pattern (trailing * for prefix)")
}
