package cmd

import (
	"github.com/spf13/cobra"
)

// topicsCmd represents the topics command
var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Explore and lint the topic catalog",
	Long: `The topics command inspects the catalog of topics known to the shell. Every
entry is a (name, version) pair; consumers and publishers only meet when both
agree on both.

Available subcommands:
  list       List registered topics with optional filtering
  get        Show one topic version in detail
  validate   Check a topic name and, if registered, its definition
  conflicts  Report names registered with diverging versions or replay policy

Examples:
  shellbus topics list --scope framework
  shellbus topics get currentTheme 1 --format yaml
  shellbus topics validate checkout.cartUpdated
  shellbus topics conflicts`,
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}
