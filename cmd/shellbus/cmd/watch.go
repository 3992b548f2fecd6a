package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nfrund/shellbus/cmd/shellbus/internal/output"
	"github.com/nfrund/shellbus/internal/topic"
)

var (
	watchOutputFormat string
	watchBuffer       int
	watchReplay       bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <topic-name> <version>",
	Short: "Stream the values of a topic",
	Long: `Join (name, version) through the configured transport and print every value
as it arrives, until interrupted. A replaying topic first asks current holders for
the last value, so a watch started late still shows the current state.

Examples:
  SHELLBUS_TRANSPORT=websocket shellbus watch currentTheme 1
  shellbus watch events 1 --format yaml`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		version, err := parseVersion(args[1])
		if err != nil {
			return err
		}
		format, err := output.ParseFormat(watchOutputFormat)
		if err != nil {
			return err
		}

		manager, err := catalog()
		if err != nil {
			return err
		}
		replay := watchReplay
		if entry, ok := manager.Get(name, version); ok {
			replay = entry.ReplayLast()
		} else {
			slog.Warn("Topic is not in the catalog", "topic", name, "version", version)
		}

		ctx := cmd.Context()
		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer a.Shutdown()

		reg, err := a.Registry()
		if err != nil {
			return err
		}
		t := topic.New[any](reg, name, version, topic.WithReplay(replay))
		defer t.Destroy()

		go func() {
			select {
			case <-t.Synchronized():
				slog.Debug("Topic synchronized", "topic", name, "version", version)
			case <-ctx.Done():
			}
		}()

		for v := range t.Values(ctx, watchBuffer) {
			if err := output.Value(cmd.OutOrStdout(), format, v); err != nil {
				return fmt.Errorf("print value: %w", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&watchOutputFormat, "format", "f", "json", "Output format (json, yaml)")
	watchCmd.Flags().IntVar(&watchBuffer, "buffer", 64, "Values buffered before new ones are dropped")
	watchCmd.Flags().BoolVar(&watchReplay, "replay", true, "Replay policy for topics outside the catalog")
}
