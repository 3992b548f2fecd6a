package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/nfrund/shellbus/internal/topic"
)

var (
	publishAllowUnknown bool
	publishReplay       bool
	publishHold         time.Duration
)

var publishCmd = &cobra.Command{
	Use:   "publish <topic-name> <version> <json>",
	Short: "Publish a JSON value on a topic",
	Long: `Publish one value on (name, version) through the configured transport. The value
is given as JSON and re-encoded with the configured codec.

A replaying topic hands its last value to contexts that join later. Use --hold to
keep this process around as a holder that answers their sync requests.

Examples:
  SHELLBUS_TRANSPORT=nats shellbus publish currentTheme 1 '{"name":"dark"}'
  shellbus publish globalLoading 1 true --hold 30s`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		version, err := parseVersion(args[1])
		if err != nil {
			return err
		}
		var value any
		if err := json.Unmarshal([]byte(args[2]), &value); err != nil {
			return fmt.Errorf("value is not valid JSON: %w", err)
		}

		manager, err := catalog()
		if err != nil {
			return err
		}
		replay := publishReplay
		if entry, ok := manager.Get(name, version); ok {
			replay = entry.ReplayLast()
		} else if !publishAllowUnknown {
			_, err := manager.Require(name, version)
			return fmt.Errorf("%w (use --allow-unknown to publish anyway)", err)
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
		pub := topic.NewPublisher[any](reg, name, version, topic.WithReplay(replay))
		defer pub.Destroy()

		if err := pub.Publish(ctx, value); err != nil {
			return err
		}
		if err := reg.Flush(ctx); err != nil {
			return err
		}
		slog.Info("Published value", "topic", name, "version", version, "channel", topic.ChannelName(name, version))

		if publishHold > 0 && replay {
			slog.Info("Holding value for late joiners", "duration", publishHold)
			select {
			case <-time.After(publishHold):
			case <-ctx.Done():
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().BoolVar(&publishAllowUnknown, "allow-unknown", false, "Publish on a topic that is not in the catalog")
	publishCmd.Flags().BoolVar(&publishReplay, "replay", true, "Replay policy for topics outside the catalog")
	publishCmd.Flags().DurationVar(&publishHold, "hold", 0, "Keep answering sync requests for this long")
}
