package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nfrund/shellbus/internal/app"
	"github.com/nfrund/shellbus/internal/config"
	"github.com/nfrund/shellbus/internal/logging"
	"github.com/nfrund/shellbus/internal/topicmgr"
	"github.com/nfrund/shellbus/internal/topics"
)

var rootCmd = &cobra.Command{
	Use:   "shellbus",
	Short: "Versioned topic bus shared by a shell and its micro frontends",
	Long: `shellbus connects a shell application and its micro frontends through named,
versioned topics. Every participant that opens the same topic name and version
shares one broadcast channel, and replaying topics hand their last value to
late joiners.

Available commands:
  serve      Run the relay hub that browser and process contexts connect to
  topics     Explore and lint the topic catalog
  publish    Publish a JSON value on a topic
  watch      Stream the values of a topic
  version    Print the version

Use "shellbus [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// loadApp reads configuration, installs the logger and prepares the
// component graph. Callers must Shutdown the app.
func loadApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	logging.New(cfg.LogFormat, cfg.LogLevel)
	return app.New(ctx, cfg), nil
}

// catalog returns the default catalog with the shell topics registered.
// It needs no configuration.
func catalog() (*topicmgr.Manager, error) {
	m := topicmgr.Default()
	if err := topics.Register(m); err != nil {
		return nil, fmt.Errorf("failed to initialize topics: %w", err)
	}
	return m, nil
}
