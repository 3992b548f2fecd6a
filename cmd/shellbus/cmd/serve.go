package cmd

import (
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay hub",
	Long: `Run the relay hub HTTP server. Contexts using the websocket transport connect
to /ws and exchange channel frames through it. The server also exposes the topic
catalog under /topics, prometheus metrics under /metrics and /healthz.

The listen address comes from HTTP_ADDR unless --addr is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Shutdown()

		srv, err := a.Server()
		if err != nil {
			return err
		}
		addr := a.Config().HTTPAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		return srv.Start(cmd.Context(), addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides HTTP_ADDR)")
}
