/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mxgram REST API server",
	Long: `Start the REST API server exposing the codec, the configured transport and
the gram archive over HTTP.

The server exposes:
  - POST /api/v1/encode, /api/v1/decode, /api/v1/inspect
  - POST /api/v1/send (when the transport opens)
  - GET/DELETE /api/v1/grams (when the archive is enabled)
  - GET /metrics and /swagger/doc.json

Example:
  mxgram serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := container.Config()
		if cmd.Flags().Changed("port") {
			cfg.API.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("bind") {
			cfg.API.Bind, _ = cmd.Flags().GetString("bind")
		}
		if cmd.Flags().Changed("api-key") {
			cfg.API.APIKey, _ = cmd.Flags().GetString("api-key")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		server, err := container.Server(ctx)
		if err != nil {
			return fmt.Errorf("failed to build server: %w", err)
		}

		cmd.Printf("Starting mxgram API server on %s\n", server.Addr())
		if cfg.API.APIKey == "" || cfg.API.APIKey == "auto" {
			cmd.Println("API key authentication is disabled")
		}
		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		cmd.Println("Server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides api.port)")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind to (overrides api.bind)")
	serveCmd.Flags().String("api-key", "", "API key for authentication (overrides api.api_key)")
}
