package cli

import (
	"fmt"

	"hirescore/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for candidate evaluation",
	Long: `Start an HTTP server that provides REST API endpoints for candidate
evaluation and AI-assisted analysis.

Available endpoints:
- POST /analysis/evaluation: Overall fit analysis
- POST /analysis/matching: Per-criterion matching analysis
- POST /analysis/questions: Interview question generation
- POST /analysis/turnover: Turnover risk analysis
- GET/PUT /company, /jobtypes/{id}; GET /criteria
- CRUD /drafts plus POST /drafts/{id}/finalize
- GET /health, GET /stats

TLS Configuration:
- Use --tls to enable HTTPS
- Use --cert-file and --key-file for TLS certificates`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().Bool("tls", false, "Enable TLS (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")

	// Bind flags to viper config keys
	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("server.port", "port")
	bindFlag("server.host", "host")
	bindFlag("server.tls.enabled", "tls")
	bindFlag("server.tls.certfile", "cert-file")
	bindFlag("server.tls.keyfile", "key-file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	srv, err := server.NewServer(cfg, Version, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start()
}
