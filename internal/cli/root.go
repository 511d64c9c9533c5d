// Package cli is the agora command line: the HTTP/WebSocket server and
// account bootstrap.
package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/devaloi/agora/internal/config"
	"github.com/devaloi/agora/internal/logging"
)

// Main runs the command line and exits non-zero on failure.
func Main() {
	// A missing .env is fine; the environment and defaults still apply.
	_ = godotenv.Load()

	if err := NewRoot().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRoot builds the command tree. Running it without a subcommand serves.
func NewRoot() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "agora",
		Short:         "Forum backend with realtime comment and vote updates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (yaml)")

	serve := serveCmd(&cfgPath)
	root.RunE = serve.RunE
	root.AddCommand(serve)
	root.AddCommand(createAdminCmd(&cfgPath))
	return root
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		l := logging.L()
		l.Error().Err(err).Msg("load config")
		return config.Config{}, err
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	return cfg, nil
}
