// Package root contains the root command for the application
package root

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"msvec/blocek/internal/config"
	"msvec/blocek/internal/logging"
)

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// Cfg is the loaded application configuration, available to all commands
	// after PersistentPreRun.
	Cfg *config.Config

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "blocek",
		Short: "A receipt ingestion backend with gamified spending stats.",
		Long: `blocek ingests free-text receipts, extracts structured purchase items
via a local text-generation endpoint, classifies them into a fixed taxonomy,
persists them (remote, embedded or file store) and keeps a bounded
health/happiness ledger derived from the classification.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to blocek!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnv()

			cfg, err := config.InitializeConfig()
			if err != nil {
				Log.Fatalf("Failed to initialize configuration: %v", err)
			}
			Cfg = cfg
			Log = config.ConfigureLoggingFromConfig(cfg)
		},
	}
)

// Logger returns the shared logger behind the application's logging interface.
func Logger() logging.Logger {
	return logging.NewLogrusAdapterFromLogger(Log)
}

// Init initializes the root command and all flags
func Init() {
	Cmd.CompletionOptions.DisableDefaultCmd = true
}
