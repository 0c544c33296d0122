package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mailtriage/internal/config"
	"mailtriage/pkg/logger"
)

const Version = "0.1.0"

var (
	configEnv string
	configDir string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "mailtriage",
	Short: "Classify, route and draft replies for inbound email",
	Long: `mailtriage classifies an inbound email by urgency and topic, routes it to a
department, drafts a reply with a text-generation service and decides whether
a follow-up is needed.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configEnv, "config-env", "",
		"Configuration environment (loads {config-dir}/{env}.yaml over base.yaml; default $CONFIG_ENV or local)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "",
		"Configuration directory (default $CONFIG_DIR or ./config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level override: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Log format override: json or console")

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(serveCmd)
}

// setup loads configuration and builds the logger shared by all commands.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configEnv, configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}
