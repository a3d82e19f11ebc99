package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"studygate/internal"
	"studygate/internal/config"
)

func main() {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	var configPath string
	rootCmd := &cobra.Command{
		Use:           "studygate",
		Short:         "Research-data quality gate and sequential decision engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML configuration (defaults to $STUDYGATE_CONFIG)")

	rootCmd.AddCommand(
		newSimulateCmd(&configPath),
		newBaselinesCmd(&configPath),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger it describes
func setup(configPath string) (*config.Config, *internal.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger := internal.NewLoggerTo(os.Stderr, internal.ParseLogLevel(cfg.Logging.Level), cfg.Logging.JSON)
	internal.DefaultLogger = logger
	return cfg, logger, nil
}
