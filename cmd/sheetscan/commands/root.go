package commands

import (
	"github.com/spf13/cobra"

	"github.com/sheetscan/sheetscan/cmd/sheetscan/ui"
	"github.com/sheetscan/sheetscan/internal/config"
	"github.com/sheetscan/sheetscan/internal/observability"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "sheetscan",
	Short: "Answer-sheet recognition pipeline",
	Long: `sheetscan ingests scanned answer-sheet images and multi-page PDFs, sends
each page to the recognition service and assembles the results into typed
records grouped by sheet variant.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.Init(noColor)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads the configuration and builds the logger shared by all
// commands.
func loadConfig() (*config.Config, *observability.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Observability.LogLevel
	if verbose {
		level = "debug"
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "sheetscan",
	})

	return cfg, logger, nil
}
