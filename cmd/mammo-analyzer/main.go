package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/mammogram-analyzer/internal/analysis"
	"github.com/ironsheep/mammogram-analyzer/internal/config"
	"github.com/ironsheep/mammogram-analyzer/internal/ocr"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	configPath string
	backend    string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mammo-analyzer",
	Short: "Mammogram screening aid: contrast enhancement, region detection, classification",
	Long: `mammo-analyzer analyses mammogram images and produces a structured report:
classification, confidence, risk level, suspicious regions and recommendations.

The output is a screening aid and never a diagnosis.

Configuration is read from a YAML file (--config, default mammo.yaml),
then MAMMO_* environment variables, then command line flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("backend") {
			cfg.Backend = backend
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Logging.Level = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		logger, err = cfg.NewLogger()
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// No config or logger needed.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mammo-analyzer %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		fmt.Printf("  Backends:   %v\n", analysis.Backends())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", analysis.DefaultBackend, "image processing backend (native, opencv)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd, mcpCmd, analyzeCmd, versionCmd)
}

// newAnalyzer builds the analyzer described by the loaded config.
func newAnalyzer() (*analysis.Analyzer, error) {
	b, err := analysis.NewBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}

	opts := []analysis.Option{
		analysis.WithBackend(b),
		analysis.WithOptions(cfg.Analysis),
		analysis.WithLogger(logger.Named("analysis")),
	}
	if cfg.OCR.Enabled {
		opts = append(opts, analysis.WithAnnotator(ocr.NewAnnotator(cfg.OCR.Language, logger.Named("ocr"))))
	}
	return analysis.NewAnalyzer(opts...)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
