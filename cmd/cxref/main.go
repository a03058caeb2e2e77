package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/cxref/internal/config"
	"github.com/jward/cxref/internal/logging"
)

var (
	flagConfig  string
	flagVerbose bool
)

// Loaded once per invocation by the root command's pre-run hook.
var (
	cfg    *config.Config
	logger *slog.Logger
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "cxref",
	Short:         "Cross-reference index for C and C++",
	Long:          "cxref records where every function, type, variable and macro of a C or C++ translation unit is declared, defined and referenced.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "project file (default: nearest "+config.FileName+")")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log per-unit progress to stderr")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(astCmd)
	rootCmd.AddCommand(mergeCmd)
}

// setup loads the project file and configures logging. --verbose lowers
// the level to debug; otherwise CXREF_LOG_LEVEL applies.
func setup() error {
	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return err
	}

	logCfg := logging.LoadConfigFromEnv("cxref")
	if flagVerbose {
		logCfg.Level = slog.LevelDebug
	}
	logger = logging.New(logCfg)
	if cfg.Path != "" {
		logger.Debug("config loaded", "path", cfg.Path)
	}
	return nil
}
