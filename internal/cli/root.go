package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pmxlock-project/pmxlock/internal/history"
	"github.com/pmxlock-project/pmxlock/pkg/color"
	"github.com/pmxlock-project/pmxlock/pkg/config"
	"github.com/pmxlock-project/pmxlock/pkg/logging"
)

var (
	jsonOutput bool
	configPath string
	logLevel   string
	noColor    bool

	rootCmd = &cobra.Command{
		Use:   "pmxlock",
		Short: "pmxlock - cluster-wide mutual exclusion over a shared directory store",
		Long: `pmxlock guards operations that must run on at most one node of a cluster
(or at most once per host) at a time. A local advisory file lock filters
same-host contention; the replicated directory store is the cluster-wide
authority of record.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			color.Init(noColor)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// requireConfig loads the configuration and wires the global logger, or
// exits with an error.
func requireConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmtErr("load config: %v", err)
		os.Exit(1)
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	format := logging.FormatJSON
	if cfg.Logging.Format == "text" {
		format = logging.FormatText
	}
	logging.SetGlobal(logging.NewLogger(logging.ParseLevel(level), format))

	return cfg
}

func newHistory(cfg *config.Config) *history.Appender {
	return history.NewAppender(cfg.HistoryFile)
}

func fmtErr(format string, args ...any) {
	prefix := "pmxlock: "
	if color.Enabled() {
		prefix = color.Error("pmxlock:") + " "
	}
	fmt.Fprintf(os.Stderr, prefix+format+"\n", args...)
}

// outputJSON prints v as indented JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
