package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pmxlock-project/pmxlock/internal/runner"
	"github.com/pmxlock-project/pmxlock/pkg/logging"
)

var (
	runTimeout     time.Duration
	runNonblocking bool
)

var runCmd = &cobra.Command{
	Use:   "run <name> -- <command> [args...]",
	Short: "Run a command while holding the named cluster lock",
	Long: `Acquires the named cluster lock, runs the command under it while keeping
the shared-store heartbeat fresh, and releases the lock when the command
exits. The command's exit code is passed through; exit code 75 means the
lock was busy.`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := requireConfig()

		name, argv := args[0], args[1:]
		r := runner.New(cfg, logging.WithFields(nil), newHistory(cfg))

		code, err := r.Run(name, argv, runner.Options{
			Blocking: !runNonblocking,
			Timeout:  runTimeout,
		})
		if err != nil {
			fmtErr("run %s: %v", name, err)
		}
		os.Exit(code)
	},
}

func init() {
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "give up waiting for the lock after this long (0 = wait forever)")
	runCmd.Flags().BoolVarP(&runNonblocking, "nonblocking", "n", false, "fail immediately if the lock is busy")
	rootCmd.AddCommand(runCmd)
}
