package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pmxlock-project/pmxlock/internal/gc"
	"github.com/pmxlock-project/pmxlock/pkg/color"
	"github.com/pmxlock-project/pmxlock/pkg/logging"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Reclaim orphaned lock entries",
	Long: `Sweeps every lock name known to this host: each one gets a non-blocking
acquire that is immediately released on success, which clears shared-store
entries orphaned by dead holders. Locks held by live processes are left
untouched. Safe to run on a schedule or on demand.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := requireConfig()

		sweeper := gc.NewSweeper(cfg, logging.WithFields(nil), newHistory(cfg))
		report, err := sweeper.Sweep()
		if err != nil {
			fmtErr("sweep: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(report)
			return
		}

		fmt.Printf("Swept %d lock name(s) in %s\n", report.Scanned, report.Duration.Round(0))
		for _, name := range report.Reclaimed {
			fmt.Printf("  %s %s\n", color.Success("reclaimed"), name)
		}
		for _, name := range report.Busy {
			fmt.Printf("  %s %s\n", color.Dim("in use"), name)
		}
		for _, f := range report.Failed {
			fmt.Printf("  %s %s: %s\n", color.Error("failed"), f.Name, f.Error)
		}
		if len(report.Failed) > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(gcCmd)
}
