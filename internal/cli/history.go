package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pmxlock-project/pmxlock/pkg/color"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent lock activity",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := requireConfig()

		records, err := newHistory(cfg).List(historyLimit)
		if err != nil {
			fmtErr("history: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(records)
			return
		}

		for _, rec := range records {
			line := fmt.Sprintf("%s  %-14s %s", rec.Timestamp.Format(time.RFC3339), rec.EventType, rec.LockName)
			if rec.RunID != "" {
				line += color.Dim("  run=" + rec.RunID[:8])
			}
			fmt.Println(line)
		}
	},
}

var historyVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the integrity of the lock activity log",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := requireConfig()

		if err := newHistory(cfg).Verify(); err != nil {
			fmtErr("history verify: %v", err)
			os.Exit(1)
		}
		if !jsonOutput {
			fmt.Println(color.Success("history chain intact"))
		}
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "show at most this many records (0 = all)")
	historyCmd.AddCommand(historyVerifyCmd)
	rootCmd.AddCommand(historyCmd)
}
