package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pmxlock-project/pmxlock/internal/locking"
	"github.com/pmxlock-project/pmxlock/pkg/color"
	"github.com/pmxlock-project/pmxlock/pkg/model"
)

var statusCmd = &cobra.Command{
	Use:   "status <name>",
	Short: "Probe whether the named cluster lock is held",
	Long: `Probes the named lock without disturbing it: a successful non-blocking
acquire is immediately undone. Exit code 0 means free, 1 means held.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := requireConfig()
		name := args[0]

		cl, err := locking.NewClusterLock(cfg, name)
		if err != nil {
			fmtErr("status %s: %v", name, err)
			os.Exit(2)
		}

		held, err := cl.Locked()
		if err != nil {
			fmtErr("status %s: %v", name, err)
			os.Exit(2)
		}

		status := model.LockStatus{Name: name, State: model.LockStateFree}
		if held {
			status.State = model.LockStateHeld
		}

		if jsonOutput {
			outputJSON(status)
		} else if held {
			fmt.Printf("%s %s\n", name, color.Warning("held"))
		} else {
			fmt.Printf("%s %s\n", name, color.Success("free"))
		}

		if held {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
