package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MJE43/roulette-spin-go/internal/api"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			v := api.GetVersionInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "roulette %s (commit %s, built %s)\n", v.EngineVersion, v.GitCommit, v.BuildTime)
		},
	}
}
