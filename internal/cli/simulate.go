package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MJE43/roulette-spin-go/internal/logger"
	"github.com/MJE43/roulette-spin-go/internal/session"
	"github.com/MJE43/roulette-spin-go/internal/strategy"
)

func newSimulateCmd(flags *rootFlags) *cobra.Command {
	var (
		src        sourceFlags
		rounds     int
		name       string
		scriptPath string
		asJSON     bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play rounds headless with an autoplay strategy",
		Long: fmt.Sprintf(`Simulate plays a session with a built-in strategy (%s) or a
JavaScript strategy file defining dobet(), then prints statistics.`, strings.Join(strategy.Names(), ", ")),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd, true)
			if err != nil {
				return err
			}

			var strat strategy.Strategy
			if scriptPath != "" {
				source, err := os.ReadFile(scriptPath)
				if err != nil {
					return fmt.Errorf("read script: %w", err)
				}
				if strat, err = strategy.NewScript(string(source)); err != nil {
					return err
				}
			} else if strat, err = strategy.Builtin(name); err != nil {
				return err
			}

			manager, err := newManager(cfg)
			if err != nil {
				return err
			}
			defer manager.Close()

			sess, err := manager.Create(src.options())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			runner := strategy.NewRunner(manager)
			if verbose {
				runner.OnRound = func(o session.Outcome) {
					r := o.Result
					fmt.Fprintf(out, "#%d %s %d bet $%d -> $%d\n",
						o.Round, r.Sector.Color, r.Sector.Number, r.Bet, r.NewBalance)
				}
			}

			report, err := runner.Run(cmd.Context(), sess.ID(), strat, rounds)
			if err != nil {
				return err
			}
			if script, ok := strat.(*strategy.Script); ok {
				for _, l := range script.Logs() {
					logger.Debug("script", "message", l.Message)
				}
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			st := report.Stats
			fmt.Fprintf(out, "Strategy:   %s\n", report.Strategy)
			fmt.Fprintf(out, "Rounds:     %d (stopped: %s)\n", report.Rounds, report.StopReason)
			fmt.Fprintf(out, "Balance:    $%d -> $%d\n", report.StartBalance, report.Balance)
			fmt.Fprintf(out, "Won/Lost:   %d/%d (%s%%)\n", st.Wins, st.Losses, st.WinRate)
			fmt.Fprintf(out, "Wagered:    $%s\n", st.Wagered)
			fmt.Fprintf(out, "Profit:     $%s\n", st.Profit)
			fmt.Fprintf(out, "RTP:        %s%%\n", st.RTP)
			fmt.Fprintf(out, "Biggest win $%d, longest losing streak %d\n", st.BiggestWin, st.LongestLossStreak)
			if report.Message != "" {
				fmt.Fprintf(out, "Note:       %s\n", report.Message)
			}
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().IntVarP(&rounds, "rounds", "n", 100, "rounds to play (0 plays until the balance runs out)")
	cmd.Flags().StringVarP(&name, "strategy", "s", "flat", "built-in strategy")
	cmd.Flags().StringVar(&scriptPath, "script", "", "JavaScript strategy file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print every round")
	return cmd
}
