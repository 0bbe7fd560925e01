package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MJE43/roulette-spin-go/internal/engine"
	"github.com/MJE43/roulette-spin-go/internal/session"
	"github.com/MJE43/roulette-spin-go/internal/wheel"
)

// sourceFlags select the random source of a new session.
type sourceFlags struct {
	seed       uint64
	serverSeed string
	clientSeed string
	nonce      uint64
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "deterministic seed (0 uses a crypto-seeded source)")
	cmd.Flags().StringVar(&f.serverSeed, "server-seed", "", "provably-fair server seed")
	cmd.Flags().StringVar(&f.clientSeed, "client-seed", "", "provably-fair client seed")
	cmd.Flags().Uint64Var(&f.nonce, "nonce", 0, "provably-fair starting nonce")
}

func (f *sourceFlags) options() session.CreateOptions {
	switch {
	case f.serverSeed != "":
		return session.CreateOptions{Seeds: &engine.Seeds{
			Server: f.serverSeed,
			Client: f.clientSeed,
			Nonce:  f.nonce,
		}}
	case f.seed != 0:
		return session.CreateOptions{Source: engine.NewSeeded(f.seed)}
	}
	return session.CreateOptions{}
}

func newPlayCmd(flags *rootFlags) *cobra.Command {
	var (
		src  sourceFlags
		fast bool
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play interactively in the terminal",
		Long: `Play reads one command per line:

  +, -              raise or lower the bet one increment
  hold +|- <dur>    hold the bet button, e.g. "hold + 1s"
  red, black        bet on a colour
  1..36             bet on a number
  spin              spin the wheel
  reset             clear the selection
  reshuffle         new sector table
  table             print the sector table
  stats             print session statistics
  quit              leave`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd, true)
			if err != nil {
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

			p := &player{
				manager: manager,
				sess:    sess,
				out:     cmd.OutOrStdout(),
				fast:    fast,
			}
			p.hold = session.NewHoldRepeater(func(dir int) { sess.AdjustBet(dir) },
				cfg.Game.HoldDelay, cfg.Game.RepeatInterval)
			return p.run(cmd.Context(), cmd.InOrStdin())
		},
	}
	src.register(cmd)
	cmd.Flags().BoolVar(&fast, "fast", false, "settle spins instantly instead of animating them")
	return cmd
}

type player struct {
	manager *session.Manager
	sess    *session.Session
	hold    *session.HoldRepeater
	out     io.Writer
	fast    bool
}

var errQuit = errors.New("quit")

func (p *player) run(ctx context.Context, in io.Reader) error {
	snap := p.sess.Snapshot()
	fmt.Fprintf(p.out, "Session %s. Balance $%d.\n", snap.ID, snap.Balance)
	if snap.Fairness != nil {
		fmt.Fprintf(p.out, "Server seed hash %s, client seed %q, nonce %d.\n",
			snap.Fairness.ServerSeedHash, snap.Fairness.ClientSeed, snap.Fairness.Nonce)
	}
	p.status(snap)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		err := p.exec(ctx, strings.Fields(strings.ToLower(scanner.Text())))
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			fmt.Fprintf(p.out, "error: %v\n", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	st := p.sess.Stats()
	fmt.Fprintf(p.out, "Goodbye. %d rounds played, final balance $%d.\n", st.Rounds, st.Balance)
	return nil
}

func (p *player) exec(ctx context.Context, fields []string) error {
	if len(fields) == 0 {
		return nil
	}

	switch cmd := fields[0]; cmd {
	case "quit", "exit", "q":
		return errQuit
	case "+":
		p.status(p.sess.AdjustBet(1))
	case "-":
		p.status(p.sess.AdjustBet(-1))
	case "hold":
		return p.holdButton(ctx, fields[1:])
	case "red", "black":
		c, _ := wheel.ParseColor(cmd)
		p.status(p.sess.SelectColor(c))
	case "reset":
		p.status(p.sess.ResetSelection())
	case "reshuffle":
		p.status(p.sess.Reshuffle())
	case "table":
		p.table()
	case "stats":
		p.stats()
	case "spin":
		return p.spin(ctx)
	default:
		n, err := strconv.Atoi(cmd)
		if err != nil {
			return fmt.Errorf("unknown command %q", cmd)
		}
		p.status(p.sess.SelectNumber(n))
	}
	return nil
}

func (p *player) holdButton(ctx context.Context, args []string) error {
	if len(args) != 2 || (args[0] != "+" && args[0] != "-") {
		return fmt.Errorf("usage: hold +|- <duration>")
	}
	d, err := time.ParseDuration(args[1])
	if err != nil {
		return err
	}
	dir := 1
	if args[0] == "-" {
		dir = -1
	}

	p.hold.Press(ctx, dir)
	select {
	case <-ctx.Done():
		p.hold.Leave()
		return nil
	case <-time.After(d):
	}
	p.hold.Release()
	p.status(p.sess.Snapshot())
	return nil
}

func (p *player) spin(ctx context.Context) error {
	snap := p.sess.RequestSpin()
	p.status(snap)
	if !p.sess.Spinning() {
		return nil
	}

	var out *session.Outcome
	if p.fast {
		var err error
		if out, err = p.manager.SpinToRest(ctx, p.sess.ID()); err != nil {
			return err
		}
	} else {
		errSettled := errors.New("settled")
		every := max(p.manager.FPS()/6, 1)
		frames := 0
		err := p.manager.Drive(ctx, p.sess.ID(), func(f session.Frame) error {
			if f.Outcome != nil {
				out = f.Outcome
				return errSettled
			}
			if frames%every == 0 {
				fmt.Fprintf(p.out, "  %s\n", f.Indicator)
			}
			frames++
			return nil
		})
		if err != nil && !errors.Is(err, errSettled) {
			return err
		}
	}
	if out == nil {
		return nil
	}

	sec := out.Result.Sector
	fmt.Fprintf(p.out, "Landed on %s %d.\n", sec.Color, sec.Number)
	if out.Nonce != nil {
		fmt.Fprintf(p.out, "Round nonce %d.\n", *out.Nonce)
	}
	p.status(out.Snapshot)
	return nil
}

func (p *player) status(s session.Snapshot) {
	if s.Message != "" {
		fmt.Fprintln(p.out, s.Message)
	}
	fmt.Fprintf(p.out, "%s | Balance: $%d\n", s.Description, s.Balance)
}

func (p *player) table() {
	var b strings.Builder
	for i, sec := range p.sess.Sectors() {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%s%s", sec.Label, strings.ToUpper(sec.Color.String()[:1]))
	}
	fmt.Fprintln(p.out, b.String())
}

func (p *player) stats() {
	st := p.sess.Stats()
	fmt.Fprintf(p.out, "Rounds %d (won %d, lost %d). Wagered $%s, profit $%s, RTP %s%%, biggest win $%d.\n",
		st.Rounds, st.Wins, st.Losses, st.Wagered, st.Profit, st.RTP, st.BiggestWin)
}
