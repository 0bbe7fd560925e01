package strategy

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/MJE43/roulette-spin-go/internal/ledger"
	"github.com/MJE43/roulette-spin-go/internal/wheel"
)

// Script is a Strategy backed by a JavaScript program. The program body runs
// once before the first round, with the session variables already set, and
// chooses the first bet; dobet() runs after every round and updates
// nextbet, betcolor or betnumber. Setting betnumber to a value from 1 to 36
// bets on that number, otherwise betcolor is used.
//
//	basebet = minbet
//	nextbet = basebet
//	betcolor = RED
//	dobet = function() {
//	  nextbet = win ? basebet : previousbet * 2
//	}
type Script struct {
	source  string
	vm      *VM
	vars    Variables
	started bool
}

// NewScript checks the source for syntax errors. The body runs on the first
// call to Next.
func NewScript(source string) (*Script, error) {
	if _, err := goja.Compile("strategy", source, false); err != nil {
		return nil, fmt.Errorf("script compile error: %w", err)
	}
	return &Script{
		source: source,
		vm:     NewVM(),
		vars:   Variables{BetColor: wheel.Red.String()},
	}, nil
}

func (s *Script) Name() string { return "script" }

// Logs returns the messages the script logged.
func (s *Script) Logs() []LogEntry { return s.vm.Logs() }

func (s *Script) Next(st State) (Decision, error) {
	s.refresh(st)

	s.vm.SetVariables(&s.vars)
	if s.started {
		if err := s.vm.CallDobet(); err != nil {
			return Decision{}, err
		}
	} else {
		if err := s.vm.Execute(s.source); err != nil {
			return Decision{}, err
		}
		if !s.vm.HasDobet() {
			return Decision{}, fmt.Errorf("script must define a dobet() function")
		}
		s.started = true
	}
	s.vm.SyncVariables(&s.vars)

	if s.vm.StopRequested() {
		return Decision{Stop: true}, nil
	}
	return s.decision()
}

func (s *Script) refresh(st State) {
	v := &s.vars
	v.Balance = st.Balance
	v.MinBet = st.MinBet
	v.Increment = st.Increment
	v.Rounds = st.Rounds
	v.Wins = st.Wins
	v.Losses = st.Losses
	v.Profit = st.Profit
	if v.BaseBet <= 0 {
		v.BaseBet = st.MinBet
	}
	if v.NextBet <= 0 {
		v.NextBet = st.Bet
	}

	last := st.Last
	if last == nil {
		return
	}
	v.Win = last.Win
	v.PreviousBet = last.Bet
	v.LastNumber = last.Number
	v.LastColor = last.Color.String()
	if last.Win {
		v.WinStreak++
		v.LoseStreak = 0
	} else {
		v.LoseStreak++
		v.WinStreak = 0
	}
}

func (s *Script) decision() (Decision, error) {
	v := s.vars
	if v.NextBet <= 0 {
		return Decision{}, fmt.Errorf("nextbet must be > 0, got %d", v.NextBet)
	}
	d := Decision{Amount: v.NextBet}

	if v.BetNumber >= 1 && v.BetNumber <= wheel.DefaultSectorCount {
		d.Selection = ledger.OnNumber(v.BetNumber)
		return d, nil
	}
	c, err := wheel.ParseColor(v.BetColor)
	if err != nil {
		return Decision{}, fmt.Errorf("betcolor: %w", err)
	}
	d.Selection = ledger.OnColor(c)
	return d, nil
}
