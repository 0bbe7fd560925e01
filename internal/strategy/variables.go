package strategy

import (
	"strings"

	"github.com/dop251/goja"

	"github.com/MJE43/roulette-spin-go/internal/wheel"
)

// Variables is the state shared with a strategy script. Scripts may write
// nextbet, betcolor and betnumber; everything else is refreshed before each
// dobet() call.
type Variables struct {
	Balance     int    `json:"balance"`
	NextBet     int    `json:"nextbet"`
	BaseBet     int    `json:"basebet"`
	PreviousBet int    `json:"previousbet"`
	MinBet      int    `json:"minbet"`
	Increment   int    `json:"increment"`
	Win         bool   `json:"win"`
	BetColor    string `json:"betcolor"`
	BetNumber   int    `json:"betnumber"`
	LastNumber  int    `json:"lastnumber"`
	LastColor   string `json:"lastcolor"`
	Rounds      int    `json:"rounds"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	Profit      int    `json:"profit"`
	WinStreak   int    `json:"winstreak"`
	LoseStreak  int    `json:"losestreak"`
}

func injectConstants(vm *goja.Runtime) {
	vm.Set("RED", wheel.Red.String())
	vm.Set("BLACK", wheel.Black.String())
}

func injectVariables(vm *goja.Runtime, vars *Variables) {
	vm.Set("balance", vars.Balance)
	vm.Set("nextbet", vars.NextBet)
	vm.Set("basebet", vars.BaseBet)
	vm.Set("previousbet", vars.PreviousBet)
	vm.Set("minbet", vars.MinBet)
	vm.Set("increment", vars.Increment)
	vm.Set("win", vars.Win)
	vm.Set("betcolor", vars.BetColor)
	vm.Set("betnumber", vars.BetNumber)
	vm.Set("lastnumber", vars.LastNumber)
	vm.Set("lastcolor", vars.LastColor)
	vm.Set("rounds", vars.Rounds)
	vm.Set("bets", vars.Rounds)
	vm.Set("wins", vars.Wins)
	vm.Set("losses", vars.Losses)
	vm.Set("profit", vars.Profit)
	vm.Set("winstreak", vars.WinStreak)
	vm.Set("losestreak", vars.LoseStreak)
}

func syncFromVM(vm *goja.Runtime, vars *Variables) {
	vars.NextBet = toInt(vm.Get("nextbet"))
	vars.BaseBet = toInt(vm.Get("basebet"))
	vars.BetColor = strings.ToLower(toString(vm.Get("betcolor")))
	vars.BetNumber = toInt(vm.Get("betnumber"))
}

func isUndefinedOrNull(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}

func toInt(v goja.Value) int {
	if isUndefinedOrNull(v) {
		return 0
	}
	return int(v.ToInteger())
}

func toString(v goja.Value) string {
	if isUndefinedOrNull(v) {
		return ""
	}
	return v.String()
}
