package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/MJE43/roulette-spin-go/internal/wheel"
)

// Kind tags the active bet selection.
type Kind int

const (
	None Kind = iota
	ColorBet
	NumberBet
)

func (k Kind) String() string {
	switch k {
	case ColorBet:
		return "color"
	case NumberBet:
		return "number"
	default:
		return "none"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Selection is None, Color(c) or Number(n). Only the field matching Kind is
// meaningful.
type Selection struct {
	Kind   Kind
	Color  wheel.Color
	Number int
}

type selectionJSON struct {
	Kind   Kind         `json:"kind"`
	Color  *wheel.Color `json:"color,omitempty"`
	Number int          `json:"number,omitempty"`
}

// MarshalJSON emits only the field that matches Kind.
func (s Selection) MarshalJSON() ([]byte, error) {
	out := selectionJSON{Kind: s.Kind}
	switch s.Kind {
	case ColorBet:
		c := s.Color
		out.Color = &c
	case NumberBet:
		out.Number = s.Number
	}
	return json.Marshal(out)
}

// OnColor returns a colour selection.
func OnColor(c wheel.Color) Selection {
	return Selection{Kind: ColorBet, Color: c}
}

// OnNumber returns a straight-up number selection.
func OnNumber(n int) Selection {
	return Selection{Kind: NumberBet, Number: n}
}

func (s Selection) IsNone() bool { return s.Kind == None }

// Describe renders the selection the way the bet panel shows it.
func (s Selection) Describe() string {
	switch s.Kind {
	case ColorBet:
		return "Betting on " + s.Color.String()
	case NumberBet:
		return fmt.Sprintf("Betting on number %d", s.Number)
	default:
		return "No bet selected"
	}
}
