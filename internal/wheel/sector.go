package wheel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MJE43/roulette-spin-go/internal/engine"
)

// DefaultSectorCount is the number of pockets on the wheel.
const DefaultSectorCount = 36

// Color is a sector colour. Red is the primary colour and always sits at
// index 0 of a generated table.
type Color int

const (
	Red Color = iota
	Black
)

const (
	redFill   = "#FF4136"
	blackFill = "#111111"
	darkText  = "#000000"
	lightText = "#FFFFFF"
)

func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Black:
		return "black"
	default:
		return fmt.Sprintf("color(%d)", int(c))
	}
}

// Fill returns the sector fill colour for the renderer.
func (c Color) Fill() string {
	if c == Red {
		return redFill
	}
	return blackFill
}

// Text returns the label colour with enough contrast against Fill.
func (c Color) Text() string {
	if c == Red {
		return darkText
	}
	return lightText
}

// Other returns the alternate colour.
func (c Color) Other() Color {
	if c == Red {
		return Black
	}
	return Red
}

// ParseColor accepts "red" or "black", case-insensitively.
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red":
		return Red, nil
	case "black":
		return Black, nil
	}
	return 0, fmt.Errorf("unknown color %q", s)
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Sector is one labelled pocket of the wheel.
type Sector struct {
	Color  Color  `json:"color"`
	Fill   string `json:"fill"`
	Text   string `json:"text"`
	Label  string `json:"label"`
	Number int    `json:"number"`
}

// Generate builds count sectors numbered 1..count in a uniformly shuffled
// order with colours alternating from Red at index 0.
func Generate(count int, src engine.Source) []Sector {
	if count <= 0 {
		return nil
	}

	numbers := make([]int, count)
	for i := range numbers {
		numbers[i] = i + 1
	}
	Shuffle(numbers, src)

	sectors := make([]Sector, count)
	color := Red
	for i, n := range numbers {
		sectors[i] = Sector{
			Color:  color,
			Fill:   color.Fill(),
			Text:   color.Text(),
			Label:  strconv.Itoa(n),
			Number: n,
		}
		color = color.Other()
	}
	return sectors
}

// Shuffle is an in-place Fisher-Yates shuffle driven by src.
func Shuffle(a []int, src engine.Source) {
	for i := len(a) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		a[i], a[j] = a[j], a[i]
	}
}
