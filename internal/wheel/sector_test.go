package wheel

import (
	"testing"

	"github.com/MJE43/roulette-spin-go/internal/engine"
)

func TestGeneratePermutation(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		sectors := Generate(DefaultSectorCount, engine.NewSeeded(seed))
		if len(sectors) != DefaultSectorCount {
			t.Fatalf("seed %d: got %d sectors", seed, len(sectors))
		}

		seen := make(map[int]bool)
		for _, s := range sectors {
			if s.Number < 1 || s.Number > DefaultSectorCount {
				t.Fatalf("seed %d: number %d out of range", seed, s.Number)
			}
			if seen[s.Number] {
				t.Fatalf("seed %d: number %d repeated", seed, s.Number)
			}
			seen[s.Number] = true
		}
	}
}

func TestGenerateAlternatingColors(t *testing.T) {
	sectors := Generate(DefaultSectorCount, engine.NewSeeded(7))
	if sectors[0].Color != Red {
		t.Errorf("sector 0 should be red, got %s", sectors[0].Color)
	}
	for i := range sectors {
		next := sectors[(i+1)%len(sectors)]
		if sectors[i].Color == next.Color {
			t.Errorf("sectors %d and %d share color %s", i, (i+1)%len(sectors), next.Color)
		}
	}
}

func TestGenerateTextContrast(t *testing.T) {
	for _, s := range Generate(DefaultSectorCount, engine.NewSeeded(1)) {
		switch s.Color {
		case Red:
			if s.Text != "#000000" || s.Fill != "#FF4136" {
				t.Errorf("red sector %s has fill %s text %s", s.Label, s.Fill, s.Text)
			}
		case Black:
			if s.Text != "#FFFFFF" || s.Fill != "#111111" {
				t.Errorf("black sector %s has fill %s text %s", s.Label, s.Fill, s.Text)
			}
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a := Generate(DefaultSectorCount, engine.NewSeeded(11))
	b := Generate(DefaultSectorCount, engine.NewSeeded(11))
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sector %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}

	fa := Generate(DefaultSectorCount, engine.NewByteGenerator("server", "client", 0, 0))
	fb := Generate(DefaultSectorCount, engine.NewByteGenerator("server", "client", 0, 0))
	for i := range fa {
		if fa[i] != fb[i] {
			t.Fatalf("fair sector %d differs", i)
		}
	}
}

func TestGenerateEmpty(t *testing.T) {
	if got := Generate(0, engine.NewSeeded(1)); got != nil {
		t.Errorf("expected nil table, got %d sectors", len(got))
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"red", Red, false},
		{"BLACK", Black, false},
		{" Red ", Red, false},
		{"green", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColor(%q) err = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseColor(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
