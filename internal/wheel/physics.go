package wheel

import (
	"math"

	"github.com/MJE43/roulette-spin-go/internal/engine"
)

// Tau is one full turn in radians.
const Tau = 2 * math.Pi

const (
	// Friction is the per-frame velocity decay at ReferenceFPS.
	Friction = 0.991
	// StopThreshold snaps velocity to zero so the spin-down terminates.
	StopThreshold   = 0.002
	MinSpinVelocity = 0.25
	MaxSpinVelocity = 0.45
	// ReferenceFPS is the frame rate the constants above are tuned for.
	ReferenceFPS = 60
)

// State of the wheel.
type State int

const (
	AtRest State = iota
	Spinning
)

func (s State) String() string {
	if s == Spinning {
		return "spinning"
	}
	return "at_rest"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Physics owns the angular position and velocity of the wheel.
type Physics struct {
	angle    float64
	velocity float64
	count    int

	// scale converts one tick at the configured frame rate into
	// ReferenceFPS frames so a spin lasts the same wall time.
	scale    float64
	friction float64
}

// NewPhysics returns a wheel at rest at angle 0. fps <= 0 means ReferenceFPS.
func NewPhysics(count, fps int) *Physics {
	if fps <= 0 {
		fps = ReferenceFPS
	}
	scale := float64(ReferenceFPS) / float64(fps)
	friction := Friction
	if scale != 1 {
		friction = math.Pow(Friction, scale)
	}
	return &Physics{count: count, scale: scale, friction: friction}
}

func (p *Physics) Angle() float64    { return p.angle }
func (p *Physics) Velocity() float64 { return p.velocity }
func (p *Physics) Count() int        { return p.count }

func (p *Physics) State() State {
	if p.velocity > 0 {
		return Spinning
	}
	return AtRest
}

// Spin kicks the wheel with a velocity drawn uniformly from
// [MinSpinVelocity, MaxSpinVelocity]. It reports false if the wheel is
// already spinning.
func (p *Physics) Spin(src engine.Source) bool {
	if p.State() == Spinning {
		return false
	}
	p.velocity = MinSpinVelocity + src.Float64()*(MaxSpinVelocity-MinSpinVelocity)
	return true
}

// Tick advances one frame. When the velocity reaches zero on this tick it
// returns the terminal sector index and stopped == true. Ticking a wheel at
// rest changes nothing.
func (p *Physics) Tick() (index int, stopped bool) {
	if p.State() == AtRest {
		return p.Pointer(), false
	}

	p.velocity *= p.friction
	if p.velocity < StopThreshold {
		p.velocity = 0
	}
	p.angle = wrap(p.angle + p.velocity*p.scale)

	if p.velocity == 0 {
		return p.Pointer(), true
	}
	return p.Pointer(), false
}

// Pointer returns the index of the sector under the fixed pointer.
func (p *Physics) Pointer() int {
	return Index(p.angle, p.count)
}

// Index maps an angle in [0, 2π) to the sector under the pointer:
// floor(count - angle/2π*count) mod count.
func Index(angle float64, count int) int {
	if count <= 0 {
		return 0
	}
	n := float64(count)
	idx := int(math.Floor(n-(angle/Tau)*n)) % count
	if idx < 0 {
		idx += count
	}
	return idx
}

func wrap(angle float64) float64 {
	angle = math.Mod(angle, Tau)
	if angle < 0 {
		angle += Tau
	}
	return angle
}
