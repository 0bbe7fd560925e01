package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type adjustCounter struct {
	mu    sync.Mutex
	calls []int
}

func (c *adjustCounter) adjust(dir int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, dir)
}

func (c *adjustCounter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func TestHoldTapAdjustsOnce(t *testing.T) {
	c := &adjustCounter{}
	h := NewHoldRepeater(c.adjust, time.Hour, time.Hour)

	h.Press(context.Background(), 1)
	assert.True(t, h.Active())
	h.Release()

	assert.False(t, h.Active())
	assert.Equal(t, []int{1}, c.calls)
}

func TestHoldRepeats(t *testing.T) {
	c := &adjustCounter{}
	h := NewHoldRepeater(c.adjust, 5*time.Millisecond, 5*time.Millisecond)

	h.Press(context.Background(), -1)
	assert.Eventually(t, func() bool { return c.count() >= 3 }, 2*time.Second, time.Millisecond)
	h.Release()

	n := c.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, c.count(), "no adjustment after release")
	for _, d := range c.calls {
		assert.Equal(t, -1, d)
	}
}

func TestHoldReleaseAfterRepeatAddsOne(t *testing.T) {
	c := &adjustCounter{}
	h := NewHoldRepeater(c.adjust, time.Millisecond, 50*time.Millisecond)

	h.Press(context.Background(), 1)
	assert.Eventually(t, func() bool { return c.count() == 1 }, 2*time.Second, time.Millisecond)
	h.Release()

	assert.Equal(t, []int{1, 1}, c.calls, "one repeat plus the release")
}

func TestHoldLeaveDoesNotAdjust(t *testing.T) {
	c := &adjustCounter{}
	h := NewHoldRepeater(c.adjust, time.Hour, time.Hour)

	h.Press(context.Background(), 1)
	h.Leave()
	h.Release()

	assert.Zero(t, c.count())
}

func TestHoldContextCancel(t *testing.T) {
	c := &adjustCounter{}
	h := NewHoldRepeater(c.adjust, 5*time.Millisecond, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	h.Press(ctx, 1)
	cancel()
	time.Sleep(30 * time.Millisecond)

	assert.Zero(t, c.count())
}

func TestHoldDrivesSession(t *testing.T) {
	s := newTestSession(t, 1)
	h := NewHoldRepeater(func(dir int) { s.AdjustBet(dir) }, 5*time.Millisecond, 5*time.Millisecond)

	h.Press(context.Background(), 1)
	assert.Eventually(t, func() bool { return s.Snapshot().BetAmount >= 25 }, 2*time.Second, time.Millisecond)
	h.Leave()

	bet := s.Snapshot().BetAmount
	assert.Zero(t, bet%5)
}
