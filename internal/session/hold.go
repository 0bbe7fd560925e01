package session

import (
	"context"
	"sync"
	"time"
)

// Default press-and-hold timings.
const (
	DefaultHoldDelay      = 200 * time.Millisecond
	DefaultRepeatInterval = 100 * time.Millisecond
)

// HoldRepeater turns a held bet button into repeated AdjustBet calls. It
// owns the cancellation of the repeat; the session only ever sees discrete
// adjustments.
//
// Press starts the hold. After the hold delay an adjustment fires every
// repeat interval until Release, Leave or ctx cancellation. Release always
// adds one final adjustment, so a quick tap adjusts exactly once; Leave
// adds none.
type HoldRepeater struct {
	adjust   func(dir int)
	delay    time.Duration
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	dir    int
}

// NewHoldRepeater returns a repeater calling adjust. Zero durations use the
// defaults.
func NewHoldRepeater(adjust func(dir int), delay, interval time.Duration) *HoldRepeater {
	if delay <= 0 {
		delay = DefaultHoldDelay
	}
	if interval <= 0 {
		interval = DefaultRepeatInterval
	}
	return &HoldRepeater{adjust: adjust, delay: delay, interval: interval}
}

// Press begins holding the button in direction dir (+1 or -1). A press
// while another hold is active cancels the earlier one without adjusting.
func (h *HoldRepeater) Press(ctx context.Context, dir int) {
	h.stop()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	h.mu.Lock()
	h.cancel = cancel
	h.done = done
	h.dir = dir
	h.mu.Unlock()

	go h.run(ctx, dir, done)
}

func (h *HoldRepeater) run(ctx context.Context, dir int, done chan struct{}) {
	defer close(done)

	delay := time.NewTimer(h.delay)
	defer delay.Stop()
	select {
	case <-ctx.Done():
		return
	case <-delay.C:
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.adjust(dir)
		}
	}
}

// Release ends the hold with one more adjustment.
func (h *HoldRepeater) Release() {
	if dir, ok := h.stop(); ok {
		h.adjust(dir)
	}
}

// Leave ends the hold without a final adjustment, as when the pointer
// leaves the button.
func (h *HoldRepeater) Leave() {
	h.stop()
}

// Active reports whether a hold is in progress.
func (h *HoldRepeater) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancel != nil
}

// stop cancels the running hold and waits for its goroutine to exit.
func (h *HoldRepeater) stop() (dir int, ok bool) {
	h.mu.Lock()
	cancel, done := h.cancel, h.done
	dir = h.dir
	h.cancel, h.done = nil, nil
	h.mu.Unlock()

	if cancel == nil {
		return 0, false
	}
	cancel()
	<-done
	return dir, true
}
