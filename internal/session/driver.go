package session

import (
	"context"
	"time"
)

// Drive ticks the session every FrameInterval until ctx is done or emit
// fails. emit sees every frame while the wheel spins, including the final
// frame carrying the outcome; frames at rest are not emitted.
//
// Any number of Drive calls may watch one session, but only one of them
// ticks it; the rest receive the same frames. When the ticking call
// returns, the next watcher to see its ticker fire takes over.
func (m *Manager) Drive(ctx context.Context, id string, emit func(Frame) error) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	sub := s.frames.subscribe()
	defer s.frames.unsubscribe(sub)

	ticker := time.NewTicker(m.FrameInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case f := <-sub.frames:
			if err := emit(f); err != nil {
				return err
			}
		case <-ticker.C:
			// Keeps the idle deadline sliding and notices deletion.
			if _, err := m.Get(id); err != nil {
				return err
			}
			if !s.frames.claim(sub) || !s.Spinning() {
				continue
			}
			m.tick(ctx, s)
		}
	}
}

// SpinToRest ticks synchronously until the running spin settles and returns
// the outcome. It returns nil when the wheel was already at rest, and
// ErrSessionDriven when a Drive call owns the frame loop.
func (m *Manager) SpinToRest(ctx context.Context, id string) (*Outcome, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.Driven() {
			return nil, ErrSessionDriven
		}
		if !s.Spinning() {
			return nil, nil
		}
		if frame := m.tick(ctx, s); frame.Outcome != nil {
			return frame.Outcome, nil
		}
	}
}
