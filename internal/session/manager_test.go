package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MJE43/roulette-spin-go/internal/engine"
	"github.com/MJE43/roulette-spin-go/internal/ledger"
	"github.com/MJE43/roulette-spin-go/internal/store"
	"github.com/MJE43/roulette-spin-go/internal/wheel"
)

type recordingPublisher struct {
	mu     sync.Mutex
	rounds []store.Round
	closed bool
}

func (p *recordingPublisher) PublishRound(_ context.Context, r store.Round) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rounds = append(p.rounds, r)
	return nil
}

func (p *recordingPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func newTestManager(t *testing.T, cfg ManagerConfig) (*Manager, store.Journal, *recordingPublisher) {
	t.Helper()
	j, err := store.NewSQLiteJournal(":memory:")
	require.NoError(t, err)
	pub := &recordingPublisher{}
	if cfg.Defaults.Ledger == (ledger.Config{}) {
		cfg.Defaults.Ledger = ledger.DefaultConfig()
	}
	m := NewManager(cfg, j, pub)
	t.Cleanup(func() { _ = m.Close() })
	return m, j, pub
}

func TestManagerCreateGetDelete(t *testing.T) {
	m, _, _ := newTestManager(t, ManagerConfig{})

	a, err := m.Create(CreateOptions{})
	require.NoError(t, err)
	b, err := m.Create(CreateOptions{StartBalance: 250})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, m.Count())
	assert.ElementsMatch(t, []string{a.ID(), b.ID()}, m.List())
	assert.Equal(t, 250, b.Snapshot().Balance)
	assert.Equal(t, 1000, a.Snapshot().Balance)

	got, err := m.Get(a.ID())
	require.NoError(t, err)
	assert.Same(t, a, got)

	require.NoError(t, m.Delete(a.ID()))
	_, err = m.Get(a.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Delete(a.ID()), ErrSessionNotFound)
}

func TestManagerSessionsAreIndependent(t *testing.T) {
	m, _, _ := newTestManager(t, ManagerConfig{})
	a, _ := m.Create(CreateOptions{Source: engine.NewSeeded(1)})
	b, _ := m.Create(CreateOptions{Source: engine.NewSeeded(1)})

	a.AdjustBet(1)
	a.SelectColor(wheel.Red)

	assert.Equal(t, 10, a.Snapshot().BetAmount)
	assert.Equal(t, 5, b.Snapshot().BetAmount)
	assert.True(t, b.Snapshot().Selection.IsNone())
}

func TestManagerMaxSessions(t *testing.T) {
	m, _, _ := newTestManager(t, ManagerConfig{MaxSessions: 1})

	_, err := m.Create(CreateOptions{})
	require.NoError(t, err)
	_, err = m.Create(CreateOptions{})
	assert.ErrorIs(t, err, ErrTooManySessions)
}

func TestManagerIdleExpiry(t *testing.T) {
	m, _, _ := newTestManager(t, ManagerConfig{
		IdleTTL:         20 * time.Millisecond,
		CleanupInterval: 5 * time.Millisecond,
	})
	s, err := m.Create(CreateOptions{})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := m.Get(s.ID())
		return errors.Is(err, ErrSessionNotFound)
	}, time.Second, 5*time.Millisecond)
}

func TestManagerRecordsSettledRounds(t *testing.T) {
	m, j, pub := newTestManager(t, ManagerConfig{})
	s, err := m.Create(CreateOptions{Source: engine.NewSeeded(12)})
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		s.SelectColor(wheel.Black)
		s.RequestSpin()
		out, err := m.SpinToRest(ctx, s.ID())
		require.NoError(t, err)
		require.NotNil(t, out)
		assert.Equal(t, i+1, out.Round)
	}

	out, err := m.SpinToRest(ctx, s.ID())
	require.NoError(t, err)
	assert.Nil(t, out, "no spin in flight")

	page, err := j.ListRounds(ctx, store.RoundsQuery{SessionID: s.ID()})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	assert.Len(t, pub.rounds, 3)
	assert.Equal(t, s.Snapshot().Balance, page.Rounds[0].BalanceAfter)
}

func TestManagerTickUnknownSession(t *testing.T) {
	m, _, _ := newTestManager(t, ManagerConfig{})
	_, err := m.Tick(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDriveEmitsSpinningFrames(t *testing.T) {
	m, _, _ := newTestManager(t, ManagerConfig{FrameInterval: time.Millisecond})
	s, err := m.Create(CreateOptions{Source: engine.NewSeeded(4)})
	require.NoError(t, err)
	s.SelectColor(wheel.Red)
	s.RequestSpin()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stop := errors.New("enough")
	var frames []Frame
	err = m.Drive(ctx, s.ID(), func(f Frame) error {
		frames = append(frames, f)
		if len(frames) == 3 {
			return stop
		}
		return nil
	})

	assert.ErrorIs(t, err, stop)
	require.Len(t, frames, 3)
	for _, f := range frames {
		assert.Equal(t, wheel.Spinning, f.State)
		assert.Nil(t, f.Outcome)
	}
	assert.Greater(t, frames[0].Velocity, frames[2].Velocity)
}

func TestDriveStopsOnCancel(t *testing.T) {
	m, _, _ := newTestManager(t, ManagerConfig{})
	s, err := m.Create(CreateOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	emitted := 0
	err = m.Drive(ctx, s.ID(), func(Frame) error {
		emitted++
		return nil
	})
	assert.NoError(t, err)
	assert.Zero(t, emitted, "frames at rest are not emitted")
}

func TestDriveUnknownSession(t *testing.T) {
	m, _, _ := newTestManager(t, ManagerConfig{})
	err := m.Drive(context.Background(), "missing", func(Frame) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerClose(t *testing.T) {
	j, err := store.NewSQLiteJournal(":memory:")
	require.NoError(t, err)
	pub := &recordingPublisher{}
	m := NewManager(ManagerConfig{}, j, pub)

	require.NoError(t, m.Close())
	assert.True(t, pub.closed)
	assert.ErrorIs(t, j.Ping(context.Background()), store.ErrJournalClosed)
}

func TestManagerRejectsStrandingStartBalance(t *testing.T) {
	m, _, _ := newTestManager(t, ManagerConfig{})

	for _, balance := range []int{3, 7, 1002, -5} {
		_, err := m.Create(CreateOptions{StartBalance: balance})
		assert.ErrorIs(t, err, ledger.ErrInvalidTable, "start balance %d", balance)
	}
	assert.Zero(t, m.Count())

	s, err := m.Create(CreateOptions{StartBalance: 10})
	require.NoError(t, err)
	snap := s.Snapshot()
	assert.Equal(t, 10, snap.Balance)
	assert.Equal(t, 5, snap.BetAmount)
}

func TestSmallBalanceKeepsBetWithinLimits(t *testing.T) {
	m, _, _ := newTestManager(t, ManagerConfig{})
	s, err := m.Create(CreateOptions{StartBalance: 10, Source: engine.NewSeeded(21)})
	require.NoError(t, err)
	ctx := context.Background()

	for round := 0; round < 200; round++ {
		s.AdjustBet(1)
		s.SelectNumber(round%36 + 1)
		snap := s.RequestSpin()
		require.True(t, s.Spinning(), "round %d: %s", round, snap.Message)

		out, err := m.SpinToRest(ctx, s.ID())
		require.NoError(t, err)
		require.NotNil(t, out)

		snap = s.Snapshot()
		if snap.GameOver {
			assert.Zero(t, snap.Balance)
			return
		}
		require.GreaterOrEqual(t, snap.BetAmount, snap.MinBet)
		require.LessOrEqual(t, snap.BetAmount, snap.Balance)
	}
}

func TestConcurrentDrivesTickOnce(t *testing.T) {
	ref := New(Options{Source: engine.NewSeeded(11)})
	ref.SelectColor(wheel.Red)
	ref.RequestSpin()
	want := 0
	for {
		want++
		if ref.Tick().Outcome != nil {
			break
		}
	}

	m, _, pub := newTestManager(t, ManagerConfig{FrameInterval: time.Millisecond})
	s, err := m.Create(CreateOptions{Source: engine.NewSeeded(11)})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	settled := errors.New("settled")
	counts := make([]int, 2)
	outcomes := make([]*Outcome, 2)
	var wg sync.WaitGroup
	for i := range counts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Drive(ctx, s.ID(), func(f Frame) error {
				counts[i]++
				if f.Outcome != nil {
					outcomes[i] = f.Outcome
					return settled
				}
				return nil
			})
		}()
	}
	require.Eventually(t, func() bool { return s.frames.subscribers() == 2 }, time.Second, time.Millisecond)
	require.True(t, s.Driven())

	s.SelectColor(wheel.Red)
	s.RequestSpin()
	_, err = m.Tick(ctx, s.ID())
	assert.ErrorIs(t, err, ErrSessionDriven)
	_, err = m.SpinToRest(ctx, s.ID())
	assert.ErrorIs(t, err, ErrSessionDriven)

	wg.Wait()
	assert.Equal(t, []int{want, want}, counts, "both watchers see every tick once")
	require.NotNil(t, outcomes[0])
	require.NotNil(t, outcomes[1])
	assert.Equal(t, outcomes[0].Result, outcomes[1].Result)
	assert.Equal(t, 1, s.Snapshot().Round)
	assert.Len(t, pub.rounds, 1)
	assert.False(t, s.Driven())
}

func TestDriveHandsOverWhenDriverLeaves(t *testing.T) {
	m, _, _ := newTestManager(t, ManagerConfig{FrameInterval: time.Millisecond})
	s, err := m.Create(CreateOptions{Source: engine.NewSeeded(5)})
	require.NoError(t, err)

	first, stopFirst := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Drive(first, s.ID(), func(Frame) error { return nil })
	}()
	require.Eventually(t, s.Driven, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	settled := errors.New("settled")
	result := make(chan error, 1)
	go func() {
		result <- m.Drive(ctx, s.ID(), func(f Frame) error {
			if f.Outcome != nil {
				return settled
			}
			return nil
		})
	}()
	require.Eventually(t, func() bool { return s.frames.subscribers() == 2 }, time.Second, time.Millisecond)

	stopFirst()
	<-done
	s.SelectColor(wheel.Black)
	s.RequestSpin()

	assert.ErrorIs(t, <-result, settled, "the remaining watcher takes over ticking")
	assert.Equal(t, 1, s.Snapshot().Round)
}
