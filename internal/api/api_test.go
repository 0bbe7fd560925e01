package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MJE43/roulette-spin-go/internal/ledger"
	"github.com/MJE43/roulette-spin-go/internal/session"
	"github.com/MJE43/roulette-spin-go/internal/store"
	"github.com/MJE43/roulette-spin-go/internal/wheel"
)

func newTestServer(t *testing.T, journal store.Journal) (*Server, *session.Manager) {
	t.Helper()
	m := session.NewManager(session.ManagerConfig{
		Defaults:      session.Options{Ledger: ledger.DefaultConfig()},
		FrameInterval: time.Millisecond,
	}, journal, nil)
	t.Cleanup(func() { _ = m.Close() })
	return NewServer(m, Options{}), m
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func createSession(t *testing.T, h http.Handler, req any) session.Snapshot {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/v1/sessions", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[session.Snapshot](t, w)
}

func TestHealthEndpoints(t *testing.T) {
	j, err := store.NewSQLiteJournal(":memory:")
	require.NoError(t, err)
	s, _ := newTestServer(t, j)
	h := s.Routes()

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		w := do(t, h, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, EngineVersion, w.Header().Get("X-Engine-Version"), path)
	}

	resp := decodeBody[HealthCheckResponse](t, do(t, h, http.MethodGet, "/health", nil))
	assert.Equal(t, HealthStatusHealthy, resp.Status)
	assert.Contains(t, resp.Checks, "journal")
}

func TestHealthDegradedWithoutJournal(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := do(t, s.Routes(), http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[HealthCheckResponse](t, w)
	assert.Equal(t, HealthStatusDegraded, resp.Status)
}

func TestVersionEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := do(t, s.Routes(), http.MethodGet, "/version", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, GetVersionInfo(), decodeBody[VersionInfo](t, w))
}

func TestCreateAndGetSession(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Routes()

	snap := createSession(t, h, CreateSessionRequest{StartBalance: 500})
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, 500, snap.Balance)
	assert.Equal(t, "SPIN", snap.Indicator)

	w := do(t, h, http.MethodGet, "/api/v1/sessions/"+snap.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, snap.ID, decodeBody[session.Snapshot](t, w).ID)

	list := decodeBody[SessionListResponse](t, do(t, h, http.MethodGet, "/api/v1/sessions", nil))
	assert.Equal(t, []string{snap.ID}, list.Sessions)

	sectors := decodeBody[SectorsResponse](t, do(t, h, http.MethodGet, "/api/v1/sessions/"+snap.ID+"/sectors", nil))
	assert.Len(t, sectors.Sectors, 36)

	w = do(t, h, http.MethodDelete, "/api/v1/sessions/"+snap.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, http.MethodGet, "/api/v1/sessions/"+snap.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateFairSession(t *testing.T) {
	s, _ := newTestServer(t, nil)
	snap := createSession(t, s.Routes(), CreateSessionRequest{
		ServerSeed: "server", ClientSeed: "client", Nonce: 9,
	})
	require.NotNil(t, snap.Fairness)
	assert.Equal(t, uint64(9), snap.Fairness.Nonce)
	assert.Equal(t, "client", snap.Fairness.ClientSeed)
	assert.Len(t, snap.Fairness.ServerSeedHash, 64)
}

func TestCreateSessionValidation(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Routes()

	w := do(t, h, http.MethodPost, "/api/v1/sessions", CreateSessionRequest{ClientSeed: "only-client"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	e := decodeBody[EngineError](t, w)
	assert.Equal(t, ErrTypeValidation, e.Type)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrTypeInvalidJSON, decodeBody[EngineError](t, rec).Type)
}

func TestCreateSessionRejectsStrandingBalance(t *testing.T) {
	s, m := newTestServer(t, nil)
	h := s.Routes()

	for _, balance := range []int{3, 7, 1002} {
		w := do(t, h, http.MethodPost, "/api/v1/sessions", CreateSessionRequest{StartBalance: balance})
		require.Equal(t, http.StatusBadRequest, w.Code, "start balance %d", balance)
		e := decodeBody[EngineError](t, w)
		assert.Equal(t, ErrTypeValidation, e.Type)
		assert.Contains(t, e.Message, "multiple of the minimum bet")
	}
	assert.Zero(t, m.Count())

	snap := createSession(t, h, CreateSessionRequest{StartBalance: 10})
	assert.Equal(t, 10, snap.Balance)
	assert.LessOrEqual(t, snap.BetAmount, snap.Balance)
}

func TestInvalidTableIsBadRequest(t *testing.T) {
	eh := NewErrorHandler(slog.Default())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)

	_, err := session.NewManager(session.ManagerConfig{}, nil, nil).Create(session.CreateOptions{StartBalance: 7})
	require.ErrorIs(t, err, ledger.ErrInvalidTable)
	eh.HandleError(w, req, err, http.StatusInternalServerError)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrTypeValidation, decodeBody[EngineError](t, w).Type)
}

func TestUnknownSession(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := do(t, s.Routes(), http.MethodPost, "/api/v1/sessions/missing/spin", nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	e := decodeBody[EngineError](t, w)
	assert.Equal(t, ErrTypeSessionNotFound, e.Type)
	assert.Equal(t, "missing", e.Context["session_id"])
	assert.Equal(t, ErrTypeSessionNotFound, w.Header().Get("X-Error-Type"))

	w = do(t, s.Routes(), http.MethodDelete, "/api/v1/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBetIntents(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Routes()
	base := "/api/v1/sessions/" + createSession(t, h, nil).ID

	snap := decodeBody[session.Snapshot](t, do(t, h, http.MethodPost, base+"/bet/adjust", AdjustBetRequest{Direction: 1}))
	assert.Equal(t, 10, snap.BetAmount)

	snap = decodeBody[session.Snapshot](t, do(t, h, http.MethodPost, base+"/bet/color", ColorBetRequest{Color: "black"}))
	assert.Equal(t, ledger.ColorBet, snap.Selection.Kind)
	assert.Equal(t, "Betting on black, Bet: $10", snap.Description)
	assert.True(t, snap.SpinEnabled)

	snap = decodeBody[session.Snapshot](t, do(t, h, http.MethodPost, base+"/bet/number", NumberBetRequest{Number: 36}))
	assert.Equal(t, ledger.NumberBet, snap.Selection.Kind)
	assert.Equal(t, 36, snap.Selection.Number)

	snap = decodeBody[session.Snapshot](t, do(t, h, http.MethodPost, base+"/bet/reset", nil))
	assert.True(t, snap.Selection.IsNone())

	w := do(t, h, http.MethodPost, base+"/bet/number", NumberBetRequest{Number: 37})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, h, http.MethodPost, base+"/bet/adjust", AdjustBetRequest{Direction: 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, h, http.MethodPost, base+"/bet/color", ColorBetRequest{Color: "green"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRejectedSpinIsNotAnError(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Routes()
	base := "/api/v1/sessions/" + createSession(t, h, nil).ID

	w := do(t, h, http.MethodPost, base+"/spin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeBody[session.Snapshot](t, w)
	assert.Equal(t, string(ledger.RejectNoSelection), snap.Message)
	assert.Equal(t, wheel.AtRest, snap.State)
}

func TestSpinTickSettleAndRounds(t *testing.T) {
	j, err := store.NewSQLiteJournal(":memory:")
	require.NoError(t, err)
	s, _ := newTestServer(t, j)
	h := s.Routes()
	base := "/api/v1/sessions/" + createSession(t, h, nil).ID

	do(t, h, http.MethodPost, base+"/bet/color", ColorBetRequest{Color: "red"})
	snap := decodeBody[session.Snapshot](t, do(t, h, http.MethodPost, base+"/spin", nil))
	require.Equal(t, "Good luck!", snap.Message)
	require.True(t, snap.BetPlaced)

	// Intents are locked while spinning.
	locked := decodeBody[session.Snapshot](t, do(t, h, http.MethodPost, base+"/bet/adjust", AdjustBetRequest{Direction: 1}))
	assert.Equal(t, 5, locked.BetAmount)

	var outcome *session.Outcome
	for i := 0; i < 20000 && outcome == nil; i++ {
		w := do(t, h, http.MethodPost, base+"/tick", nil)
		require.Equal(t, http.StatusOK, w.Code)
		outcome = decodeBody[TickResponse](t, w).Frame.Outcome
	}
	require.NotNil(t, outcome, "wheel never stopped")
	assert.Equal(t, 1, outcome.Round)

	stats := decodeBody[session.StatsSnapshot](t, do(t, h, http.MethodGet, base+"/stats", nil))
	assert.Equal(t, 1, stats.Rounds)

	w := do(t, h, http.MethodGet, base+"/rounds?page=1&per_page=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rounds := decodeBody[RoundsResponse](t, w)
	require.Len(t, rounds.Rounds, 1)
	assert.Equal(t, outcome.Result.Sector.Number, rounds.Rounds[0].Number)

	w = do(t, h, http.MethodGet, base+"/rounds?page=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoundsWithoutJournal(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Routes()
	base := "/api/v1/sessions/" + createSession(t, h, nil).ID

	w := do(t, h, http.MethodGet, base+"/rounds", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, ErrTypeServiceUnavailable, decodeBody[EngineError](t, w).Type)
}

func TestRecoveryHandler(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.errorHandler.RecoveryHandler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, ErrTypeInternal, decodeBody[EngineError](t, w).Type)
}

func TestStream(t *testing.T) {
	s, m := newTestServer(t, nil)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	snap := createSession(t, s.Routes(), nil)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/" + snap.ID + "/stream"

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(30*time.Second)))

	var msg StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, StreamSnapshot, msg.Type)
	assert.Equal(t, snap.ID, msg.Snapshot.ID)

	sess, err := m.Get(snap.ID)
	require.NoError(t, err)
	require.Eventually(t, sess.Driven, 5*time.Second, time.Millisecond)
	w := do(t, s.Routes(), http.MethodPost, "/api/v1/sessions/"+snap.ID+"/tick", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "manual ticks are refused while the stream drives")
	assert.Equal(t, ErrTypeSessionDriven, decodeBody[EngineError](t, w).Type)

	require.NoError(t, conn.WriteJSON(StreamIntent{Intent: "adjust"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, StreamError, msg.Type)

	require.NoError(t, conn.WriteJSON(StreamIntent{Intent: "color", Color: "red"}))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, StreamSnapshot, msg.Type)
	assert.True(t, msg.Snapshot.SpinEnabled)

	require.NoError(t, conn.WriteJSON(StreamIntent{Intent: "spin"}))

	frames := 0
	for {
		msg = StreamMessage{}
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type != StreamFrame {
			continue
		}
		frames++
		if msg.Frame.Outcome != nil {
			break
		}
	}
	assert.Greater(t, frames, 1)
	assert.Equal(t, 1, msg.Frame.Outcome.Round)
	assert.False(t, msg.Frame.Outcome.Snapshot.BetPlaced)
}

func TestStreamUnknownSession(t *testing.T) {
	s, _ := newTestServer(t, nil)
	srv := httptest.NewServer(s.Routes())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/nope/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
