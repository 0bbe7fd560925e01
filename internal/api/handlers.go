package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/roulette-spin-go/internal/engine"
	"github.com/MJE43/roulette-spin-go/internal/session"
	"github.com/MJE43/roulette-spin-go/internal/store"
	"github.com/MJE43/roulette-spin-go/internal/wheel"
)

func sessionIDParam(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// lookup resolves the {id} session or writes a 404 envelope.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.manager.Get(sessionIDParam(r))
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if r.ContentLength != 0 {
		if !s.decode(w, r, &req) {
			return
		}
	}

	opts := session.CreateOptions{StartBalance: req.StartBalance}
	if req.ServerSeed != "" {
		opts.Seeds = &engine.Seeds{
			Server: req.ServerSeed,
			Client: req.ClientSeed,
			Nonce:  req.Nonce,
		}
	}

	sess, err := s.manager.Create(opts)
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids := s.manager.List()
	s.writeJSON(w, http.StatusOK, SessionListResponse{Sessions: ids, Count: len(ids)})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Delete(sessionIDParam(r)); err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusNotFound)
		return
	}
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSectors(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, SectorsResponse{Sectors: sess.Sectors()})
}

// Rejected intents answer 200; the snapshot message carries the reason.

func (s *Server) handleAdjustBet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req AdjustBetRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.writeJSON(w, http.StatusOK, sess.AdjustBet(req.Direction))
}

func (s *Server) handleSelectColor(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req ColorBetRequest
	if !s.decode(w, r, &req) {
		return
	}
	c, err := wheel.ParseColor(req.Color)
	if err != nil {
		s.errorHandler.HandleValidationError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.SelectColor(c))
}

func (s *Server) handleSelectNumber(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req NumberBetRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.writeJSON(w, http.StatusOK, sess.SelectNumber(req.Number))
}

func (s *Server) handleResetSelection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, sess.ResetSelection())
}

func (s *Server) handleSpin(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	snap := sess.RequestSpin()
	if sess.Spinning() {
		s.log.Debug("spin started",
			"session", sess.ID(),
			"request_id", middleware.GetReqID(r.Context()),
			"bet", snap.BetAmount,
		)
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	frame, err := s.manager.Tick(r.Context(), sessionIDParam(r))
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}
	resp := TickResponse{Frame: frame}
	if frame.Outcome != nil {
		resp.Snapshot = frame.Outcome.Snapshot
	} else if sess, err := s.manager.Get(sessionIDParam(r)); err == nil {
		resp.Snapshot = sess.Snapshot()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReshuffle(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Reshuffle())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Stats())
}

func (s *Server) handleRounds(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.lookup(w, r); !ok {
		return
	}
	journal := s.manager.Journal()
	if journal == nil {
		engineErr := NewError(ErrTypeServiceUnavailable, "Round journal is disabled").
			WithRequestID(middleware.GetReqID(r.Context())).
			Build()
		s.errorHandler.HandleError(w, r, engineErr, http.StatusServiceUnavailable)
		return
	}

	q := store.RoundsQuery{SessionID: sessionIDParam(r)}
	var err error
	if q.Page, err = intQuery(r, "page"); err != nil {
		s.errorHandler.HandleValidationError(w, r, err)
		return
	}
	if q.PerPage, err = intQuery(r, "per_page"); err != nil {
		s.errorHandler.HandleValidationError(w, r, err)
		return
	}

	page, err := journal.ListRounds(r.Context(), q)
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, RoundsResponse{RoundsPage: page, EngineVersion: EngineVersion})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, GetVersionInfo())
}

func intQuery(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, NewError(ErrTypeInvalidParams, "query parameter "+key+" must be an integer").Build()
	}
	return n, nil
}
