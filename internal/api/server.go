package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"github.com/MJE43/roulette-spin-go/internal/logger"
	"github.com/MJE43/roulette-spin-go/internal/session"
)

// Options tune the HTTP surface.
type Options struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// Server exposes sessions over HTTP and WebSocket.
type Server struct {
	manager      *session.Manager
	opts         Options
	validate     *validator.Validate
	upgrader     websocket.Upgrader
	errorHandler *ErrorHandler
	log          *slog.Logger
	startTime    time.Time
}

// NewServer creates a new API server
func NewServer(m *session.Manager, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	log := logger.With("component", "api")
	s := &Server{
		manager:      m,
		opts:         opts,
		validate:     newValidator(m),
		errorHandler: NewErrorHandler(log),
		log:          log,
		startTime:    time.Now(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.RequestLogger)
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Engine-Version", "X-Error-Type"},
		AllowCredentials: false,
		MaxAge:           86400,
	}))

	r.Get("/health", s.handleHealthCheck)
	r.Get("/health/ready", s.handleReadiness)
	r.Get("/health/live", s.handleLiveness)
	r.Get("/version", s.handleVersion)

	timeout := middleware.Timeout(s.opts.RequestTimeout)
	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.With(timeout).Post("/", s.handleCreateSession)
		r.With(timeout).Get("/", s.handleListSessions)

		r.Route("/{id}", func(r chi.Router) {
			// Long-lived; outside the request timeout.
			r.Get("/stream", s.handleStream)

			r.Group(func(r chi.Router) {
				r.Use(timeout)
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Get("/sectors", s.handleSectors)
				r.Post("/bet/adjust", s.handleAdjustBet)
				r.Post("/bet/color", s.handleSelectColor)
				r.Post("/bet/number", s.handleSelectNumber)
				r.Post("/bet/reset", s.handleResetSelection)
				r.Post("/spin", s.handleSpin)
				r.Post("/tick", s.handleTick)
				r.Post("/reshuffle", s.handleReshuffle)
				r.Get("/stats", s.handleStats)
				r.Get("/rounds", s.handleRounds)
			})
		})
	})

	return r
}

// newValidator registers the "stake" tag: a positive multiple of the
// table's min bet, so a session can never be left with a balance too small
// to bet.
func newValidator(m *session.Manager) *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("stake", func(fl validator.FieldLevel) bool {
		if m == nil {
			return true
		}
		n := fl.Field().Int()
		step := int64(m.Table().MinBet)
		return n >= step && n%step == 0
	})
	return v
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.opts.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// decode reads a JSON body into v and validates it. It writes the error
// response itself and reports false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		s.errorHandler.HandleDecodeError(w, r, err)
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		s.errorHandler.HandleValidationError(w, r, err)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("encode response", "error", err)
	}
}
