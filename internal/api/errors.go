package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/MJE43/roulette-spin-go/internal/ledger"
	"github.com/MJE43/roulette-spin-go/internal/session"
)

// ErrorBuilder helps construct structured errors with context
type ErrorBuilder struct {
	errType   string
	message   string
	context   map[string]interface{}
	requestID string
}

// NewError creates a new error builder
func NewError(errType, message string) *ErrorBuilder {
	return &ErrorBuilder{
		errType: errType,
		message: message,
		context: make(map[string]interface{}),
	}
}

func (eb *ErrorBuilder) WithContext(key string, value interface{}) *ErrorBuilder {
	eb.context[key] = value
	return eb
}

func (eb *ErrorBuilder) WithRequestID(requestID string) *ErrorBuilder {
	eb.requestID = requestID
	return eb
}

// WithCause records err's text under "cause".
func (eb *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	if err != nil {
		eb.context["cause"] = err.Error()
	}
	return eb
}

// Build creates the final EngineError
func (eb *ErrorBuilder) Build() EngineError {
	return EngineError{
		Type:      eb.errType,
		Message:   eb.message,
		Context:   eb.context,
		RequestID: eb.requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ErrorHandler writes error envelopes and logs them.
type ErrorHandler struct {
	log *slog.Logger
}

func NewErrorHandler(log *slog.Logger) *ErrorHandler {
	return &ErrorHandler{log: log}
}

// HandleError maps err onto an envelope. Session sentinels get their own
// status; anything else uses defaultStatus.
func (eh *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error, defaultStatus int) {
	requestID := middleware.GetReqID(r.Context())

	var engineErr EngineError
	if errors.As(err, &engineErr) {
		eh.respond(w, r, defaultStatus, engineErr)
		return
	}

	status := defaultStatus
	b := NewError(ErrTypeInternal, err.Error())
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		status = http.StatusNotFound
		b = NewError(ErrTypeSessionNotFound, "Session not found")
		if id := sessionIDParam(r); id != "" {
			b.WithContext("session_id", id)
		}
	case errors.Is(err, session.ErrTooManySessions):
		status = http.StatusTooManyRequests
		b = NewError(ErrTypeSessionLimit, "Session limit reached")
	case errors.Is(err, ledger.ErrInvalidTable):
		status = http.StatusBadRequest
		b = NewError(ErrTypeValidation, err.Error())
	case errors.Is(err, session.ErrSessionDriven):
		status = http.StatusConflict
		b = NewError(ErrTypeSessionDriven, "Session is driven by an open stream")
	}

	eh.respond(w, r, status, b.
		WithRequestID(requestID).
		WithContext("path", r.URL.Path).
		WithContext("method", r.Method).
		Build())
}

// HandleDecodeError reports a body that is not valid JSON.
func (eh *ErrorHandler) HandleDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	engineErr := NewError(ErrTypeInvalidJSON, "Invalid JSON in request body").
		WithRequestID(middleware.GetReqID(r.Context())).
		WithCause(err).
		WithContext("path", r.URL.Path).
		Build()
	eh.respond(w, r, http.StatusBadRequest, engineErr)
}

// HandleValidationError reports failed struct validation.
func (eh *ErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	b := NewError(ErrTypeValidation, "Validation failed: "+validationMessage(err)).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("path", r.URL.Path).
		WithContext("method", r.Method)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		b.WithContext("field", verrs[0].Field())
	}
	eh.respond(w, r, http.StatusBadRequest, b.Build())
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.ActualTag() {
		case "required", "required_with":
			msgs = append(msgs, fmt.Sprintf("field %s is required", fe.Field()))
		case "stake":
			msgs = append(msgs, fmt.Sprintf("field %s must be a positive multiple of the minimum bet", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("field %s must be one of [%s]", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is invalid", fe.Field()))
		}
	}
	return strings.Join(msgs, ", ")
}

func (eh *ErrorHandler) respond(w http.ResponseWriter, r *http.Request, status int, engineErr EngineError) {
	eh.logError(r, engineErr, status)
	eh.writeErrorResponse(w, status, engineErr)
}

func (eh *ErrorHandler) logError(r *http.Request, engineErr EngineError, status int) {
	category := GetErrorCategory(engineErr.Type)

	level := slog.LevelError
	if category == CategoryValidation || category == CategoryGame || status < 500 {
		level = slog.LevelWarn
	}

	attrs := []any{
		"type", engineErr.Type,
		"category", category,
		"status", status,
		"request_id", engineErr.RequestID,
		"method", r.Method,
		"path", r.URL.Path,
		"remote_ip", r.RemoteAddr,
	}
	for key, value := range engineErr.Context {
		// Never log raw seeds.
		if key == "server_seed" || key == "client_seed" || key == "path" || key == "method" {
			continue
		}
		attrs = append(attrs, key, value)
	}
	eh.log.Log(r.Context(), level, engineErr.Message, attrs...)
}

func (eh *ErrorHandler) writeErrorResponse(w http.ResponseWriter, status int, engineErr EngineError) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.Header().Set("X-Error-Type", engineErr.Type)
	w.Header().Set("X-Error-Category", string(GetErrorCategory(engineErr.Type)))
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(engineErr); err != nil {
		eh.log.Error("write error response", "error", err)
	}
}

// RecoveryHandler turns handler panics into a 500 envelope.
func (eh *ErrorHandler) RecoveryHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil || rvr == http.ErrAbortHandler {
				if rvr != nil {
					panic(rvr)
				}
				return
			}
			requestID := middleware.GetReqID(r.Context())
			eh.log.Error("panic recovered",
				"request_id", requestID,
				"path", r.URL.Path,
				"method", r.Method,
				"panic", rvr,
			)

			engineErr := NewError(ErrTypeInternal, "Internal server error").
				WithRequestID(requestID).
				WithContext("panic", fmt.Sprintf("%v", rvr)).
				Build()
			eh.writeErrorResponse(w, http.StatusInternalServerError, engineErr)
		}()

		next.ServeHTTP(w, r)
	})
}
