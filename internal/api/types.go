package api

import (
	"github.com/MJE43/roulette-spin-go/internal/session"
	"github.com/MJE43/roulette-spin-go/internal/store"
	"github.com/MJE43/roulette-spin-go/internal/wheel"
)

// EngineError is the structured error envelope.
type EngineError struct {
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
}

func (e EngineError) Error() string {
	return e.Message
}

const (
	// Input errors
	ErrTypeInvalidJSON   = "invalid_json"
	ErrTypeInvalidParams = "invalid_params"
	ErrTypeValidation    = "validation_error"

	// Session errors
	ErrTypeSessionNotFound = "session_not_found"
	ErrTypeSessionLimit    = "session_limit_reached"
	ErrTypeSessionDriven   = "session_driven"

	// System errors
	ErrTypeTimeout            = "timeout"
	ErrTypeInternal           = "internal_error"
	ErrTypeServiceUnavailable = "service_unavailable"
)

// ErrorCategory groups error types for logging.
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryGame       ErrorCategory = "game"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeInvalidJSON, ErrTypeInvalidParams, ErrTypeValidation:
		return CategoryValidation
	case ErrTypeSessionNotFound, ErrTypeSessionLimit, ErrTypeSessionDriven:
		return CategoryGame
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

// VersionInfo contains engine version information
type VersionInfo struct {
	EngineVersion string `json:"engine_version"`
	GitCommit     string `json:"git_commit,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
}

// CreateSessionRequest starts a session. Supplying a server seed switches
// the session to provably-fair mode.
type CreateSessionRequest struct {
	ServerSeed   string `json:"server_seed" validate:"required_with=ClientSeed,max=256"`
	ClientSeed   string `json:"client_seed" validate:"max=256"`
	Nonce        uint64 `json:"nonce"`
	StartBalance int    `json:"start_balance" validate:"omitempty,gt=0,lte=1000000000,stake"`
}

type AdjustBetRequest struct {
	Direction int `json:"direction" validate:"oneof=-1 1"`
}

type ColorBetRequest struct {
	Color string `json:"color" validate:"required,oneof=red black"`
}

type NumberBetRequest struct {
	Number int `json:"number" validate:"gte=1,lte=36"`
}

// SessionListResponse lists live sessions.
type SessionListResponse struct {
	Sessions []string `json:"sessions"`
	Count    int      `json:"count"`
}

type SectorsResponse struct {
	Sectors []wheel.Sector `json:"sectors"`
}

// TickResponse wraps one frame with the snapshot after it.
type TickResponse struct {
	Frame    session.Frame    `json:"frame"`
	Snapshot session.Snapshot `json:"snapshot"`
}

type RoundsResponse struct {
	*store.RoundsPage
	EngineVersion string `json:"engine_version"`
}

// StreamMessage is written to WebSocket clients.
type StreamMessage struct {
	Type     string            `json:"type"`
	Frame    *session.Frame    `json:"frame,omitempty"`
	Snapshot *session.Snapshot `json:"snapshot,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// Stream message types.
const (
	StreamFrame    = "frame"
	StreamSnapshot = "snapshot"
	StreamError    = "error"
)

// StreamIntent is read from WebSocket clients.
type StreamIntent struct {
	Intent    string `json:"intent" validate:"required,oneof=spin adjust color number reset reshuffle"`
	Direction int    `json:"direction" validate:"omitempty,oneof=-1 1"`
	Color     string `json:"color" validate:"omitempty,oneof=red black"`
	Number    int    `json:"number" validate:"omitempty,gte=1,lte=36"`
}
