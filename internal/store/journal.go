package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrJournalClosed is returned by writes after Close.
var ErrJournalClosed = errors.New("journal closed")

// Round is one settled spin as written to the journal. The journal is an
// audit trail; sessions are never rebuilt from it.
type Round struct {
	ID             string    `json:"id" db:"id"`
	SessionID      string    `json:"session_id" db:"session_id"`
	Round          int       `json:"round" db:"round"`
	Number         int       `json:"number" db:"number"`
	Color          string    `json:"color" db:"color"`
	SelectionKind  string    `json:"selection_kind" db:"selection_kind"`
	SelectionValue string    `json:"selection_value" db:"selection_value"`
	Bet            int       `json:"bet" db:"bet"`
	BalanceBefore  int       `json:"balance_before" db:"balance_before"`
	BalanceAfter   int       `json:"balance_after" db:"balance_after"`
	Winnings       int       `json:"winnings" db:"winnings"`
	Win            bool      `json:"win" db:"win"`
	GameOver       bool      `json:"game_over" db:"game_over"`
	Message        string    `json:"message" db:"message"`
	ServerSeedHash string    `json:"server_seed_hash,omitempty" db:"server_seed_hash"`
	ClientSeed     string    `json:"client_seed,omitempty" db:"client_seed"`
	Nonce          *uint64   `json:"nonce,omitempty" db:"nonce"`
	SettledAt      time.Time `json:"settled_at" db:"settled_at"`
}

// RoundsQuery represents query parameters for listing rounds
type RoundsQuery struct {
	SessionID string `json:"session_id"`
	Page      int    `json:"page"`
	PerPage   int    `json:"perPage"`
}

func (q RoundsQuery) normalize() RoundsQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 50
	}
	if q.PerPage > 500 {
		q.PerPage = 500
	}
	return q
}

func (q RoundsQuery) offset() int {
	return (q.Page - 1) * q.PerPage
}

// RoundsPage represents a paginated rounds response
type RoundsPage struct {
	Rounds     []Round `json:"rounds"`
	TotalCount int     `json:"totalCount"`
	Page       int     `json:"page"`
	PerPage    int     `json:"perPage"`
	TotalPages int     `json:"totalPages"`
}

func newPage(q RoundsQuery, rounds []Round, total int) *RoundsPage {
	if rounds == nil {
		rounds = []Round{}
	}
	pages := 0
	if total > 0 {
		pages = (total + q.PerPage - 1) / q.PerPage
	}
	return &RoundsPage{
		Rounds:     rounds,
		TotalCount: total,
		Page:       q.Page,
		PerPage:    q.PerPage,
		TotalPages: pages,
	}
}

// Journal records settled rounds.
type Journal interface {
	RecordRound(ctx context.Context, r *Round) error
	ListRounds(ctx context.Context, q RoundsQuery) (*RoundsPage, error)
	Ping(ctx context.Context) error
	Close() error
}

// Storage types accepted by Open.
const (
	TypeSQLite = "sqlite"
	TypeBadger = "badger"
	TypeNone   = "none"
)

// Open returns the journal for typ at path. TypeNone returns a nil Journal
// and no error.
func Open(typ, path string) (Journal, error) {
	switch strings.ToLower(typ) {
	case TypeSQLite, "":
		j, err := NewSQLiteJournal(path)
		if err != nil {
			return nil, err
		}
		return j, nil
	case TypeBadger:
		j, err := NewBadgerJournal(path)
		if err != nil {
			return nil, err
		}
		return j, nil
	case TypeNone:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown storage type %q", typ)
}
