package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const roundKeyPrefix = "round/"

// BadgerJournal stores rounds as JSON values keyed by
// round/<session>/<round number>. An empty path runs in memory.
type BadgerJournal struct {
	db     *badger.DB
	closed atomic.Bool
}

// NewBadgerJournal opens a badger database at path.
func NewBadgerJournal(path string) (*BadgerJournal, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" || path == ":memory:" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerJournal{db: db}, nil
}

func roundKey(sessionID string, round int) []byte {
	return []byte(fmt.Sprintf("%s%s/%010d", roundKeyPrefix, sessionID, round))
}

func sessionPrefix(sessionID string) []byte {
	if sessionID == "" {
		return []byte(roundKeyPrefix)
	}
	return []byte(roundKeyPrefix + sessionID + "/")
}

// RecordRound stores r under its session and round number.
func (j *BadgerJournal) RecordRound(ctx context.Context, r *Round) error {
	if j.closed.Load() {
		return ErrJournalClosed
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.SettledAt.IsZero() {
		r.SettledAt = time.Now().UTC()
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode round: %w", err)
	}
	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(roundKey(r.SessionID, r.Round), data)
	})
}

// ListRounds returns a page of rounds, newest first.
func (j *BadgerJournal) ListRounds(ctx context.Context, q RoundsQuery) (*RoundsPage, error) {
	q = q.normalize()
	prefix := sessionPrefix(q.SessionID)

	var rounds []Round
	err := j.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var r Round
			if err := it.Item().Value(func(val []byte) error {
				return json.NewDecoder(bytes.NewReader(val)).Decode(&r)
			}); err != nil {
				return fmt.Errorf("decode round: %w", err)
			}
			rounds = append(rounds, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(rounds, func(a, b int) bool {
		if !rounds[a].SettledAt.Equal(rounds[b].SettledAt) {
			return rounds[a].SettledAt.After(rounds[b].SettledAt)
		}
		return rounds[a].Round > rounds[b].Round
	})

	total := len(rounds)
	start := min(q.offset(), total)
	end := min(start+q.PerPage, total)
	return newPage(q, rounds[start:end], total), nil
}

// Ping reports whether the database is open.
func (j *BadgerJournal) Ping(ctx context.Context) error {
	if j.closed.Load() || j.db.IsClosed() {
		return ErrJournalClosed
	}
	return nil
}

func (j *BadgerJournal) Close() error {
	if j.closed.Swap(true) {
		return nil
	}
	return j.db.Close()
}
