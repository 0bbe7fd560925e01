package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

//go:embed migrations/*.sql
var migrations embed.FS

var roundColumns = []string{
	"id", "session_id", "round", "number", "color", "selection_kind", "selection_value",
	"bet", "balance_before", "balance_after", "winnings", "win", "game_over", "message",
	"server_seed_hash", "client_seed", "nonce", "settled_at",
}

// SQLiteJournal stores rounds in a SQLite database.
type SQLiteJournal struct {
	db     *sql.DB
	closed atomic.Bool
}

// NewSQLiteJournal opens or creates the database at path and runs
// migrations. ":memory:" gives a private in-memory journal.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite is not concurrent for writes

	j := &SQLiteJournal{db: db}
	if err := j.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return j, nil
}

// migrate applies the embedded goose migrations.
func (j *SQLiteJournal) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, j.db, fsys)
	if err != nil {
		return err
	}
	_, err = provider.Up(ctx)
	return err
}

// RecordRound inserts r, assigning an id and timestamp when missing.
func (j *SQLiteJournal) RecordRound(ctx context.Context, r *Round) error {
	if j.closed.Load() {
		return ErrJournalClosed
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.SettledAt.IsZero() {
		r.SettledAt = time.Now().UTC()
	}

	var nonce any
	if r.Nonce != nil {
		nonce = int64(*r.Nonce)
	}

	query, args, err := sq.Insert("rounds").
		Columns(roundColumns...).
		Values(
			r.ID, r.SessionID, r.Round, r.Number, r.Color, r.SelectionKind, r.SelectionValue,
			r.Bet, r.BalanceBefore, r.BalanceAfter, r.Winnings, r.Win, r.GameOver, r.Message,
			r.ServerSeedHash, r.ClientSeed, nonce, r.SettledAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := j.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}

// ListRounds returns a page of rounds, newest first. An empty SessionID
// lists every session.
func (j *SQLiteJournal) ListRounds(ctx context.Context, q RoundsQuery) (*RoundsPage, error) {
	q = q.normalize()

	count := sq.Select("COUNT(*)").From("rounds")
	list := sq.Select(roundColumns...).From("rounds")
	if q.SessionID != "" {
		count = count.Where(sq.Eq{"session_id": q.SessionID})
		list = list.Where(sq.Eq{"session_id": q.SessionID})
	}

	countSQL, countArgs, err := count.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count: %w", err)
	}
	var total int
	if err := j.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count rounds: %w", err)
	}

	listSQL, listArgs, err := list.
		OrderBy("settled_at DESC", "round DESC").
		Limit(uint64(q.PerPage)).
		Offset(uint64(q.offset())).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	rows, err := j.db.QueryContext(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	var rounds []Round
	for rows.Next() {
		var (
			r     Round
			nonce sql.NullInt64
		)
		if err := rows.Scan(
			&r.ID, &r.SessionID, &r.Round, &r.Number, &r.Color, &r.SelectionKind, &r.SelectionValue,
			&r.Bet, &r.BalanceBefore, &r.BalanceAfter, &r.Winnings, &r.Win, &r.GameOver, &r.Message,
			&r.ServerSeedHash, &r.ClientSeed, &nonce, &r.SettledAt,
		); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		if nonce.Valid {
			n := uint64(nonce.Int64)
			r.Nonce = &n
		}
		rounds = append(rounds, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return newPage(q, rounds, total), nil
}

// Ping checks the database connection.
func (j *SQLiteJournal) Ping(ctx context.Context) error {
	if j.closed.Load() {
		return ErrJournalClosed
	}
	return j.db.PingContext(ctx)
}

// Close closes the database connection
func (j *SQLiteJournal) Close() error {
	if j.closed.Swap(true) {
		return nil
	}
	return j.db.Close()
}
