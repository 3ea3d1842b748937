package sqlstore

import (
	"chatcore/internal/app/domain/errs"
	"chatcore/internal/app/ports"
	"context"
	"database/sql"
	"errors"
	"fmt"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"strconv"
	"strings"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS commands (
		id TEXT PRIMARY KEY,
		command TEXT NOT NULL UNIQUE,
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		visible BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS command_responses (
		id TEXT PRIMARY KEY,
		command_id TEXT NOT NULL REFERENCES commands(id) ON DELETE CASCADE,
		ord INTEGER NOT NULL,
		body TEXT NOT NULL,
		permission TEXT NOT NULL DEFAULT '',
		stop_if_executed BOOLEAN NOT NULL DEFAULT FALSE,
		filter_expr TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_command_responses_command ON command_responses(command_id)`,
	`CREATE TABLE IF NOT EXISTS aliases (
		id TEXT PRIMARY KEY,
		alias TEXT NOT NULL UNIQUE,
		command TEXT NOT NULL,
		permission TEXT NOT NULL DEFAULT '',
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		visible BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS prices (
		id TEXT PRIMARY KEY,
		command TEXT NOT NULL UNIQUE,
		price BIGINT NOT NULL,
		enabled BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS cooldowns (
		id TEXT PRIMARY KEY,
		cd_key TEXT NOT NULL UNIQUE,
		scope TEXT NOT NULL,
		seconds INTEGER NOT NULL,
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		quiet BOOLEAN NOT NULL DEFAULT FALSE,
		exempt_owners BOOLEAN NOT NULL DEFAULT TRUE,
		exempt_moderators BOOLEAN NOT NULL DEFAULT TRUE,
		exempt_subscribers BOOLEAN NOT NULL DEFAULT FALSE,
		exempt_followers BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS cooldown_timestamps (
		cooldown_id TEXT NOT NULL,
		viewer_id TEXT NOT NULL,
		ts BIGINT NOT NULL,
		PRIMARY KEY (cooldown_id, viewer_id)
	)`,
	`CREATE TABLE IF NOT EXISTS warnings (
		viewer_id TEXT NOT NULL,
		ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_warnings_viewer ON warnings(viewer_id)`,
	`CREATE TABLE IF NOT EXISTS permits (
		viewer_id TEXT PRIMARY KEY,
		count INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tiers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		ord INTEGER NOT NULL,
		automation TEXT NOT NULL,
		user_ids TEXT NOT NULL DEFAULT '[]',
		exclude_user_ids TEXT NOT NULL DEFAULT '[]',
		is_core BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS points (
		viewer_id TEXT PRIMARY KEY,
		points BIGINT NOT NULL DEFAULT 0
	)`,
}

type Store struct {
	db     *sql.DB
	driver string
}

var _ ports.Store = (*Store)(nil)

func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}

	if driver == DriverSQLite && !strings.Contains(dsn, "_foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_foreign_keys=on&_busy_timeout=5000"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open: %w", err)
	}

	if driver == DriverSQLite {
		// sqlite: одна запись за раз, иначе SQLITE_BUSY на параллельных коммитах
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: ping: %w", err)
	}

	return &Store{db: db, driver: driver}, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errs.Store("migrate", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Commands() ports.CommandRepository   { return commandRepo{s} }
func (s *Store) Aliases() ports.AliasRepository      { return aliasRepo{s} }
func (s *Store) Prices() ports.PriceRepository       { return priceRepo{s} }
func (s *Store) Cooldowns() ports.CooldownRepository { return cooldownRepo{s} }
func (s *Store) Warnings() ports.WarningRepository   { return warningRepo{s} }
func (s *Store) Permits() ports.PermitRepository     { return permitRepo{s} }
func (s *Store) Tiers() ports.TierRepository         { return tierRepo{s} }
func (s *Store) Points() ports.PointsRepository      { return pointsRepo{s} }

// rebind переводит плейсхолдеры "?" в "$n" для postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) exec(ctx context.Context, q execer, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, q execer, query string, args ...any) (*sql.Rows, error) {
	return q.QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, q execer, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, s.rebind(query), args...)
}

func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Store(op+": begin", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return errs.Store(op, err)
	}

	if err := tx.Commit(); err != nil {
		return errs.Store(op+": commit", err)
	}
	return nil
}

func mustAffect(res sql.Result, entity, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.NotFound(entity, key)
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
