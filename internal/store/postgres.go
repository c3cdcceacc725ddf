package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spigell/talentscout/internal/candidate"
)

const schema = `
CREATE TABLE IF NOT EXISTS candidates (
	id         TEXT PRIMARY KEY,
	document   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS profiles (
	email      TEXT PRIMARY KEY,
	document   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// PgxPool is the subset of *pgxpool.Pool the store uses.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore keeps documents as JSONB rows.
type PostgresStore struct {
	pool   PgxPool
	close  func()
	logger *zap.Logger
}

// NewPostgresStore connects to dsn and creates the tables when missing.
func NewPostgresStore(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	s := NewPostgresStoreWithPool(pool, logger)
	s.close = pool.Close
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func NewPostgresStoreWithPool(pool PgxPool, logger *zap.Logger) *PostgresStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{pool: pool, logger: logger}
}

// Migrate creates the tables.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("op=store.migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveRecord(ctx context.Context, id string, rec *candidate.Record) error {
	if err := checkID(id); err != nil {
		return err
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	q := `INSERT INTO candidates (id, document, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`
	if _, err := s.pool.Exec(ctx, q, id, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("op=record.save: %w", err)
	}
	s.logger.Debug("record saved", zap.String("id", id))
	return nil
}

func (s *PostgresStore) LoadRecord(ctx context.Context, id string) (*candidate.Record, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var rec candidate.Record
	if err := s.load(ctx, `SELECT document FROM candidates WHERE id=$1`, id, &rec); err != nil {
		return nil, fmt.Errorf("op=record.load: %w", err)
	}
	return &rec, nil
}

func (s *PostgresStore) DeleteRecord(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM candidates WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("op=record.delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=record.delete: %w", ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListRecords(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM candidates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("op=record.list: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("op=record.list: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) SaveProfile(ctx context.Context, email string, p *candidate.Profile) error {
	key, err := profileKey(email)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	q := `INSERT INTO profiles (email, document, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (email) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`
	if _, err := s.pool.Exec(ctx, q, key, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("op=profile.save: %w", err)
	}
	return nil
}

func (s *PostgresStore) LoadProfile(ctx context.Context, email string) (*candidate.Profile, error) {
	key, err := profileKey(email)
	if err != nil {
		return nil, err
	}
	var p candidate.Profile
	if err := s.load(ctx, `SELECT document FROM profiles WHERE email=$1`, key, &p); err != nil {
		return nil, fmt.Errorf("op=profile.load: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}

func (s *PostgresStore) load(ctx context.Context, q, key string, v any) error {
	var raw []byte
	if err := s.pool.QueryRow(ctx, q, key).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return json.Unmarshal(raw, v)
}
