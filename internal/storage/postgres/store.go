package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tradeScope/internal/model"
)

// Store provides Postgres persistence for the tool invocation audit log.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutToolRecords inserts a batch of tool invocation records.
func (s *Store) PutToolRecords(ctx context.Context, records []model.ToolRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, record := range records {
		args := record.Arguments
		if len(args) == 0 {
			args = []byte("{}")
		}
		batch.Queue(`
			INSERT INTO tool_invocations (
				tool, arguments, is_error, error, duration_ms, invoked_at, created_at
			) VALUES ($1, $2, $3, $4, $5, to_timestamp($6), now())
		`,
			record.Tool,
			string(args),
			record.IsError,
			record.Error,
			record.DurationMS,
			record.Timestamp,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
