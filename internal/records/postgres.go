package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps records in Postgres tables of the form
// (id text primary key, data jsonb not null), the layout of the hosted backend.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: time.Now}
}

func (s *PostgresStore) Select(ctx context.Context, table string, f Filter) ([]Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if err := checkFilter(f); err != nil {
		return nil, err
	}
	if f == nil {
		f = Filter{}
	}
	contains, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT data FROM %s WHERE data @> $1::jsonb ORDER BY data->>'created_at', id`,
			pgx.Identifier{table}.Sanitize()),
		string(contains),
	)
	if err != nil {
		return nil, pgError(table, err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, pgError(table, err)
		}
		r, err := unmarshalRecord(data)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, pgError(table, err)
	}
	return out, nil
}

func (s *PostgresStore) Insert(ctx context.Context, table string, r Record) (Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	r = prepare(r, s.now())
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	_, err = s.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, data) VALUES ($1, $2::jsonb)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`, pgx.Identifier{table}.Sanitize()),
		r.ID(), string(data),
	)
	if err != nil {
		return nil, pgError(table, err)
	}
	return r, nil
}

func (s *PostgresStore) Update(ctx context.Context, table, id string, patch Record) (Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	p, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	var data []byte
	err = s.pool.QueryRow(ctx,
		fmt.Sprintf(`UPDATE %s SET data = data || $2::jsonb WHERE id = $1 RETURNING data`,
			pgx.Identifier{table}.Sanitize()),
		id, string(p),
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, pgError(table, err)
	}
	return unmarshalRecord(data)
}

// Postgres error codes the game treats as recoverable.
const (
	codeUndefinedTable   = "42P01"
	codeUndefinedColumn  = "42703"
	codeDatatypeMismatch = "42804"
	codeInvalidJSON      = "22P02"
)

func pgError(table string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUndefinedTable:
			return fmt.Errorf("%w: %s", ErrTableMissing, table)
		case codeUndefinedColumn, codeDatatypeMismatch, codeInvalidJSON:
			return fmt.Errorf("%w: %s: %s", ErrSchemaMismatch, table, pgErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", table, err)
}
