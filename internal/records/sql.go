package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"
)

// SQLStore keeps records in SQLite/libSQL tables of the form
// (id TEXT PRIMARY KEY, data JSONB NOT NULL).
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

func (s *SQLStore) Select(ctx context.Context, table string, f Filter) ([]Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if err := checkFilter(f); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	for _, k := range sortedKeys(f) {
		where = append(where, fmt.Sprintf("json_extract(data, '$.%s') = ?", k))
		args = append(args, sqlValue(f[k]))
	}
	q := fmt.Sprintf(`SELECT json(data) FROM %s`, table)
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += ` ORDER BY json_extract(data, '$.created_at'), id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, sqliteError(table, err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		r, err := unmarshalRecord([]byte(data))
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteError(table, err)
	}
	return out, nil
}

func (s *SQLStore) Insert(ctx context.Context, table string, r Record) (Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	r = prepare(r, s.now())
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, data) VALUES (?, jsonb(?))
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data`, table),
		r.ID(), string(data),
	)
	if err != nil {
		return nil, sqliteError(table, err)
	}
	return r, nil
}

func (s *SQLStore) Update(ctx context.Context, table, id string, patch Record) (Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT json(data) FROM %s WHERE id = ?`, table), id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, sqliteError(table, err)
	}
	r, err := unmarshalRecord([]byte(data))
	if err != nil {
		return nil, err
	}
	maps.Copy(r, patch)
	r["id"] = id

	merged, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET data = jsonb(?) WHERE id = ?`, table),
		string(merged), id,
	); err != nil {
		return nil, sqliteError(table, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r, nil
}

// sqlValue maps a filter value onto what json_extract returns for it.
func sqlValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}

func sqliteError(table string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such table"):
		return fmt.Errorf("%w: %s", ErrTableMissing, table)
	case strings.Contains(msg, "no such column"), strings.Contains(msg, "malformed JSON"):
		return fmt.Errorf("%w: %s: %v", ErrSchemaMismatch, table, err)
	}
	return fmt.Errorf("%s: %w", table, err)
}
