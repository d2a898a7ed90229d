// Package records is the query service behind the game: JSON documents kept in
// named tables, selected by field equality. Implementations exist for libSQL,
// Postgres (the hosted backend) and memory.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrTableMissing   = errors.New("table does not exist")
	ErrSchemaMismatch = errors.New("schema mismatch")
	ErrInvalidTable   = errors.New("invalid table name")
)

// Table names used by the game.
const (
	Archetypes     = "archetypes"
	Challenges     = "challenges"
	Routes         = "routes"
	Campaigns      = "campaigns"
	Completions    = "challenge_completions"
	UserRewards    = "user_rewards"
	UserArchetypes = "user_archetypes"
	Messages       = "messages"
)

// Record is one JSON document. Every stored record has string "id" and
// "created_at" fields.
type Record map[string]any

func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Filter matches records whose top-level fields equal the given values.
type Filter map[string]any

type Store interface {
	Select(ctx context.Context, table string, f Filter) ([]Record, error)
	// Insert stores r, replacing any record with the same id. A missing id or
	// created_at is filled in; the stored record is returned.
	Insert(ctx context.Context, table string, r Record) (Record, error)
	// Update merges patch into the record with the given id.
	Update(ctx context.Context, table, id string, patch Record) (Record, error)
}

// Recoverable reports whether err is a missing-table or schema condition that
// callers answer from fallback data instead of failing.
func Recoverable(err error) bool {
	return errors.Is(err, ErrTableMissing) || errors.Is(err, ErrSchemaMismatch)
}

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func checkTable(table string) error {
	if !identRe.MatchString(table) {
		return fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	return nil
}

func checkFilter(f Filter) error {
	for k, v := range f {
		if !identRe.MatchString(k) {
			return fmt.Errorf("invalid filter field %q", k)
		}
		switch v.(type) {
		case string, bool, int, int64, float64:
		default:
			return fmt.Errorf("unsupported filter value %T for %q", v, k)
		}
	}
	return nil
}

// sortedKeys gives filters a stable SQL rendering.
func sortedKeys(f Filter) []string {
	return slices.Sorted(maps.Keys(f))
}

func prepare(r Record, now time.Time) Record {
	out := maps.Clone(r)
	if out == nil {
		out = Record{}
	}
	if out.ID() == "" {
		out["id"] = uuid.NewString()
	}
	if _, ok := out["created_at"]; !ok {
		out["created_at"] = now.UTC().Format(time.RFC3339Nano)
	}
	return out
}

// From converts a struct into a Record through its JSON encoding.
func From(v any) (Record, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	return r, nil
}

// Decode converts records into T through their JSON encoding. A record that
// does not fit T is reported as ErrSchemaMismatch.
func Decode[T any](recs []Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		v, err := DecodeOne[T](r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func DecodeOne[T any](r Record) (T, error) {
	var v T
	b, err := json.Marshal(r)
	if err != nil {
		return v, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("%w: record %s: %v", ErrSchemaMismatch, r.ID(), err)
	}
	return v, nil
}

func unmarshalRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return r, nil
}
