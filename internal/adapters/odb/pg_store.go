package odb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/ucn-triumf/epics2midas-modern/internal/ports"
)

// PGStore mirrors the equipment's Variables tree into a SQL table: one row
// per equipment with the Measured array in a double precision[] column.
// It replaces the online database binding of the legacy frontend with
// explicit load-then-write semantics.
type PGStore struct {
	db        *sql.DB
	tableName string
	equipment string
}

func NewPGStore(db *sql.DB, table, equipment string) *PGStore {
	if table == "" {
		table = "variables"
	}
	return &PGStore{db: db, tableName: table, equipment: equipment}
}

// EnsureMeasured creates the Measured array sized n when the equipment row
// is absent. An existing array is resized in place: values up to min(old
// len, n) are preserved, growth is zero-filled, shrinkage truncates.
func (s *PGStore) EnsureMeasured(ctx context.Context, n int) error {
	if n < 0 {
		return fmt.Errorf("odb: invalid measured length %d", n)
	}

	cur, err := s.load(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		q := fmt.Sprintf("INSERT INTO %s (equipment, measured) VALUES ($1, $2)", s.tableName)
		_, err = s.db.ExecContext(ctx, q, s.equipment, pq.Array(make([]float64, n)))
		return err
	}
	if err != nil {
		return err
	}
	if len(cur) == n {
		return nil
	}

	resized := make([]float64, n)
	copy(resized, cur)
	q := fmt.Sprintf("UPDATE %s SET measured = $2 WHERE equipment = $1", s.tableName)
	_, err = s.db.ExecContext(ctx, q, s.equipment, pq.Array(resized))
	return err
}

// SetMeasured overwrites one slot. SQL arrays are 1-based, channel indices
// are 0-based.
func (s *PGStore) SetMeasured(ctx context.Context, index int, value float64) error {
	if index < 0 {
		return fmt.Errorf("odb: invalid measured index %d", index)
	}
	q := fmt.Sprintf("UPDATE %s SET measured[$2] = $3 WHERE equipment = $1", s.tableName)
	res, err := s.db.ExecContext(ctx, q, s.equipment, index+1, value)
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("odb: equipment %q has no variables row", s.equipment)
	}
	return nil
}

// Measured returns the current array.
func (s *PGStore) Measured(ctx context.Context) ([]float64, error) {
	return s.load(ctx)
}

func (s *PGStore) load(ctx context.Context) ([]float64, error) {
	q := fmt.Sprintf("SELECT measured FROM %s WHERE equipment = $1", s.tableName)
	var arr pq.Float64Array
	if err := s.db.QueryRowContext(ctx, q, s.equipment).Scan(&arr); err != nil {
		return nil, err
	}
	return []float64(arr), nil
}

var _ ports.VariableStore = (*PGStore)(nil)
