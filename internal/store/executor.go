package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// maxQueryRows caps result sets from generated queries so a pathological
// SELECT cannot drag the whole table into memory.
const maxQueryRows = 500

// QueryRows runs one already-validated SELECT inside a read-only
// transaction and returns the rows as column name to value maps. The
// read-only access mode is enforced by the database itself, independent of
// the static validation upstream.
func (s *Store) QueryRows(ctx context.Context, query string) ([]map[string]any, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("QueryRows: starting read-only transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("QueryRows: executing query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []map[string]any
	for rows.Next() {
		if len(out) >= maxQueryRows {
			break
		}
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("QueryRows: reading row values: %w", err)
		}
		row := make(map[string]any, len(fields))
		for i, f := range fields {
			row[f.Name] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("QueryRows: iterating rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("QueryRows: committing: %w", err)
	}

	return out, nil
}

// normalizeValue converts driver-specific column types into plain values the
// answer pipeline understands. numeric columns arrive as pgtype.Numeric,
// which would otherwise render as a struct in the deterministic fallback.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case pgtype.Numeric:
		if !val.Valid || val.NaN || val.InfinityModifier != pgtype.Finite || val.Int == nil {
			return nil
		}
		return decimal.NewFromBigInt(val.Int, val.Exp)
	default:
		return v
	}
}
