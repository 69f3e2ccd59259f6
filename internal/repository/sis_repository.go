package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of *pgxpool.Pool the repositories use.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// errIncompleteRow is returned by a scan func for a row missing a value the
// model cannot represent. collectPartial skips and counts such rows.
var errIncompleteRow = errors.New("incomplete row")

// collect runs query and scans every row with scan.
func collect[T any](ctx context.Context, db Querier, query string, args []any, scan func(pgx.Rows) (T, error)) ([]T, error) {
	out, _, err := collectPartial(ctx, db, query, args, scan)
	return out, err
}

// collectPartial is collect that also reports how many rows scan rejected
// with errIncompleteRow. Any other scan error aborts the query.
func collectPartial[T any](ctx context.Context, db Querier, query string, args []any, scan func(pgx.Rows) (T, error)) ([]T, int, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		out     []T
		skipped int
	)
	for rows.Next() {
		v, err := scan(rows)
		if errors.Is(err, errIncompleteRow) {
			skipped++
			continue
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	return out, skipped, rows.Err()
}
