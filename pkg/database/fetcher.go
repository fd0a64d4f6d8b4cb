package database

import (
	"context"
	"fmt"
)

// RowFetcher fetches rows for a single read-only statement. The executor
// depends on this interface so tests can substitute an in-memory fetcher.
type RowFetcher interface {
	Fetch(ctx context.Context, sql string, args []any) ([]map[string]any, error)
}

// PoolFetcher implements RowFetcher on the shared pgx pool, collecting
// each row into a column-name-keyed map.
type PoolFetcher struct {
	db *DB
}

// NewPoolFetcher creates a RowFetcher backed by the shared pool.
func NewPoolFetcher(db *DB) *PoolFetcher {
	return &PoolFetcher{db: db}
}

// Fetch runs the statement and returns all rows as maps.
func (f *PoolFetcher) Fetch(ctx context.Context, sql string, args []any) ([]map[string]any, error) {
	rows, err := f.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = string(fd.Name)
	}

	result := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}
		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col] = values[i]
		}
		result = append(result, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// Ensure PoolFetcher implements RowFetcher at compile time.
var _ RowFetcher = (*PoolFetcher)(nil)
