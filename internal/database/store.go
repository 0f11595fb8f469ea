package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by point lookups that match no row
var ErrNotFound = errors.New("record not found")

// DefaultBatchSize bounds the rows written per transaction during bulk upserts
const DefaultBatchSize = 500

// bulkUpsert executes query once per row, committing every batchSize rows.
// The query is written with ? placeholders and rebound for the driver.
func bulkUpsert(ctx context.Context, db DB, query string, rows [][]interface{}, batchSize int) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	query = db.Rebind(query)

	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		for _, args := range rows[start:end] {
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("failed to upsert row: %w", err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit batch: %w", err)
		}
	}

	return nil
}

// likeEscaper escapes LIKE wildcards; queries pair it with ESCAPE '!'
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePattern matches query as a literal substring
func likePattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}
