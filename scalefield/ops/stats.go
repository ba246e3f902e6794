package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/scalefield/scalefield/scalefield/storage"
)

// ScanFieldValues streams every doc-values entry of a field to fn, across
// all documents. Aggregation happens in the caller so the encoded values
// never have to be materialized at once.
func ScanFieldValues(ctx context.Context, db *sql.DB, sqlt storage.SQL, field string, fn func(int64) error) error {
	rows, err := db.QueryContext(ctx, sqlt.SelectFieldValues, field)
	if err != nil {
		return fmt.Errorf("field values query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return fmt.Errorf("scan value: %w", err)
		}
		if err := fn(v); err != nil {
			return err
		}
	}
	return rows.Err()
}

// CountDocs reports the number of documents in the index.
func CountDocs(ctx context.Context, db *sql.DB, sqlt storage.SQL) (uint64, error) {
	var n uint64
	if err := db.QueryRowContext(ctx, sqlt.CountDocs).Scan(&n); err != nil {
		return 0, fmt.Errorf("count docs: %w", err)
	}
	return n, nil
}
