package ops

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/scalefield/scalefield/scalefield/storage"
)

// PointRow is one encoded value destined for the point index.
type PointRow struct {
	Field string
	Value int64
}

// ValueRow is one ordered encoded value destined for the doc-values or
// stored tables. Ord preserves array position within a field.
type ValueRow struct {
	Field string
	Ord   int
	Value int64
}

// PutPrepared holds everything the emission pipeline produced for one
// document, ready to be written in a single transaction.
type PutPrepared struct {
	DocID   string
	Points  []PointRow
	DocVals []ValueRow
	Stored  []ValueRow
	Ignored []string // fields whose malformed values were dropped
}

// ExecutePut writes a prepared document inside tx. The document row is
// upserted, stale field rows removed, and the new rows inserted. Returns
// the internal item ID and the document's original creation time.
func ExecutePut(ctx context.Context, tx *sql.Tx, sqlt storage.SQL, prep *PutPrepared, nowMS int64) (int64, int64, error) {
	ignored := prep.Ignored
	if ignored == nil {
		ignored = []string{}
	}
	ignoredJSON, err := json.Marshal(ignored)
	if err != nil {
		return 0, 0, fmt.Errorf("encode ignored list: %w", err)
	}

	// 1. Upsert the doc row. On conflict the original created_at survives
	// and is returned alongside the internal id.
	var itemID, createdAt int64
	err = tx.QueryRowContext(ctx, sqlt.UpsertDoc, prep.DocID, nowMS, nowMS, string(ignoredJSON)).Scan(&itemID, &createdAt)
	if err != nil {
		return 0, 0, fmt.Errorf("upsert doc: %w", err)
	}

	// 2. Drop stale field rows from a previous version of the document.
	deletes := []struct {
		sql  string
		name string
	}{
		{sqlt.DeletePointsByDoc, "points"},
		{sqlt.DeleteDocValuesByDoc, "doc values"},
		{sqlt.DeleteStoredByDoc, "stored"},
	}
	for _, q := range deletes {
		if _, err := tx.ExecContext(ctx, q.sql, itemID); err != nil {
			return 0, 0, fmt.Errorf("delete old %s: %w", q.name, err)
		}
	}

	// 3. Insert the new rows.
	for _, r := range prep.Points {
		if _, err := tx.ExecContext(ctx, sqlt.InsertPoint, itemID, r.Field, r.Value); err != nil {
			return 0, 0, fmt.Errorf("insert point: %w", err)
		}
	}
	for _, r := range prep.DocVals {
		if _, err := tx.ExecContext(ctx, sqlt.InsertDocValue, itemID, r.Field, r.Ord, r.Value); err != nil {
			return 0, 0, fmt.Errorf("insert doc value: %w", err)
		}
	}
	for _, r := range prep.Stored {
		if _, err := tx.ExecContext(ctx, sqlt.InsertStored, itemID, r.Field, r.Ord, r.Value); err != nil {
			return 0, 0, fmt.Errorf("insert stored: %w", err)
		}
	}

	return itemID, createdAt, nil
}
