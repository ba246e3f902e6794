package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/scalefield/scalefield/scalefield/storage"
)

// DeleteByItemID deletes a document's field rows and its doc row by
// internal ID. Field rows are removed explicitly so the behavior does not
// depend on foreign-key enforcement being enabled.
func DeleteByItemID(ctx context.Context, tx *sql.Tx, sqlt storage.SQL, itemID int64) error {
	queries := []struct {
		sql  string
		name string
	}{
		{sqlt.DeletePointsByDoc, "points"},
		{sqlt.DeleteDocValuesByDoc, "doc values"},
		{sqlt.DeleteStoredByDoc, "stored"},
	}
	for _, q := range queries {
		if _, err := tx.ExecContext(ctx, q.sql, itemID); err != nil {
			return fmt.Errorf("delete %s: %w", q.name, err)
		}
	}
	if _, err := tx.ExecContext(ctx, sqlt.DeleteDocByID, itemID); err != nil {
		return fmt.Errorf("delete doc: %w", err)
	}
	return nil
}

// DeleteDoc deletes a document by its external ID. Returns true when the
// document was found and deleted.
func DeleteDoc(ctx context.Context, db *sql.DB, sqlt storage.SQL, docID string) (bool, error) {
	var itemID, createdAt int64
	err := db.QueryRowContext(ctx, sqlt.FindDocByID, docID).Scan(&itemID, &createdAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find doc: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := DeleteByItemID(ctx, tx, sqlt, itemID); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}

	return true, nil
}
