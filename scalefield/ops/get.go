package ops

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/scalefield/scalefield/scalefield/storage"
)

// DocRows is the raw stored content of one document.
type DocRows struct {
	ItemID      int64
	CreatedAtMS int64
	UpdatedAtMS int64
	Ignored     []string
	DocValues   []ValueRow
	Stored      []ValueRow
}

// GetDoc loads a document and its field rows by external ID. Returns
// sql.ErrNoRows when the document does not exist.
func GetDoc(ctx context.Context, db *sql.DB, sqlt storage.SQL, docID string) (*DocRows, error) {
	var d DocRows
	var ignoredJSON string
	err := db.QueryRowContext(ctx, sqlt.GetDocByID, docID).
		Scan(&d.ItemID, &d.CreatedAtMS, &d.UpdatedAtMS, &ignoredJSON)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(ignoredJSON), &d.Ignored); err != nil {
		return nil, fmt.Errorf("decode ignored list: %w", err)
	}

	if d.DocValues, err = readValueRows(ctx, db, sqlt.SelectDocValuesByDoc, d.ItemID); err != nil {
		return nil, fmt.Errorf("read doc values: %w", err)
	}
	if d.Stored, err = readValueRows(ctx, db, sqlt.SelectStoredByDoc, d.ItemID); err != nil {
		return nil, fmt.Errorf("read stored: %w", err)
	}

	return &d, nil
}

func readValueRows(ctx context.Context, db *sql.DB, query string, itemID int64) ([]ValueRow, error) {
	rows, err := db.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ValueRow
	for rows.Next() {
		var r ValueRow
		if err := rows.Scan(&r.Field, &r.Ord, &r.Value); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
