package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/scalefield/scalefield/scalefield/storage"
)

// RangeDocs returns the external IDs of documents holding at least one
// point value of field within [lo, hi], ordered by document ID.
func RangeDocs(ctx context.Context, db *sql.DB, sqlt storage.SQL, field string, lo, hi int64) ([]string, error) {
	rows, err := db.QueryContext(ctx, sqlt.SelectRange, field, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("range query: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan doc_id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
