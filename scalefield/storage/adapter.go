package storage

import (
	"context"
	"database/sql"
)

type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Adapter abstracts database-specific operations. The index hands it the
// mapping as opaque JSON; adapters never interpret field configurations.
type Adapter interface {
	Backend() Backend
	IndexID() string

	Connect(ctx context.Context) (*sql.DB, error)
	Close() error

	CreateIndex(ctx context.Context, db *sql.DB, mappingJSON []byte) error
	OpenIndex(ctx context.Context, db *sql.DB) (mappingJSON []byte, err error)
	Optimize(ctx context.Context, db *sql.DB) error

	SQL() SQL
}

// SQL holds the statement templates an adapter provides. Placeholder syntax
// is the only thing that varies between backends; every template takes the
// same arguments in the same order.
type SQL struct {
	GetMeta string
	SetMeta string

	// UpsertDoc takes (doc_id, created_at, updated_at, ignored_json) and
	// returns (id, created_at).
	UpsertDoc     string
	FindDocByID   string // doc_id -> (id, created_at)
	GetDocByID    string // doc_id -> (id, created_at, updated_at, ignored_json)
	DeleteDocByID string // internal id

	DeletePointsByDoc    string
	DeleteDocValuesByDoc string
	DeleteStoredByDoc    string

	InsertPoint    string // (item_id, field, value)
	InsertDocValue string // (item_id, field, ord, value)
	InsertStored   string // (item_id, field, ord, value)

	// SelectRange takes (field, lo, hi) and yields doc_id rows ordered by
	// doc_id, deduplicated across multi-valued fields.
	SelectRange string

	SelectFieldValues    string // field -> value rows (all documents)
	SelectDocValuesByDoc string // item_id -> (field, ord, value) ordered
	SelectStoredByDoc    string // item_id -> (field, ord, value) ordered

	CountDocs string
}
