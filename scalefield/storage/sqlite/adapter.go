package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/scalefield/scalefield/scalefield/storage"
)

const (
	metaMagicKey   = "scalefield_magic"
	metaMagicValue = "scalefield"
	metaVersionKey = "scalefield_version"
	metaVersion    = "1"
	metaMappingKey = "mapping_json"
)

type Adapter struct {
	Path       string
	DriverName string
}

// New opens path with the driver compiled into this build (pure-Go by
// default, cgo with -tags cgosqlite) and the standard connection pragmas.
func New(path string) *Adapter {
	return &Adapter{Path: defaultDSN(path), DriverName: DefaultDriverName}
}

// NewWithDriver uses path verbatim as the DSN for a caller-registered
// driver.
func NewWithDriver(dsn, driver string) *Adapter {
	return &Adapter{Path: dsn, DriverName: driver}
}

func (a *Adapter) Backend() storage.Backend {
	return storage.BackendSQLite
}

func (a *Adapter) IndexID() string {
	return a.Path
}

func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(a.DriverName, a.Path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (a *Adapter) Close() error {
	return nil
}

func (a *Adapter) SQL() storage.SQL {
	return SQLTemplates
}

func (a *Adapter) CreateIndex(ctx context.Context, db *sql.DB, mappingJSON []byte) error {
	if _, err := db.ExecContext(ctx, ddlBase); err != nil {
		return err
	}
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode=WAL;")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous=NORMAL;")

	sqlt := a.SQL()
	if _, err := db.ExecContext(ctx, sqlt.SetMeta, metaMagicKey, metaMagicValue); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, sqlt.SetMeta, metaVersionKey, metaVersion); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, sqlt.SetMeta, metaMappingKey, string(mappingJSON)); err != nil {
		return err
	}
	return nil
}

func (a *Adapter) OpenIndex(ctx context.Context, db *sql.DB) ([]byte, error) {
	sqlt := a.SQL()
	var magic string
	if err := db.QueryRowContext(ctx, sqlt.GetMeta, metaMagicKey).Scan(&magic); err != nil {
		return nil, err
	}
	if magic != metaMagicValue {
		return nil, fmt.Errorf("not a scalefield index")
	}
	var mappingStr string
	if err := db.QueryRowContext(ctx, sqlt.GetMeta, metaMappingKey).Scan(&mappingStr); err != nil {
		return nil, err
	}
	return []byte(mappingStr), nil
}

func (a *Adapter) Optimize(ctx context.Context, db *sql.DB) error {
	_, _ = db.ExecContext(ctx, "PRAGMA optimize")
	_, _ = db.ExecContext(ctx, "VACUUM")
	return nil
}
