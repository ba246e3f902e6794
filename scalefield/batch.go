package scalefield

import (
	"context"
	"database/sql"

	"github.com/scalefield/scalefield/scalefield/ops"
)

type BatchOpKind int

const (
	batchPut BatchOpKind = iota
	batchDelete
)

type BatchOp struct {
	Kind  BatchOpKind
	DocID string
	Doc   map[string]any // for put
}

// Batch collects put and delete operations to be applied in a single
// transaction.
type Batch struct {
	ops []BatchOp
}

func NewBatch() Batch {
	return Batch{ops: make([]BatchOp, 0)}
}

func (b *Batch) Put(docID string, doc map[string]any) error {
	if docID == "" {
		return MappingError("document id cannot be empty")
	}
	b.ops = append(b.ops, BatchOp{Kind: batchPut, DocID: docID, Doc: doc})
	return nil
}

func (b *Batch) PutJSON(docJSON []byte) error {
	docID, doc, err := decodeDoc(docJSON)
	if err != nil {
		return err
	}
	return b.Put(docID, doc)
}

func (b *Batch) Delete(docID string) error {
	if docID == "" {
		return MappingError("document id cannot be empty")
	}
	b.ops = append(b.ops, BatchOp{Kind: batchDelete, DocID: docID})
	return nil
}

func (b *Batch) Len() int {
	return len(b.ops)
}

func (b *Batch) Empty() bool {
	return len(b.ops) == 0
}

// Execute is implemented on Index to keep storage access internal.
func (b *Batch) Execute(ctx context.Context, ix *Index) (int, error) {
	return ix.Batch(ctx, *b)
}

// Batch applies all operations of b in one transaction. Deletes of missing
// documents are skipped; the returned count is the number of operations
// actually applied.
func (ix *Index) Batch(ctx context.Context, b Batch) (int, error) {
	if b.Empty() {
		return 0, nil
	}

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, Wrap(ErrSQL, "begin transaction", err)
	}
	defer tx.Rollback()

	sqlt := ix.adapter.SQL()
	nowMS := ix.nowMS()

	count := 0
	for _, op := range b.ops {
		switch op.Kind {
		case batchPut:
			prep, err := ix.prepare(op.DocID, op.Doc)
			if err != nil {
				return count, err
			}
			if _, _, err := ops.ExecutePut(ctx, tx, sqlt, prep, nowMS); err != nil {
				return count, Wrap(ErrSQL, "execute put", err)
			}
		case batchDelete:
			var itemID, createdAt int64
			err := tx.QueryRowContext(ctx, sqlt.FindDocByID, op.DocID).Scan(&itemID, &createdAt)
			if err == sql.ErrNoRows {
				continue
			}
			if err != nil {
				return count, Wrap(ErrSQL, "find doc", err)
			}
			if err := ops.DeleteByItemID(ctx, tx, sqlt, itemID); err != nil {
				return count, Wrap(ErrSQL, "delete doc", err)
			}
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return count, Wrap(ErrSQL, "commit transaction", err)
	}
	return count, nil
}
