package scalefield

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/scalefield/scalefield/scalefield/ops"
	"github.com/scalefield/scalefield/scalefield/storage"
)

// Index represents an open scalefield index.
type Index struct {
	adapter storage.Adapter
	db      *sql.DB
	mapping Mapping
	mappers map[string]*FieldMapper
	opts    Options
}

// Create creates a new index with the given mapping.
func Create(ctx context.Context, adapter storage.Adapter, mapping Mapping, opts Options) (*Index, error) {
	if err := mapping.Validate(); err != nil {
		return nil, err
	}
	mappers, err := mapping.Mappers()
	if err != nil {
		return nil, err
	}

	db, err := adapter.Connect(ctx)
	if err != nil {
		return nil, Wrap(ErrIO, "connect to database", err)
	}

	mappingJSON, err := mapping.ToJSON()
	if err != nil {
		db.Close()
		return nil, Wrap(ErrMapping, "marshal mapping", err)
	}

	if err := adapter.CreateIndex(ctx, db, mappingJSON); err != nil {
		db.Close()
		return nil, Wrap(ErrSQL, "create index", err)
	}

	ix := &Index{
		adapter: adapter,
		db:      db,
		mapping: mapping,
		mappers: mappers,
		opts:    normalizeOptions(opts),
	}
	ix.opts.Logger.Info().
		Str("backend", string(adapter.Backend())).
		Str("index", adapter.IndexID()).
		Int("fields", len(mapping.Fields)).
		Msg("index created")
	return ix, nil
}

// Open opens an existing index, restoring its mapping from the meta table.
func Open(ctx context.Context, adapter storage.Adapter, opts Options) (*Index, error) {
	db, err := adapter.Connect(ctx)
	if err != nil {
		return nil, Wrap(ErrIO, "connect to database", err)
	}

	mappingJSON, err := adapter.OpenIndex(ctx, db)
	if err != nil {
		db.Close()
		return nil, Wrap(ErrSQL, "open index", err)
	}

	mapping, err := MappingFromJSON(mappingJSON)
	if err != nil {
		db.Close()
		return nil, err
	}
	mappers, err := mapping.Mappers()
	if err != nil {
		db.Close()
		return nil, err
	}

	ix := &Index{
		adapter: adapter,
		db:      db,
		mapping: mapping,
		mappers: mappers,
		opts:    normalizeOptions(opts),
	}
	ix.opts.Logger.Info().
		Str("backend", string(adapter.Backend())).
		Str("index", adapter.IndexID()).
		Int("fields", len(mapping.Fields)).
		Msg("index opened")
	return ix, nil
}

// Close closes the index.
func (ix *Index) Close() error {
	if ix.db != nil {
		if err := ix.db.Close(); err != nil {
			return Wrap(ErrIO, "close database", err)
		}
	}
	return ix.adapter.Close()
}

// Mapping returns the index mapping.
func (ix *Index) Mapping() Mapping {
	return ix.mapping
}

// Put indexes a document under docID. Every mapped field present in doc is
// run through its emission pipeline; all resulting rows are written in one
// transaction, so a fatal malformed value leaves the index untouched.
func (ix *Index) Put(ctx context.Context, docID string, doc map[string]any) error {
	start := time.Now()
	err := ix.put(ctx, docID, doc)
	status := "ok"
	if err != nil {
		status = "error"
	}
	ix.opts.Metrics.RecordPut(status, time.Since(start))
	return err
}

func (ix *Index) put(ctx context.Context, docID string, doc map[string]any) error {
	if docID == "" {
		return MappingError("document id cannot be empty")
	}

	prep, err := ix.prepare(docID, doc)
	if err != nil {
		return err
	}

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return Wrap(ErrSQL, "begin transaction", err)
	}
	defer tx.Rollback()

	if _, _, err := ops.ExecutePut(ctx, tx, ix.adapter.SQL(), prep, ix.nowMS()); err != nil {
		return Wrap(ErrSQL, "execute put", err)
	}

	if err := tx.Commit(); err != nil {
		return Wrap(ErrSQL, "commit", err)
	}

	ix.opts.Logger.Debug().
		Str("doc", docID).
		Int("points", len(prep.Points)).
		Int("doc_values", len(prep.DocVals)).
		Int("stored", len(prep.Stored)).
		Msg("document indexed")
	return nil
}

// PutJSON indexes a document given as JSON. The document carries its ID in
// the "_id" key; numbers are decoded as json.Number so large integers keep
// their digits until the codec sees them.
func (ix *Index) PutJSON(ctx context.Context, docJSON []byte) error {
	docID, doc, err := decodeDoc(docJSON)
	if err != nil {
		return err
	}
	return ix.Put(ctx, docID, doc)
}

// prepare runs every mapped field of doc through its emission pipeline and
// collects the rows to write. Array values emit one artifact set per
// element; fields whose malformed values were swallowed by ignore_malformed
// are recorded so the document remembers what it dropped.
func (ix *Index) prepare(docID string, doc map[string]any) (*ops.PutPrepared, error) {
	for key := range doc {
		if key == "_id" {
			continue
		}
		if _, ok := ix.mappers[key]; !ok {
			return nil, MappingError(fmt.Sprintf("unknown field [%s]; not in the index mapping", key))
		}
	}

	prep := &ops.PutPrepared{DocID: docID}
	for _, name := range ix.mapping.FieldNames() {
		raw, ok := doc[name]
		if !ok {
			continue
		}
		mapper := ix.mappers[name]
		values, multi := raw.([]any)
		if !multi {
			values = []any{raw}
		}

		dvOrd, stOrd := 0, 0
		ignored := false
		for _, v := range values {
			arts, outcome, err := mapper.Emit(v)
			ix.opts.Metrics.RecordEmit(name, outcome)
			if err != nil {
				return nil, err
			}
			if outcome == OutcomeIgnored {
				ignored = true
				ix.opts.Logger.Debug().Str("doc", docID).Str("field", name).Msg("malformed value ignored")
			}
			for _, a := range arts {
				switch a.Kind {
				case ArtifactPoint:
					prep.Points = append(prep.Points, ops.PointRow{Field: a.Field, Value: a.Value})
				case ArtifactDocValues:
					prep.DocVals = append(prep.DocVals, ops.ValueRow{Field: a.Field, Ord: dvOrd, Value: a.Value})
					dvOrd++
				case ArtifactStored:
					prep.Stored = append(prep.Stored, ops.ValueRow{Field: a.Field, Ord: stOrd, Value: a.Value})
					stOrd++
				}
			}
		}
		if ignored {
			prep.Ignored = append(prep.Ignored, name)
		}
	}
	return prep, nil
}

// Get reads a document back. Field content comes from doc values, falling
// back to stored rows for fields that keep only stored copies; each encoded
// integer is paired with its exact decimal rendering.
func (ix *Index) Get(ctx context.Context, docID string) (DocView, error) {
	d, err := ops.GetDoc(ctx, ix.db, ix.adapter.SQL(), docID)
	if err == sql.ErrNoRows {
		return DocView{}, NotFoundError(docID)
	}
	if err != nil {
		return DocView{}, Wrap(ErrSQL, "get doc", err)
	}

	byField := func(rows []ops.ValueRow) map[string][]int64 {
		out := make(map[string][]int64, len(rows))
		for _, r := range rows {
			out[r.Field] = append(out[r.Field], r.Value)
		}
		return out
	}
	merged := byField(d.DocValues)
	for field, vals := range byField(d.Stored) {
		if _, ok := merged[field]; !ok {
			merged[field] = vals
		}
	}

	view := DocView{
		DocID:   docID,
		Fields:  make(map[string]FieldView, len(merged)),
		Ignored: d.Ignored,
		Meta:    DocMeta{CreatedAtMS: d.CreatedAtMS, UpdatedAtMS: d.UpdatedAtMS},
	}
	for field, vals := range merged {
		cfg, ok := ix.mapping.Get(field)
		if !ok {
			return DocView{}, MappingError(fmt.Sprintf("stored rows reference unmapped field [%s]", field))
		}
		fv := FieldView{Encoded: vals, Decoded: make([]string, 0, len(vals))}
		for _, enc := range vals {
			dec, err := DecodeDecimal(enc, cfg.ScalingFactor)
			if err != nil {
				return DocView{}, err
			}
			fv.Decoded = append(fv.Decoded, dec.String())
		}
		view.Fields[field] = fv
	}
	return view, nil
}

// Delete removes a document by ID. Returns true when it existed.
func (ix *Index) Delete(ctx context.Context, docID string) (bool, error) {
	found, err := ops.DeleteDoc(ctx, ix.db, ix.adapter.SQL(), docID)
	if err != nil {
		return false, Wrap(ErrSQL, "delete", err)
	}
	return found, nil
}

// Range returns the IDs of documents whose field holds at least one value
// inside the given decimal bounds, ordered by document ID. A nil bound
// leaves that side open.
func (ix *Index) Range(ctx context.Context, field string, lower, upper *float64, includeLower, includeUpper bool) ([]string, error) {
	cfg, ok := ix.mapping.Get(field)
	if !ok {
		return nil, MappingError(fmt.Sprintf("unknown field [%s]", field))
	}
	if !cfg.Index {
		return nil, MappingError(fmt.Sprintf("Cannot search on field [%s] since it is not indexed", field))
	}

	lo, hi, err := RangeBounds(lower, upper, includeLower, includeUpper, cfg.ScalingFactor)
	if err != nil {
		return nil, withField(field, err)
	}

	ids, err := ops.RangeDocs(ctx, ix.db, ix.adapter.SQL(), field, lo, hi)
	if err != nil {
		return nil, Wrap(ErrSQL, "range", err)
	}
	ix.opts.Metrics.RecordRange()
	ix.opts.Logger.Debug().
		Str("field", field).
		Int64("lo", lo).
		Int64("hi", hi).
		Int("hits", len(ids)).
		Msg("range query")
	return ids, nil
}

// Stats aggregates a field's doc values across the whole index.
func (ix *Index) Stats(ctx context.Context, field string) (StatsResult, error) {
	cfg, ok := ix.mapping.Get(field)
	if !ok {
		return StatsResult{}, MappingError(fmt.Sprintf("unknown field [%s]", field))
	}
	if !cfg.DocValues {
		return StatsResult{}, MappingError(fmt.Sprintf("cannot aggregate on field [%s] without doc values", field))
	}

	agg, err := NewFieldStats(field, cfg.ScalingFactor)
	if err != nil {
		return StatsResult{}, err
	}
	if err := ops.ScanFieldValues(ctx, ix.db, ix.adapter.SQL(), field, agg.Observe); err != nil {
		var fe *Error
		if errors.As(err, &fe) {
			return StatsResult{}, err
		}
		return StatsResult{}, Wrap(ErrSQL, "stats", err)
	}
	res, err := agg.Result()
	if err != nil {
		return StatsResult{}, err
	}
	ix.opts.Metrics.RecordStats()
	ix.opts.Logger.Debug().
		Str("field", field).
		Uint64("count", res.Count).
		Msg("stats aggregated")
	return res, nil
}

// Count reports the number of documents in the index.
func (ix *Index) Count(ctx context.Context) (uint64, error) {
	n, err := ops.CountDocs(ctx, ix.db, ix.adapter.SQL())
	if err != nil {
		return 0, Wrap(ErrSQL, "count", err)
	}
	return n, nil
}

// Optimize runs backend-specific maintenance (vacuum, analyze).
func (ix *Index) Optimize(ctx context.Context) error {
	return ix.adapter.Optimize(ctx, ix.db)
}

// Adapter returns the underlying storage adapter.
func (ix *Index) Adapter() storage.Adapter {
	return ix.adapter
}

// DB returns the underlying database connection (for advanced use).
func (ix *Index) DB() *sql.DB {
	return ix.db
}

// nowMS returns current time in milliseconds since epoch.
func (ix *Index) nowMS() int64 {
	return ix.opts.Now().UnixMilli()
}

func normalizeOptions(opts Options) Options {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return opts
}

// decodeDoc splits a JSON document into its "_id" and field values.
func decodeDoc(docJSON []byte) (string, map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(docJSON))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return "", nil, Wrap(ErrMapping, "document json", err)
	}
	id, _ := doc["_id"].(string)
	if id == "" {
		return "", nil, MappingError("document must contain a non-empty '_id'")
	}
	delete(doc, "_id")
	return id, doc, nil
}
