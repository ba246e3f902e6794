package scalefield_test

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/scalefield/scalefield/scalefield"
	"github.com/scalefield/scalefield/scalefield/storage/sqlite"
)

func monotonicNow(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Millisecond)
		return t
	}
}

func mustMapping(t *testing.T, mappingJSON string) scalefield.Mapping {
	t.Helper()
	m, err := scalefield.ParseMapping([]byte(mappingJSON), scalefield.DefaultSettings())
	if err != nil {
		t.Fatalf("ParseMapping: %v", err)
	}
	return m
}

func newIndex(t *testing.T, mapping scalefield.Mapping) (*scalefield.Index, string) {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	opts := scalefield.DefaultOptions()
	opts.Now = monotonicNow(time.Unix(1700000000, 0)) // deterministic ordering

	ix, err := scalefield.Create(context.Background(), sqlite.New(dbPath), mapping, opts)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { _ = ix.Close() })
	return ix, dbPath
}

func fptr(v float64) *float64 { return &v }

const catalogMapping = `{
	"fields": {
		"price":  {"type": "scaled_float", "scaling_factor": 100, "store": true},
		"rating": {"type": "scaled_float", "scaling_factor": 10, "ignore_malformed": true, "null_value": 1.0}
	}
}`

func TestPutGetDelete_SQLite(t *testing.T) {
	ix, _ := newIndex(t, mustMapping(t, catalogMapping))
	ctx := context.Background()

	doc := map[string]any{
		"price":  1299.99,
		"rating": 4.5,
	}
	if err := ix.Put(ctx, "laptop", doc); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := ix.Get(ctx, "laptop")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.DocID != "laptop" {
		t.Fatalf("unexpected doc id: %s", got.DocID)
	}
	price, ok := got.Fields["price"]
	if !ok || len(price.Encoded) != 1 || price.Encoded[0] != 129999 {
		t.Fatalf("unexpected price: %+v", price)
	}
	if price.Decoded[0] != "1299.99" {
		t.Fatalf("price decoded = %q, want 1299.99", price.Decoded[0])
	}
	rating := got.Fields["rating"]
	if len(rating.Encoded) != 1 || rating.Encoded[0] != 45 {
		t.Fatalf("unexpected rating: %+v", rating)
	}
	if got.Meta.CreatedAtMS == 0 || got.Meta.UpdatedAtMS == 0 {
		t.Fatalf("expected timestamps, got created=%d updated=%d", got.Meta.CreatedAtMS, got.Meta.UpdatedAtMS)
	}

	deleted, err := ix.Delete(ctx, "laptop")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !deleted {
		t.Fatalf("expected deleted=true")
	}

	_, err = ix.Get(ctx, "laptop")
	if err == nil || !scalefield.IsKind(err, scalefield.ErrNotFound) {
		t.Fatalf("expected not found, got: %v", err)
	}

	deleted, err = ix.Delete(ctx, "laptop")
	if err != nil {
		t.Fatalf("Delete twice: %v", err)
	}
	if deleted {
		t.Fatalf("expected deleted=false on second delete")
	}
}

func TestUpdateReplacesFieldRows_SQLite(t *testing.T) {
	ix, _ := newIndex(t, mustMapping(t, catalogMapping))
	ctx := context.Background()

	if err := ix.Put(ctx, "item", map[string]any{"price": 10.00}); err != nil {
		t.Fatalf("Put v1: %v", err)
	}
	if err := ix.Put(ctx, "item", map[string]any{"price": 25.50}); err != nil {
		t.Fatalf("Put v2: %v", err)
	}

	got, err := ix.Get(ctx, "item")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	price := got.Fields["price"]
	if len(price.Encoded) != 1 || price.Encoded[0] != 2550 {
		t.Fatalf("expected single replaced value 2550, got %+v", price)
	}
	if got.Meta.CreatedAtMS >= got.Meta.UpdatedAtMS {
		t.Fatalf("expected created < updated, got created=%d updated=%d", got.Meta.CreatedAtMS, got.Meta.UpdatedAtMS)
	}

	// The old point row must be gone or the doc would still match its
	// previous value.
	ids, err := ix.Range(ctx, "price", fptr(9.0), fptr(11.0), true, true)
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("stale point rows still match: %v", ids)
	}
}

func TestRangeQueries_SQLite(t *testing.T) {
	ix, _ := newIndex(t, mustMapping(t, catalogMapping))
	ctx := context.Background()

	put := func(id string, doc map[string]any) {
		t.Helper()
		if err := ix.Put(ctx, id, doc); err != nil {
			t.Fatalf("Put(%s): %v", id, err)
		}
	}

	put("laptop", map[string]any{"price": 1299.99})
	put("mouse", map[string]any{"price": "24.95"}) // string form, coerced
	put("cable", map[string]any{"price": []any{9.99, 12.49}})

	check := func(name string, got []string, want ...string) {
		t.Helper()
		if len(got) != len(want) {
			t.Fatalf("%s: got %v want %v", name, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s: got %v want %v", name, got, want)
			}
		}
	}

	// Inclusive bounds
	{
		ids, err := ix.Range(ctx, "price", fptr(10.0), fptr(400.0), true, true)
		if err != nil {
			t.Fatalf("Range [10,400]: %v", err)
		}
		check("[10,400]", ids, "cable", "mouse")
	}

	// Exclusive lower: gt 9.99 excludes the encoded 999 but keeps the
	// second array element 1249.
	{
		ids, err := ix.Range(ctx, "price", fptr(9.99), nil, false, false)
		if err != nil {
			t.Fatalf("Range (9.99,]: %v", err)
		}
		check("(9.99,]", ids, "cable", "laptop", "mouse")
	}

	// Inclusive lower hits the endpoint exactly.
	{
		ids, err := ix.Range(ctx, "price", fptr(9.99), fptr(10.0), true, true)
		if err != nil {
			t.Fatalf("Range [9.99,10]: %v", err)
		}
		check("[9.99,10]", ids, "cable")
	}

	// Exclusive upper: lt 24.95 keeps cable, drops mouse.
	{
		ids, err := ix.Range(ctx, "price", nil, fptr(24.95), false, false)
		if err != nil {
			t.Fatalf("Range [,24.95): %v", err)
		}
		check("[,24.95)", ids, "cable")
	}

	// Open on both sides matches everything.
	{
		ids, err := ix.Range(ctx, "price", nil, nil, false, false)
		if err != nil {
			t.Fatalf("Range open: %v", err)
		}
		check("open", ids, "cable", "laptop", "mouse")
	}
}

func TestIgnoreMalformedAndNullValue_SQLite(t *testing.T) {
	ix, _ := newIndex(t, mustMapping(t, catalogMapping))
	ctx := context.Background()

	// rating has ignore_malformed; the junk value is dropped and recorded.
	err := ix.Put(ctx, "monitor", map[string]any{"price": 349.00, "rating": "not a number"})
	if err != nil {
		t.Fatalf("Put with malformed rating: %v", err)
	}
	got, err := ix.Get(ctx, "monitor")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Ignored) != 1 || got.Ignored[0] != "rating" {
		t.Fatalf("ignored = %v, want [rating]", got.Ignored)
	}
	if _, ok := got.Fields["rating"]; ok {
		t.Fatalf("ignored rating still produced rows: %+v", got.Fields["rating"])
	}

	// rating has null_value; explicit null indexes the substitute.
	if err := ix.Put(ctx, "desk", map[string]any{"rating": nil}); err != nil {
		t.Fatalf("Put with null rating: %v", err)
	}
	got, err = ix.Get(ctx, "desk")
	if err != nil {
		t.Fatalf("Get desk: %v", err)
	}
	rating := got.Fields["rating"]
	if len(rating.Encoded) != 1 || rating.Encoded[0] != 10 {
		t.Fatalf("null rating = %+v, want encoded [10]", rating)
	}

	// price is strict, so the same junk is fatal and nothing is written.
	err = ix.Put(ctx, "chair", map[string]any{"price": "not a number"})
	if err == nil || !scalefield.IsKind(err, scalefield.ErrMalformed) {
		t.Fatalf("expected malformed error, got %v", err)
	}
	if _, err := ix.Get(ctx, "chair"); !scalefield.IsKind(err, scalefield.ErrNotFound) {
		t.Fatalf("failed put left partial state: %v", err)
	}
}

func TestStatsAggregation_SQLite(t *testing.T) {
	ix, _ := newIndex(t, mustMapping(t, catalogMapping))
	ctx := context.Background()

	put := func(id string, doc map[string]any) {
		t.Helper()
		if err := ix.Put(ctx, id, doc); err != nil {
			t.Fatalf("Put(%s): %v", id, err)
		}
	}

	put("a", map[string]any{"rating": 4.5})
	put("b", map[string]any{"rating": 4.0})
	put("c", map[string]any{"rating": nil}) // null_value 1.0
	put("d", map[string]any{"rating": 2.5})
	put("e", map[string]any{"price": 9.99}) // no rating at all

	stats, err := ix.Stats(ctx, "rating")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Count != 4 {
		t.Fatalf("count=%d want 4", stats.Count)
	}
	if stats.Min == nil || *stats.Min != 1.0 {
		t.Fatalf("min=%v want 1", stats.Min)
	}
	if stats.Max == nil || *stats.Max != 4.5 {
		t.Fatalf("max=%v want 4.5", stats.Max)
	}
	if stats.Sum != "12" {
		t.Fatalf("sum=%q want 12", stats.Sum)
	}
	if stats.Avg != "3" {
		t.Fatalf("avg=%q want 3", stats.Avg)
	}

	empty, err := ix.Stats(ctx, "price")
	if err != nil {
		t.Fatalf("Stats price: %v", err)
	}
	// e is the only doc with a price.
	if empty.Count != 1 || empty.Sum != "9.99" {
		t.Fatalf("price stats = %+v", empty)
	}
}

func TestQueryGates_SQLite(t *testing.T) {
	mapping := mustMapping(t, `{
		"fields": {
			"hidden": {"type": "scaled_float", "scaling_factor": 10, "index": false},
			"blind":  {"type": "scaled_float", "scaling_factor": 10, "doc_values": false}
		}
	}`)
	ix, _ := newIndex(t, mapping)
	ctx := context.Background()

	_, err := ix.Range(ctx, "hidden", fptr(1), fptr(2), true, true)
	if err == nil || !strings.Contains(err.Error(), "Cannot search on field [hidden] since it is not indexed") {
		t.Fatalf("range on unindexed field: %v", err)
	}

	_, err = ix.Stats(ctx, "blind")
	if err == nil || !strings.Contains(err.Error(), "cannot aggregate on field [blind] without doc values") {
		t.Fatalf("stats without doc values: %v", err)
	}

	if _, err := ix.Range(ctx, "nope", nil, nil, false, false); err == nil {
		t.Fatalf("expected unknown field error for range")
	}
	if _, err := ix.Stats(ctx, "nope"); err == nil {
		t.Fatalf("expected unknown field error for stats")
	}

	err = ix.Put(ctx, "doc", map[string]any{"extra": 1.0})
	if err == nil || !scalefield.IsKind(err, scalefield.ErrMapping) {
		t.Fatalf("expected mapping error for unmapped field, got %v", err)
	}
}

func TestBatchApply_SQLite(t *testing.T) {
	ix, _ := newIndex(t, mustMapping(t, catalogMapping))
	ctx := context.Background()

	if err := ix.Put(ctx, "old", map[string]any{"price": 5.00}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	b := scalefield.NewBatch()
	if err := b.Put("kb", map[string]any{"price": 59.50}); err != nil {
		t.Fatalf("batch put kb: %v", err)
	}
	if err := b.PutJSON([]byte(`{"_id": "pad", "price": 19.99}`)); err != nil {
		t.Fatalf("batch put pad: %v", err)
	}
	if err := b.Delete("old"); err != nil {
		t.Fatalf("batch delete old: %v", err)
	}
	if err := b.Delete("missing"); err != nil {
		t.Fatalf("batch delete missing: %v", err)
	}

	applied, err := b.Execute(ctx, ix)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	// The delete of a missing doc is skipped.
	if applied != 3 {
		t.Fatalf("applied=%d want 3", applied)
	}

	n, err := ix.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Fatalf("count=%d want 2", n)
	}

	got, err := ix.Get(ctx, "pad")
	if err != nil {
		t.Fatalf("Get pad: %v", err)
	}
	if got.Fields["price"].Encoded[0] != 1999 {
		t.Fatalf("pad price = %+v", got.Fields["price"])
	}
}

func TestReopenIndex_SQLite(t *testing.T) {
	ix, dbPath := newIndex(t, mustMapping(t, catalogMapping))
	ctx := context.Background()

	if err := ix.PutJSON(ctx, []byte(`{"_id": "laptop", "price": 1299.99}`)); err != nil {
		t.Fatalf("PutJSON: %v", err)
	}
	if err := ix.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	opts := scalefield.DefaultOptions()
	opts.Now = monotonicNow(time.Unix(1700005000, 0))
	reopened, err := scalefield.Open(ctx, sqlite.New(dbPath), opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })

	cfg, ok := reopened.Mapping().Get("price")
	if !ok || cfg.ScalingFactor != 100 || !cfg.Store {
		t.Fatalf("mapping not restored: %+v", cfg)
	}
	rating, ok := reopened.Mapping().Get("rating")
	if !ok || !rating.IgnoreMalformed || rating.NullValue == nil {
		t.Fatalf("rating config not restored: %+v", rating)
	}

	got, err := reopened.Get(ctx, "laptop")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.Fields["price"].Decoded[0] != "1299.99" {
		t.Fatalf("price decoded = %q", got.Fields["price"].Decoded[0])
	}

	if err := reopened.Optimize(ctx); err != nil {
		t.Fatalf("Optimize: %v", err)
	}
}

func TestPutJSONRequiresID_SQLite(t *testing.T) {
	ix, _ := newIndex(t, mustMapping(t, catalogMapping))
	ctx := context.Background()

	err := ix.PutJSON(ctx, []byte(`{"price": 1.0}`))
	if err == nil || !scalefield.IsKind(err, scalefield.ErrMapping) {
		t.Fatalf("expected mapping error for missing _id, got %v", err)
	}

	if err := ix.PutJSON(ctx, []byte(`{"_id": "x", "price": 1.0`)); err == nil {
		t.Fatalf("expected error for truncated JSON")
	}
}
