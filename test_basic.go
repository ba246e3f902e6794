package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/scalefield/scalefield/scalefield"
	"github.com/scalefield/scalefield/scalefield/storage/sqlite"
)

func main() {
	ctx := context.Background()
	dbPath := "test_index.db"

	// Clean up any existing test database
	os.Remove(dbPath)

	fmt.Println("=== Testing Scalefield Implementation ===")

	// Test 1: Create an index with a mapping
	fmt.Println("Test 1: Creating index with mapping...")
	nullRating := 1.0
	mapping := scalefield.Mapping{
		Fields: map[string]scalefield.FieldConfig{
			"price": {
				Field:         "price",
				ScalingFactor: 100,
				Index:         true,
				DocValues:     true,
				Store:         true,
				Coerce:        true,
			},
			"rating": {
				Field:           "rating",
				ScalingFactor:   10,
				Index:           true,
				DocValues:       true,
				Coerce:          true,
				IgnoreMalformed: true,
				NullValue:       &nullRating,
			},
		},
	}

	adapter := sqlite.New(dbPath)
	ix, err := scalefield.Create(ctx, adapter, mapping, scalefield.DefaultOptions())
	if err != nil {
		log.Fatalf("Failed to create index: %v", err)
	}
	fmt.Println("✓ Index created successfully")

	// Test 2: Put documents
	fmt.Println("\nTest 2: Putting documents...")
	docs := []struct {
		id  string
		doc map[string]any
	}{
		{"laptop", map[string]any{"price": 1299.99, "rating": 4.5}},
		{"mouse", map[string]any{"price": "24.95", "rating": 4.0}},
		{"cable", map[string]any{"price": []any{9.99, 12.49}, "rating": nil}},
	}
	for _, d := range docs {
		if err := ix.Put(ctx, d.id, d.doc); err != nil {
			log.Fatalf("Failed to put %s: %v", d.id, err)
		}
	}
	fmt.Printf("✓ Put %d documents\n", len(docs))

	// Test 3: Malformed value swallowed by ignore_malformed
	fmt.Println("\nTest 3: Putting a document with a malformed rating...")
	if err := ix.Put(ctx, "monitor", map[string]any{"price": 349.0, "rating": "not a number"}); err != nil {
		log.Fatalf("Failed to put monitor: %v", err)
	}
	view, err := ix.Get(ctx, "monitor")
	if err != nil {
		log.Fatalf("Failed to get monitor: %v", err)
	}
	if len(view.Ignored) != 1 || view.Ignored[0] != "rating" {
		log.Fatalf("Expected rating in ignored list, got %v", view.Ignored)
	}
	fmt.Printf("✓ Malformed rating ignored, recorded as %v\n", view.Ignored)

	// Test 4: Close and reopen, mapping persists
	fmt.Println("\nTest 4: Closing and reopening index...")
	if err := ix.Close(); err != nil {
		log.Fatalf("Failed to close index: %v", err)
	}
	ix, err = scalefield.Open(ctx, adapter, scalefield.DefaultOptions())
	if err != nil {
		log.Fatalf("Failed to reopen index: %v", err)
	}
	if got := len(ix.Mapping().Fields); got != len(mapping.Fields) {
		log.Fatalf("Mapping mismatch: expected %d fields, got %d", len(mapping.Fields), got)
	}
	fmt.Printf("✓ Index reopened, mapping persisted (%d fields)\n", len(ix.Mapping().Fields))

	// Test 5: Get with exact decimal rendering
	fmt.Println("\nTest 5: Testing Get()...")
	view, err = ix.Get(ctx, "laptop")
	if err != nil {
		log.Fatalf("Failed to get laptop: %v", err)
	}
	price := view.Fields["price"]
	if len(price.Encoded) != 1 || price.Encoded[0] != 129999 {
		log.Fatalf("Expected encoded price [129999], got %v", price.Encoded)
	}
	if price.Decoded[0] != "1299.99" {
		log.Fatalf("Expected decoded price 1299.99, got %s", price.Decoded[0])
	}
	fmt.Printf("✓ laptop price: %s (encoded %d)\n", price.Decoded[0], price.Encoded[0])

	// Test 6: Get on a missing document
	fmt.Println("\nTest 6: Testing Get() on non-existent document...")
	_, err = ix.Get(ctx, "does-not-exist")
	if err == nil {
		log.Fatal("Expected error for non-existent document")
	}
	if !scalefield.IsKind(err, scalefield.ErrNotFound) {
		log.Fatalf("Expected NotFound error, got: %v", err)
	}
	fmt.Println("✓ Correctly returns NotFound error")

	// Test 7: Range query over encoded points
	fmt.Println("\nTest 7: Testing range query...")
	lo, hi := 10.0, 400.0
	ids, err := ix.Range(ctx, "price", &lo, &hi, true, true)
	if err != nil {
		log.Fatalf("Range query failed: %v", err)
	}
	// cable matches through its second array element (12.49), mouse at
	// 24.95, monitor at 349.0; laptop is out of range.
	if len(ids) != 3 {
		log.Fatalf("Expected 3 documents in [10, 400], got %v", ids)
	}
	fmt.Printf("✓ Range [%.2f, %.2f] matched: %v\n", lo, hi, ids)

	// Test 8: Stats over doc values
	fmt.Println("\nTest 8: Testing stats...")
	stats, err := ix.Stats(ctx, "rating")
	if err != nil {
		log.Fatalf("Stats failed: %v", err)
	}
	// laptop 4.5, mouse 4.0, cable null_value 1.0; monitor's rating was
	// ignored.
	if stats.Count != 3 {
		log.Fatalf("Expected 3 rating values, got %d", stats.Count)
	}
	fmt.Printf("✓ rating stats: count=%d min=%g max=%g sum=%s avg=%s\n",
		stats.Count, *stats.Min, *stats.Max, stats.Sum, stats.Avg)

	// Test 9: Batch put and delete in one transaction
	fmt.Println("\nTest 9: Testing batch operations...")
	batch := scalefield.NewBatch()
	if !batch.Empty() {
		log.Fatal("New batch should be empty")
	}
	if err := batch.Put("keyboard", map[string]any{"price": 59.5}); err != nil {
		log.Fatalf("Batch put failed: %v", err)
	}
	if err := batch.Delete("cable"); err != nil {
		log.Fatalf("Batch delete failed: %v", err)
	}
	applied, err := batch.Execute(ctx, ix)
	if err != nil {
		log.Fatalf("Batch execute failed: %v", err)
	}
	if applied != 2 {
		log.Fatalf("Expected 2 applied operations, got %d", applied)
	}
	fmt.Printf("✓ Batch applied %d operations\n", applied)

	// Test 10: Count and delete
	fmt.Println("\nTest 10: Testing count and delete...")
	n, err := ix.Count(ctx)
	if err != nil {
		log.Fatalf("Count failed: %v", err)
	}
	if n != 4 {
		log.Fatalf("Expected 4 documents, got %d", n)
	}
	deleted, err := ix.Delete(ctx, "mouse")
	if err != nil {
		log.Fatalf("Delete failed: %v", err)
	}
	if !deleted {
		log.Fatal("Expected mouse to be deleted")
	}
	fmt.Printf("✓ Count=%d, then deleted mouse\n", n)

	// Test 11: Optimize
	fmt.Println("\nTest 11: Testing optimize...")
	if err := ix.Optimize(ctx); err != nil {
		log.Fatalf("Failed to optimize: %v", err)
	}
	fmt.Println("✓ Optimize completed")

	// Cleanup
	ix.Close()
	fmt.Println("\n=== All Tests Passed! ===")
	fmt.Printf("\nDatabase created at: %s\n", dbPath)
	fmt.Println("You can inspect it with: sqlite3 test_index.db")
}
