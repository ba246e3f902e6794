package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/scalefield/scalefield/internal/logging"
	"github.com/scalefield/scalefield/scalefield"
	"github.com/scalefield/scalefield/scalefield/storage"
	"github.com/scalefield/scalefield/scalefield/storage/postgres"
	"github.com/scalefield/scalefield/scalefield/storage/sqlite"
)

// setArgs is a custom flag type for repeatable --set flags
type setArgs []string

func (s *setArgs) String() string { return strings.Join(*s, ",") }
func (s *setArgs) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	ctx := context.Background()

	switch command {
	case "create":
		handleCreate(ctx, os.Args[2:])
	case "mapping":
		handleMapping(ctx, os.Args[2:])
	case "put":
		handlePut(ctx, os.Args[2:])
	case "get":
		handleGet(ctx, os.Args[2:])
	case "delete":
		handleDelete(ctx, os.Args[2:])
	case "range":
		handleRange(ctx, os.Args[2:])
	case "stats":
		handleStats(ctx, os.Args[2:])
	case "count":
		handleCount(ctx, os.Args[2:])
	case "optimize":
		handleOptimize(ctx, os.Args[2:])
	case "encode":
		handleEncode(os.Args[2:])
	case "decode":
		handleDecode(os.Args[2:])
	case "reproject":
		handleReproject(os.Args[2:])
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("scalefield - a scaled-float field index")
	fmt.Println("\nUsage:")
	fmt.Println("  scalefield create -db <path> -mapping <mapping.json> [backend flags]")
	fmt.Println("  scalefield mapping -db <path> [backend flags]")
	fmt.Println("  scalefield put -db <path> --json [backend flags]                 (read JSON lines from stdin)")
	fmt.Println("  scalefield put -db <path> -id <doc-id> --set field=value... [backend flags]")
	fmt.Println("  scalefield get -db <path> -id <doc-id> [--format pretty|json] [backend flags]")
	fmt.Println("  scalefield delete -db <path> -id <doc-id> [backend flags]")
	fmt.Println("  scalefield range -db <path> -field <field> [--gt|--gte N] [--lt|--lte N] [backend flags]")
	fmt.Println("  scalefield stats -db <path> -field <field> [--format pretty|json] [backend flags]")
	fmt.Println("  scalefield count -db <path> [backend flags]")
	fmt.Println("  scalefield optimize -db <path> [backend flags]")
	fmt.Println("  scalefield encode -sf <factor> -value <decimal>")
	fmt.Println("  scalefield decode -sf <factor> -encoded <integer>")
	fmt.Println("  scalefield reproject -sf <factor> -value <json-token> [-null-value N]")
	fmt.Println("\nBackend flags:")
	fmt.Println("  -backend sqlite|postgres   (default sqlite)")
	fmt.Println("  -db <path>                 sqlite database path")
	fmt.Println("  -dsn <conn-string>         postgres connection string")
	fmt.Println("  -schema <name>             postgres schema (default: scalefield)")
	fmt.Println("  -v <level>                 verbosity: 0=warn, 1=info, 2=debug")
}

// backendFlags are the connection flags shared by every index command.
type backendFlags struct {
	backend *string
	db      *string
	dsn     *string
	schema  *string
	verbose *int
}

func addBackendFlags(fs *flag.FlagSet) *backendFlags {
	return &backendFlags{
		backend: fs.String("backend", "sqlite", "backend: sqlite or postgres"),
		db:      fs.String("db", "", "sqlite database path"),
		dsn:     fs.String("dsn", "", "postgres connection string"),
		schema:  fs.String("schema", "", "postgres schema name (default: scalefield)"),
		verbose: fs.Int("v", 0, "verbosity: 0=warn, 1=info, 2=debug"),
	}
}

func (b *backendFlags) adapter() (storage.Adapter, error) {
	switch *b.backend {
	case "postgres", "pg":
		if *b.dsn == "" {
			return nil, fmt.Errorf("-dsn required for postgres backend")
		}
		schema := *b.schema
		if schema == "" {
			schema = "scalefield"
		}
		return postgres.New(*b.dsn, schema), nil
	case "sqlite":
		if *b.db == "" {
			return nil, fmt.Errorf("-db required for sqlite backend")
		}
		return sqlite.New(*b.db), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", *b.backend)
	}
}

func (b *backendFlags) options() scalefield.Options {
	opts := scalefield.DefaultOptions()
	opts.Logger = logging.New(*b.verbose)
	return opts
}

func (b *backendFlags) open(ctx context.Context) *scalefield.Index {
	adapter, err := b.adapter()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	ix, err := scalefield.Open(ctx, adapter, b.options())
	if err != nil {
		fmt.Printf("Error opening index: %v\n", err)
		os.Exit(1)
	}
	return ix
}

func handleCreate(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	mappingFile := fs.String("mapping", "", "mapping JSON file (required)")
	bf := addBackendFlags(fs)
	fs.Parse(args)

	if *mappingFile == "" {
		fs.Usage()
		os.Exit(1)
	}

	mappingData, err := os.ReadFile(*mappingFile)
	if err != nil {
		fmt.Printf("Error reading mapping file: %v\n", err)
		os.Exit(1)
	}

	mapping, err := scalefield.ParseMapping(mappingData, scalefield.DefaultSettings())
	if err != nil {
		fmt.Printf("Error parsing mapping: %v\n", err)
		os.Exit(1)
	}

	adapter, err := bf.adapter()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	ix, err := scalefield.Create(ctx, adapter, mapping, bf.options())
	if err != nil {
		fmt.Printf("Error creating index: %v\n", err)
		os.Exit(1)
	}
	defer ix.Close()

	fmt.Printf("Created index (%s)\n", adapter.IndexID())
	fmt.Printf("Fields: %d\n", len(mapping.Fields))
}

func handleMapping(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("mapping", flag.ExitOnError)
	bf := addBackendFlags(fs)
	fs.Parse(args)

	ix := bf.open(ctx)
	defer ix.Close()

	mappingJSON, err := json.MarshalIndent(ix.Mapping(), "", "  ")
	if err != nil {
		fmt.Printf("Error encoding mapping: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(mappingJSON))
}

func handlePut(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("put", flag.ExitOnError)
	docID := fs.String("id", "", "document id (for single put with --set)")
	jsonMode := fs.Bool("json", false, "read JSON lines from stdin")
	bf := addBackendFlags(fs)

	var sets setArgs
	fs.Var(&sets, "set", "set field value field=value (repeatable)")

	fs.Parse(args)

	ix := bf.open(ctx)
	defer ix.Close()

	if *jsonMode {
		scanner := bufio.NewScanner(os.Stdin)
		count := 0
		for scanner.Scan() {
			line := scanner.Text()
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := ix.PutJSON(ctx, []byte(line)); err != nil {
				fmt.Printf("Error putting document: %v\n", err)
				os.Exit(1)
			}
			count++
		}
		if err := scanner.Err(); err != nil {
			fmt.Printf("Error reading stdin: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Put %d documents\n", count)
	} else if *docID != "" {
		// Values arrive as strings; the coerce policy of each field decides
		// whether they parse.
		doc := make(map[string]any, len(sets))
		for _, kv := range sets {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				fmt.Printf("Invalid --set %q (expected field=value)\n", kv)
				os.Exit(1)
			}
			doc[parts[0]] = parts[1]
		}

		if err := ix.Put(ctx, *docID, doc); err != nil {
			fmt.Printf("Error putting document: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Put document: %s\n", *docID)
	} else {
		fmt.Println("Either --json or -id with --set flags required")
		os.Exit(1)
	}
}

func handleGet(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	docID := fs.String("id", "", "document id (required)")
	format := fs.String("format", "pretty", "output format: pretty or json")
	bf := addBackendFlags(fs)
	fs.Parse(args)

	if *docID == "" {
		fs.Usage()
		os.Exit(1)
	}

	ix := bf.open(ctx)
	defer ix.Close()

	view, err := ix.Get(ctx, *docID)
	if err != nil {
		if scalefield.IsKind(err, scalefield.ErrNotFound) {
			fmt.Printf("Document not found: %s\n", *docID)
			os.Exit(1)
		}
		fmt.Printf("Error getting document: %v\n", err)
		os.Exit(1)
	}

	if *format == "json" {
		output := map[string]any{
			"_id":     view.DocID,
			"created": view.Meta.CreatedAtMS,
			"updated": view.Meta.UpdatedAtMS,
		}
		fields := make(map[string]any, len(view.Fields))
		for name, fv := range view.Fields {
			fields[name] = map[string]any{"encoded": fv.Encoded, "decoded": fv.Decoded}
		}
		output["fields"] = fields
		if len(view.Ignored) > 0 {
			output["_ignored"] = view.Ignored
		}
		jsonOut, _ := json.Marshal(output)
		fmt.Println(string(jsonOut))
		return
	}

	fmt.Printf("Document: %s\n", view.DocID)
	fmt.Printf("Created: %d\n", view.Meta.CreatedAtMS)
	fmt.Printf("Updated: %d\n", view.Meta.UpdatedAtMS)
	if len(view.Ignored) > 0 {
		fmt.Printf("Ignored: %s\n", strings.Join(view.Ignored, ", "))
	}
	for _, name := range sortedFieldNames(view.Fields) {
		fv := view.Fields[name]
		fmt.Printf("\n%s:\n", name)
		for i := range fv.Encoded {
			fmt.Printf("  %s (encoded %d)\n", fv.Decoded[i], fv.Encoded[i])
		}
	}
}

func sortedFieldNames(fields map[string]scalefield.FieldView) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func handleDelete(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	docID := fs.String("id", "", "document id (required)")
	bf := addBackendFlags(fs)
	fs.Parse(args)

	if *docID == "" {
		fs.Usage()
		os.Exit(1)
	}

	ix := bf.open(ctx)
	defer ix.Close()

	deleted, err := ix.Delete(ctx, *docID)
	if err != nil {
		fmt.Printf("Error deleting document: %v\n", err)
		os.Exit(1)
	}
	if deleted {
		fmt.Printf("Deleted: %s\n", *docID)
	} else {
		fmt.Printf("Document not found: %s\n", *docID)
	}
}

func handleRange(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("range", flag.ExitOnError)
	field := fs.String("field", "", "field name (required)")
	gt := fs.String("gt", "", "exclusive lower bound")
	gte := fs.String("gte", "", "inclusive lower bound")
	lt := fs.String("lt", "", "exclusive upper bound")
	lte := fs.String("lte", "", "inclusive upper bound")
	format := fs.String("format", "pretty", "output format: pretty or json")
	bf := addBackendFlags(fs)
	fs.Parse(args)

	if *field == "" {
		fs.Usage()
		os.Exit(1)
	}
	if *gt != "" && *gte != "" {
		fmt.Println("At most one of --gt and --gte allowed")
		os.Exit(1)
	}
	if *lt != "" && *lte != "" {
		fmt.Println("At most one of --lt and --lte allowed")
		os.Exit(1)
	}

	lower, includeLower, err := parseBound(*gt, *gte)
	if err != nil {
		fmt.Printf("Error parsing lower bound: %v\n", err)
		os.Exit(1)
	}
	upper, includeUpper, err := parseBound(*lt, *lte)
	if err != nil {
		fmt.Printf("Error parsing upper bound: %v\n", err)
		os.Exit(1)
	}

	ix := bf.open(ctx)
	defer ix.Close()

	ids, err := ix.Range(ctx, *field, lower, upper, includeLower, includeUpper)
	if err != nil {
		fmt.Printf("Error running range query: %v\n", err)
		os.Exit(1)
	}

	if *format == "json" {
		jsonOut, _ := json.Marshal(map[string]any{"docs": ids, "count": len(ids)})
		fmt.Println(string(jsonOut))
		return
	}

	for _, id := range ids {
		fmt.Println(id)
	}
	fmt.Printf("--- %d documents ---\n", len(ids))
}

// parseBound turns an exclusive/inclusive flag pair into a bound. At most
// one of the two is set; an empty pair leaves the side open.
func parseBound(exclusive, inclusive string) (*float64, bool, error) {
	text, include := exclusive, false
	if inclusive != "" {
		text, include = inclusive, true
	}
	if text == "" {
		return nil, true, nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, false, err
	}
	return &v, include, nil
}

func handleStats(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	field := fs.String("field", "", "field name (required)")
	format := fs.String("format", "pretty", "output format: pretty or json")
	bf := addBackendFlags(fs)
	fs.Parse(args)

	if *field == "" {
		fs.Usage()
		os.Exit(1)
	}

	ix := bf.open(ctx)
	defer ix.Close()

	stats, err := ix.Stats(ctx, *field)
	if err != nil {
		fmt.Printf("Error getting stats: %v\n", err)
		os.Exit(1)
	}

	if *format == "json" {
		output := map[string]any{
			"field": stats.Field,
			"count": stats.Count,
			"sum":   stats.Sum,
		}
		if stats.Min != nil {
			output["min"] = *stats.Min
		}
		if stats.Max != nil {
			output["max"] = *stats.Max
		}
		if stats.Avg != "" {
			output["avg"] = stats.Avg
		}
		jsonOut, _ := json.Marshal(output)
		fmt.Println(string(jsonOut))
		return
	}

	fmt.Printf("Statistics for field '%s':\n", stats.Field)
	fmt.Printf("  Count: %d\n", stats.Count)
	if stats.Min != nil {
		fmt.Printf("  Min: %g\n", *stats.Min)
	}
	if stats.Max != nil {
		fmt.Printf("  Max: %g\n", *stats.Max)
	}
	fmt.Printf("  Sum: %s\n", stats.Sum)
	if stats.Avg != "" {
		fmt.Printf("  Avg: %s\n", stats.Avg)
	}
}

func handleCount(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("count", flag.ExitOnError)
	bf := addBackendFlags(fs)
	fs.Parse(args)

	ix := bf.open(ctx)
	defer ix.Close()

	n, err := ix.Count(ctx)
	if err != nil {
		fmt.Printf("Error counting documents: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%d documents\n", n)
}

func handleOptimize(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("optimize", flag.ExitOnError)
	bf := addBackendFlags(fs)
	fs.Parse(args)

	ix := bf.open(ctx)
	defer ix.Close()

	if err := ix.Optimize(ctx); err != nil {
		fmt.Printf("Error optimizing index: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Index optimized")
}

func handleEncode(args []string) {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	sf := fs.Float64("sf", 0, "scaling factor (required, positive)")
	value := fs.String("value", "", "decimal value (required)")
	fs.Parse(args)

	if *sf <= 0 || *value == "" {
		fs.Usage()
		os.Exit(1)
	}

	v, err := strconv.ParseFloat(*value, 64)
	if err != nil {
		fmt.Printf("Error parsing value: %v\n", err)
		os.Exit(1)
	}

	encoded, err := scalefield.Encode(v, *sf)
	if err != nil {
		fmt.Printf("Error encoding: %v\n", err)
		os.Exit(1)
	}

	dec, err := scalefield.DecodeDecimal(encoded, *sf)
	if err != nil {
		fmt.Printf("Error rendering: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("encoded: %d\n", encoded)
	fmt.Printf("decodes to: %s\n", dec.String())
}

func handleDecode(args []string) {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	sf := fs.Float64("sf", 0, "scaling factor (required, positive)")
	encoded := fs.Int64("encoded", 0, "encoded integer (required)")
	fs.Parse(args)

	if *sf <= 0 {
		fs.Usage()
		os.Exit(1)
	}

	dec, err := scalefield.DecodeDecimal(*encoded, *sf)
	if err != nil {
		fmt.Printf("Error decoding: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("decoded: %s\n", dec.String())
	fmt.Printf("float64: %g\n", scalefield.Decode(*encoded, *sf))
}

func handleReproject(args []string) {
	fs := flag.NewFlagSet("reproject", flag.ExitOnError)
	sf := fs.Float64("sf", 0, "scaling factor (required, positive)")
	value := fs.String("value", "", "raw source token, as JSON")
	nullValue := fs.String("null-value", "", "substitute for null/absent input")
	fs.Parse(args)

	if *sf <= 0 {
		fs.Usage()
		os.Exit(1)
	}

	cfg := scalefield.FieldConfig{
		Field:         "value",
		ScalingFactor: *sf,
		Index:         scalefield.DefaultIndex,
		DocValues:     scalefield.DefaultDocValues,
		Coerce:        scalefield.DefaultCoerce,
	}
	if *nullValue != "" {
		nv, err := strconv.ParseFloat(*nullValue, 64)
		if err != nil {
			fmt.Printf("Error parsing null-value: %v\n", err)
			os.Exit(1)
		}
		cfg.NullValue = &nv
	}

	mapper, err := scalefield.NewFieldMapper(cfg)
	if err != nil {
		fmt.Printf("Error building mapper: %v\n", err)
		os.Exit(1)
	}

	// The token is interpreted as JSON when it parses as JSON; anything
	// else is handed over as raw text.
	var raw any
	if err := json.Unmarshal([]byte(*value), &raw); err != nil {
		raw = *value
	}

	v, ok, err := mapper.ReprojectValue(raw)
	if err != nil {
		fmt.Printf("Error reprojecting: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		fmt.Println("(absent)")
		return
	}
	fmt.Printf("%g\n", v)
}
