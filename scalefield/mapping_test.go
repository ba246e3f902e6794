package scalefield_test

import (
	"strings"
	"testing"

	"github.com/scalefield/scalefield/scalefield"
)

func TestParseMapping(t *testing.T) {
	data := []byte(`{
		"fields": {
			"price":  {"type": "scaled_float", "scaling_factor": 100, "store": true},
			"rating": {"type": "scaled_float", "scaling_factor": 10, "ignore_malformed": true, "null_value": 1.0}
		}
	}`)

	m, err := scalefield.ParseMapping(data, scalefield.DefaultSettings())
	if err != nil {
		t.Fatalf("ParseMapping: %v", err)
	}
	if len(m.Fields) != 2 {
		t.Fatalf("fields = %d, want 2", len(m.Fields))
	}

	price, ok := m.Get("price")
	if !ok {
		t.Fatalf("price not mapped")
	}
	if price.Field != "price" || price.ScalingFactor != 100 || !price.Store {
		t.Fatalf("unexpected price config: %+v", price)
	}

	rating, _ := m.Get("rating")
	if !rating.IgnoreMalformed {
		t.Fatalf("rating should ignore malformed values")
	}
	if rating.NullValue == nil || *rating.NullValue != 1.0 {
		t.Fatalf("rating null_value = %v, want 1.0", rating.NullValue)
	}
}

func TestParseMappingRequiresFields(t *testing.T) {
	for _, data := range []string{`{}`, `{"fields": {}}`} {
		if _, err := scalefield.ParseMapping([]byte(data), scalefield.DefaultSettings()); err == nil {
			t.Fatalf("expected error for mapping %s", data)
		}
	}
}

func TestParseMappingRejectsReservedName(t *testing.T) {
	data := []byte(`{"fields": {"_id": {"type": "scaled_float", "scaling_factor": 10}}}`)
	_, err := scalefield.ParseMapping(data, scalefield.DefaultSettings())
	if err == nil || !strings.Contains(err.Error(), "reserved") {
		t.Fatalf("expected reserved-name error, got %v", err)
	}
}

func TestParseMappingRejectsInvalidName(t *testing.T) {
	data := []byte(`{"fields": {"bad name": {"type": "scaled_float", "scaling_factor": 10}}}`)
	_, err := scalefield.ParseMapping(data, scalefield.DefaultSettings())
	if err == nil || !strings.Contains(err.Error(), "invalid field name") {
		t.Fatalf("expected field-name error, got %v", err)
	}
}

func TestMappingJSONRoundTrip(t *testing.T) {
	data := []byte(`{"fields": {"price": {"type": "scaled_float", "scaling_factor": 100, "index": false, "coerce": false}}}`)
	m, err := scalefield.ParseMapping(data, scalefield.DefaultSettings())
	if err != nil {
		t.Fatalf("ParseMapping: %v", err)
	}

	blob, err := m.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	back, err := scalefield.MappingFromJSON(blob)
	if err != nil {
		t.Fatalf("MappingFromJSON: %v", err)
	}

	got, _ := back.Get("price")
	want, _ := m.Get("price")
	if got != want {
		t.Fatalf("round trip changed config: got %+v want %+v", got, want)
	}
}

// Mappings persisted by older builds may omit the redundant field name
// inside each entry; loading fills it back in from the map key.
func TestMappingFromJSONFillsFieldName(t *testing.T) {
	blob := []byte(`{"fields": {"price": {"scaling_factor": 100, "index": true, "doc_values": true}}}`)
	m, err := scalefield.MappingFromJSON(blob)
	if err != nil {
		t.Fatalf("MappingFromJSON: %v", err)
	}
	cfg, ok := m.Get("price")
	if !ok || cfg.Field != "price" {
		t.Fatalf("field name not filled in: %+v", cfg)
	}
}

func TestMappingValidateNameMismatch(t *testing.T) {
	m := scalefield.Mapping{Fields: map[string]scalefield.FieldConfig{
		"price": {Field: "cost", ScalingFactor: 100},
	}}
	if err := m.Validate(); err == nil {
		t.Fatalf("expected name mismatch error")
	}
}

func TestMappingFieldNamesSorted(t *testing.T) {
	m := scalefield.Mapping{Fields: map[string]scalefield.FieldConfig{
		"zeta":  {Field: "zeta", ScalingFactor: 10},
		"alpha": {Field: "alpha", ScalingFactor: 10},
		"mid":   {Field: "mid", ScalingFactor: 10},
	}}
	names := m.FieldNames()
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestMappingMappers(t *testing.T) {
	data := []byte(`{
		"fields": {
			"price":  {"type": "scaled_float", "scaling_factor": 100},
			"rating": {"type": "scaled_float", "scaling_factor": 10}
		}
	}`)
	m, err := scalefield.ParseMapping(data, scalefield.DefaultSettings())
	if err != nil {
		t.Fatalf("ParseMapping: %v", err)
	}

	mappers, err := m.Mappers()
	if err != nil {
		t.Fatalf("Mappers: %v", err)
	}
	if len(mappers) != 2 || mappers["price"] == nil || mappers["rating"] == nil {
		t.Fatalf("unexpected mappers: %v", mappers)
	}
}
