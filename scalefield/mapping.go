package scalefield

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
)

// Mapping defines the scaled fields of an index.
type Mapping struct {
	Fields map[string]FieldConfig `json:"fields"`
}

var validFieldNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

var reservedFieldNames = map[string]bool{
	"_id": true,
}

// ParseMapping interprets user-supplied mapping JSON of the form
//
//	{"fields": {"price": {"type": "scaled_float", "scaling_factor": 100}}}
//
// applying the index-level defaults to every field.
func ParseMapping(data []byte, defaults Defaults) (Mapping, error) {
	var raw struct {
		Fields map[string]map[string]any `json:"fields"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Mapping{}, Wrap(ErrMapping, "invalid mapping JSON", err)
	}
	if len(raw.Fields) == 0 {
		return Mapping{}, MappingError("mapping must define at least one field")
	}

	m := Mapping{Fields: make(map[string]FieldConfig, len(raw.Fields))}
	for name, opts := range raw.Fields {
		if err := validateFieldName(name); err != nil {
			return Mapping{}, err
		}
		cfg, err := ParseFieldConfig(name, opts, defaults)
		if err != nil {
			return Mapping{}, err
		}
		m.Fields[name] = cfg
	}
	return m, nil
}

// Validate checks the mapping invariants.
func (m Mapping) Validate() error {
	if len(m.Fields) == 0 {
		return MappingError("mapping must define at least one field")
	}
	for name, cfg := range m.Fields {
		if err := validateFieldName(name); err != nil {
			return err
		}
		if cfg.Field != name {
			return MappingError(fmt.Sprintf("field entry '%s' names itself '%s'", name, cfg.Field))
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ToJSON serializes the mapping for persistence in the index meta row.
func (m Mapping) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MappingFromJSON deserializes a mapping persisted by ToJSON.
func MappingFromJSON(b []byte) (Mapping, error) {
	var m Mapping
	if err := json.Unmarshal(b, &m); err != nil {
		return Mapping{}, Wrap(ErrMapping, "invalid mapping JSON", err)
	}
	for name, cfg := range m.Fields {
		if cfg.Field == "" {
			cfg.Field = name
			m.Fields[name] = cfg
		}
	}
	if err := m.Validate(); err != nil {
		return Mapping{}, err
	}
	return m, nil
}

// Get retrieves a field configuration by name.
func (m Mapping) Get(name string) (FieldConfig, bool) {
	cfg, ok := m.Fields[name]
	return cfg, ok
}

// FieldNames returns the mapped field names sorted lexically.
func (m Mapping) FieldNames() []string {
	names := make([]string, 0, len(m.Fields))
	for name := range m.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Mappers builds one FieldMapper per mapped field.
func (m Mapping) Mappers() (map[string]*FieldMapper, error) {
	mappers := make(map[string]*FieldMapper, len(m.Fields))
	for name, cfg := range m.Fields {
		fm, err := NewFieldMapper(cfg)
		if err != nil {
			return nil, err
		}
		mappers[name] = fm
	}
	return mappers, nil
}

func validateFieldName(name string) error {
	if !validFieldNameRe.MatchString(name) {
		return MappingError(fmt.Sprintf("invalid field name: %s (must match %s)", name, validFieldNameRe.String()))
	}
	if reservedFieldNames[name] {
		return MappingError(fmt.Sprintf("field name '%s' is reserved", name))
	}
	return nil
}
