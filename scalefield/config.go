package scalefield

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Defaults carries the index-level defaults a field inherits when its
// mapping omits the corresponding parameter.
type Defaults struct {
	Coerce          bool
	IgnoreMalformed bool
}

func DefaultSettings() Defaults {
	return Defaults{Coerce: DefaultCoerce, IgnoreMalformed: DefaultIgnoreMalformed}
}

// FieldConfig is the immutable configuration of one scaled_float field.
// Construct it with ParseFieldConfig; after that it is read-only and safe
// to share across goroutines.
type FieldConfig struct {
	Field           string   `json:"field"`
	ScalingFactor   float64  `json:"scaling_factor"`
	Index           bool     `json:"index"`
	DocValues       bool     `json:"doc_values"`
	Store           bool     `json:"store"`
	Coerce          bool     `json:"coerce"`
	IgnoreMalformed bool     `json:"ignore_malformed"`
	NullValue       *float64 `json:"null_value,omitempty"`
}

// ParseFieldConfig builds a FieldConfig from raw mapping options, as decoded
// from JSON. Recognized keys: type, scaling_factor (required, positive),
// index, doc_values, store, coerce, ignore_malformed, null_value. Anything
// else is rejected; configuration errors are always fatal and are never
// softened by ignore_malformed.
func ParseFieldConfig(field string, options map[string]any, defaults Defaults) (FieldConfig, error) {
	cfg := FieldConfig{
		Field:           field,
		Index:           DefaultIndex,
		DocValues:       DefaultDocValues,
		Store:           DefaultStore,
		Coerce:          defaults.Coerce,
		IgnoreMalformed: defaults.IgnoreMalformed,
	}

	seenScalingFactor := false
	for key, raw := range options {
		switch key {
		case "type":
			s, ok := raw.(string)
			if !ok || s != TypeName {
				return FieldConfig{}, ConfigError(field, fmt.Sprintf("wrong type [%v] for field [%s] of type [%s]", raw, field, TypeName))
			}
		case "scaling_factor":
			v, err := floatOption(raw)
			if err != nil {
				return FieldConfig{}, ConfigError(field, fmt.Sprintf("failed to parse parameter [scaling_factor]: %v", err))
			}
			cfg.ScalingFactor = v
			seenScalingFactor = true
		case "index":
			if err := boolOption(raw, &cfg.Index); err != nil {
				return FieldConfig{}, ConfigError(field, fmt.Sprintf("failed to parse parameter [index]: %v", err))
			}
		case "doc_values":
			if err := boolOption(raw, &cfg.DocValues); err != nil {
				return FieldConfig{}, ConfigError(field, fmt.Sprintf("failed to parse parameter [doc_values]: %v", err))
			}
		case "store":
			if err := boolOption(raw, &cfg.Store); err != nil {
				return FieldConfig{}, ConfigError(field, fmt.Sprintf("failed to parse parameter [store]: %v", err))
			}
		case "coerce":
			if err := boolOption(raw, &cfg.Coerce); err != nil {
				return FieldConfig{}, ConfigError(field, fmt.Sprintf("failed to parse parameter [coerce]: %v", err))
			}
		case "ignore_malformed":
			if err := boolOption(raw, &cfg.IgnoreMalformed); err != nil {
				return FieldConfig{}, ConfigError(field, fmt.Sprintf("failed to parse parameter [ignore_malformed]: %v", err))
			}
		case "null_value":
			if raw == nil {
				continue
			}
			v, err := floatOption(raw)
			if err != nil {
				return FieldConfig{}, ConfigError(field, fmt.Sprintf("failed to parse parameter [null_value]: %v", err))
			}
			cfg.NullValue = &v
		case "index_options":
			// Deprecated on numeric fields and rejected outright.
			return FieldConfig{}, ConfigError(field, fmt.Sprintf("index_options not allowed in field [%s] of type [%s]", field, TypeName))
		default:
			return FieldConfig{}, ConfigError(field, fmt.Sprintf("unknown parameter [%s] on field [%s] of type [%s]", key, field, TypeName))
		}
	}

	if !seenScalingFactor {
		return FieldConfig{}, ConfigError(field, fmt.Sprintf("Field [%s] misses required parameter [scaling_factor]", field))
	}
	if err := cfg.Validate(); err != nil {
		return FieldConfig{}, err
	}
	return cfg, nil
}

// Validate checks the invariants a constructed FieldConfig must hold.
func (c FieldConfig) Validate() error {
	if c.Field == "" {
		return MappingError("field name must not be empty")
	}
	if !isFinite(c.ScalingFactor) || c.ScalingFactor <= 0 {
		return ConfigError(c.Field, fmt.Sprintf("[scaling_factor] must be a positive number, got [%s]", numText(c.ScalingFactor)))
	}
	if c.NullValue != nil && !isFinite(*c.NullValue) {
		return ConfigError(c.Field, fmt.Sprintf("[null_value] must be a finite number, got [%s]", numText(*c.NullValue)))
	}
	return nil
}

func floatOption(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(v, 64)
	}
	return 0, fmt.Errorf("expected a number, got %T", raw)
}

func boolOption(raw any, dst *bool) error {
	switch v := raw.(type) {
	case bool:
		*dst = v
		return nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
	return fmt.Errorf("expected a boolean, got %T", raw)
}
