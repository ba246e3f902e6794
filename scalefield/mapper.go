package scalefield

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// EmitOutcome is the terminal state of emitting one field value.
type EmitOutcome string

const (
	OutcomeEncoded EmitOutcome = "encoded" // value encoded; artifacts follow the config flags
	OutcomeSkipped EmitOutcome = "skipped" // explicit null without a null_value substitute
	OutcomeIgnored EmitOutcome = "ignored" // malformed value swallowed by ignore_malformed
	OutcomeFailed  EmitOutcome = "failed"  // fatal malformed value
)

// FieldMapper applies one field's configuration to raw document values:
// it normalizes the input, drives the codec and decides which artifacts
// to emit or how to fail. Instances are immutable and safe for concurrent
// use.
type FieldMapper struct {
	cfg FieldConfig
}

func NewFieldMapper(cfg FieldConfig) (*FieldMapper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &FieldMapper{cfg: cfg}, nil
}

func (m *FieldMapper) Config() FieldConfig { return m.cfg }

// Emit runs one raw value through the emission pipeline and returns the
// artifacts to persist, in order: point, then doc-values, then stored.
// A value is encoded even when every artifact flag is off, so malformed
// input still fails (or is ignored) exactly as it would if it were being
// persisted. Emission is all-or-nothing: a failed value emits no artifacts.
func (m *FieldMapper) Emit(raw any) ([]Artifact, EmitOutcome, error) {
	value, present, err := m.normalize(raw)
	if err == nil && !present {
		return nil, OutcomeSkipped, nil
	}
	var encoded int64
	if err == nil {
		encoded, err = m.encode(value)
	}
	if err != nil {
		if m.cfg.IgnoreMalformed && IsKind(err, ErrMalformed) {
			return nil, OutcomeIgnored, nil
		}
		return nil, OutcomeFailed, err
	}
	return m.artifacts(encoded), OutcomeEncoded, nil
}

// normalize classifies a raw document value and produces the decimal to
// encode. present is false for an explicit null with no null_value
// substitute, which skips the field without error.
func (m *FieldMapper) normalize(raw any) (value float64, present bool, err error) {
	switch v := raw.(type) {
	case nil:
		if m.cfg.NullValue == nil {
			return 0, false, nil
		}
		return *m.cfg.NullValue, true, nil
	case float64:
		return v, true, nil
	case int:
		return float64(v), true, nil
	case int64:
		return float64(v), true, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false, MalformedError(m.cfg.Field, fmt.Sprintf("failed to parse value [%s]", v.String()), err)
		}
		return f, true, nil
	case string:
		if !m.cfg.Coerce {
			return 0, false, MalformedError(m.cfg.Field, fmt.Sprintf("value [%s] passed as String, but [coerce] is false", v), nil)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false, MalformedError(m.cfg.Field, fmt.Sprintf("failed to parse value [%s]", v), err)
		}
		return f, true, nil
	default:
		return 0, false, MalformedError(m.cfg.Field, fmt.Sprintf("unexpected token of type %T", raw), nil)
	}
}

func (m *FieldMapper) encode(value float64) (int64, error) {
	encoded, err := Encode(value, m.cfg.ScalingFactor)
	if err != nil {
		return 0, withField(m.cfg.Field, err)
	}
	return encoded, nil
}

func (m *FieldMapper) artifacts(encoded int64) []Artifact {
	out := make([]Artifact, 0, 3)
	if m.cfg.Index {
		out = append(out, Artifact{Kind: ArtifactPoint, Field: m.cfg.Field, Value: encoded})
	}
	if m.cfg.DocValues {
		out = append(out, Artifact{Kind: ArtifactDocValues, Field: m.cfg.Field, Value: encoded})
	}
	if m.cfg.Store {
		out = append(out, Artifact{Kind: ArtifactStored, Field: m.cfg.Field, Value: encoded})
	}
	return out
}
