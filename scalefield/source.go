package scalefield

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ReprojectValue reconstructs the logical field value from a raw source
// token without running full emission: it reports the value the field
// decodes to after indexing, applying the same rounding the index would
// have applied. Strings are parsed regardless of the coerce flag; the
// read side has no ignore_malformed policy, so unparseable input is a
// plain error. ok is false when the input is absent (nil or an empty
// string) and no null_value substitute is configured.
func (m *FieldMapper) ReprojectValue(raw any) (value float64, ok bool, err error) {
	switch v := raw.(type) {
	case nil:
		return m.reprojectAbsent()
	case string:
		if v == "" {
			return m.reprojectAbsent()
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false, MalformedError(m.cfg.Field, fmt.Sprintf("failed to parse value [%s]", v), err)
		}
		return m.display(f)
	case float64:
		return m.display(v)
	case int:
		return m.display(float64(v))
	case int64:
		return m.display(float64(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false, MalformedError(m.cfg.Field, fmt.Sprintf("failed to parse value [%s]", v.String()), err)
		}
		return m.display(f)
	default:
		return 0, false, MalformedError(m.cfg.Field, fmt.Sprintf("unexpected token of type %T", raw), nil)
	}
}

// ReprojectValues applies ReprojectValue per element and drops absent
// entries from the result, never inserting placeholders for them.
func (m *FieldMapper) ReprojectValues(raws []any) ([]float64, error) {
	out := make([]float64, 0, len(raws))
	for _, raw := range raws {
		v, ok, err := m.ReprojectValue(raw)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *FieldMapper) reprojectAbsent() (float64, bool, error) {
	if m.cfg.NullValue == nil {
		return 0, false, nil
	}
	return m.display(*m.cfg.NullValue)
}

func (m *FieldMapper) display(v float64) (float64, bool, error) {
	d, err := DecodeForDisplay(v, m.cfg.ScalingFactor)
	if err != nil {
		return 0, false, withField(m.cfg.Field, err)
	}
	return d, true, nil
}
