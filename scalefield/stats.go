package scalefield

import (
	"fmt"
	"strconv"

	"github.com/govalues/decimal"
)

// DecodeDecimal renders encoded/scalingFactor as an exact decimal, free of
// binary floating-point display artifacts. Used wherever a stored value is
// shown to a human.
func DecodeDecimal(encoded int64, scalingFactor float64) (decimal.Decimal, error) {
	sf, err := scalingDecimal(scalingFactor)
	if err != nil {
		return decimal.Decimal{}, err
	}
	q, err := decimal.MustNew(encoded, 0).Quo(sf)
	if err != nil {
		return decimal.Decimal{}, Wrap(ErrMalformed, fmt.Sprintf(
			"decoding [%d] at scaling factor [%s]", encoded, numText(scalingFactor)), err)
	}
	return q, nil
}

func scalingDecimal(scalingFactor float64) (decimal.Decimal, error) {
	if !isFinite(scalingFactor) || scalingFactor <= 0 {
		return decimal.Decimal{}, New(ErrConfig, fmt.Sprintf("[scaling_factor] must be a positive number, got [%s]", numText(scalingFactor)))
	}
	sf, err := decimal.Parse(strconv.FormatFloat(scalingFactor, 'f', -1, 64))
	if err != nil {
		return decimal.Decimal{}, Wrap(ErrConfig, "scaling factor does not fit a decimal", err)
	}
	return sf, nil
}

// FieldStats folds encoded field values into aggregate statistics. Min and
// Max are decoded float64s; Sum and Avg are computed over the encoded
// integers and divided once by the scaling factor, so they carry no
// accumulated floating-point error.
type FieldStats struct {
	field string
	sf    decimal.Decimal
	sfF   float64
	count uint64
	min   float64
	max   float64
	sum   decimal.Decimal
}

func NewFieldStats(field string, scalingFactor float64) (*FieldStats, error) {
	sf, err := scalingDecimal(scalingFactor)
	if err != nil {
		return nil, withField(field, err)
	}
	return &FieldStats{field: field, sf: sf, sfF: scalingFactor}, nil
}

// Observe folds one encoded value into the aggregate. It fails once the
// running sum no longer fits in 19 decimal digits.
func (s *FieldStats) Observe(encoded int64) error {
	sum, err := s.sum.Add(decimal.MustNew(encoded, 0))
	if err != nil {
		return withField(s.field, Wrap(ErrMalformed, "statistics sum overflow", err))
	}
	v := Decode(encoded, s.sfF)
	if s.count == 0 || v < s.min {
		s.min = v
	}
	if s.count == 0 || v > s.max {
		s.max = v
	}
	s.sum = sum
	s.count++
	return nil
}

// Result snapshots the aggregate. Min, Max and Avg are unset when nothing
// was observed.
func (s *FieldStats) Result() (StatsResult, error) {
	res := StatsResult{Field: s.field, Count: s.count}
	if s.count == 0 {
		res.Sum = decimal.MustNew(0, 0).String()
		return res, nil
	}
	min, max := s.min, s.max
	res.Min = &min
	res.Max = &max
	sum, err := s.sum.Quo(s.sf)
	if err != nil {
		return StatsResult{}, withField(s.field, Wrap(ErrMalformed, "statistics sum does not fit a decimal", err))
	}
	res.Sum = sum.String()
	avg, err := sum.Quo(decimal.MustNew(int64(s.count), 0))
	if err != nil {
		return StatsResult{}, withField(s.field, Wrap(ErrMalformed, "statistics average does not fit a decimal", err))
	}
	res.Avg = avg.String()
	return res, nil
}
