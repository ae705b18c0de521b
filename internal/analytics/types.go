// Package analytics provides the shared series types used by the forecast
// engine, the series stores and the HTTP layer.
package analytics

import (
	"fmt"
	"math"
	"sort"
)

// MaxValue is the largest value a series point may hold. It keeps squared
// deviations and compounded projections far from float64 overflow.
const MaxValue = 1e15

// HistoricalPoint is a single observation of a monthly series.
// Period is an opaque ordering key, normally "YYYY-MM".
type HistoricalPoint struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

// Series is an ordered list of historical points, oldest first.
type Series []HistoricalPoint

// Values extracts just the values from the series
func (s Series) Values() []float64 {
	values := make([]float64, len(s))
	for i, p := range s {
		values[i] = p.Value
	}
	return values
}

// Periods extracts just the period keys from the series
func (s Series) Periods() []string {
	periods := make([]string, len(s))
	for i, p := range s {
		periods[i] = p.Period
	}
	return periods
}

// Len returns the number of points
func (s Series) Len() int {
	return len(s)
}

// Last returns the most recent point and false when the series is empty.
func (s Series) Last() (HistoricalPoint, bool) {
	if len(s) == 0 {
		return HistoricalPoint{}, false
	}
	return s[len(s)-1], true
}

// Validate checks that the series is usable as forecast input: every period
// is set and unique, periods ascend, and values are finite, non-negative and
// at most MaxValue.
func (s Series) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for i, p := range s {
		if p.Period == "" {
			return fmt.Errorf("point %d: period is required", i)
		}
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return fmt.Errorf("point %d (%s): value must be finite", i, p.Period)
		}
		if p.Value < 0 {
			return fmt.Errorf("point %d (%s): value must be non-negative", i, p.Period)
		}
		if p.Value > MaxValue {
			return fmt.Errorf("point %d (%s): value out of range, the maximum is %g", i, p.Period, MaxValue)
		}
		if _, dup := seen[p.Period]; dup {
			return fmt.Errorf("point %d: duplicate period %s", i, p.Period)
		}
		seen[p.Period] = struct{}{}
		if i > 0 && p.Period < s[i-1].Period {
			return fmt.Errorf("point %d: period %s is before %s", i, p.Period, s[i-1].Period)
		}
	}
	return nil
}

// Merge combines two series keyed by period. Points in update replace points
// of base with the same period; the result is sorted by period.
func Merge(base, update Series) Series {
	byPeriod := make(map[string]float64, len(base)+len(update))
	for _, p := range base {
		byPeriod[p.Period] = p.Value
	}
	for _, p := range update {
		byPeriod[p.Period] = p.Value
	}

	merged := make(Series, 0, len(byPeriod))
	for period, value := range byPeriod {
		merged = append(merged, HistoricalPoint{Period: period, Value: value})
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Period < merged[j].Period
	})
	return merged
}
