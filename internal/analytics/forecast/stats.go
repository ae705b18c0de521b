package forecast

import "math"

const (
	// DefaultMovingAverageWindow is the trailing window used by the moving average strategy
	DefaultMovingAverageWindow = 3

	// SeasonLength is the number of periods in one seasonal cycle (months of a year)
	SeasonLength = 12
)

// Regression is the result of an ordinary least squares fit of value on index
type Regression struct {
	Slope     float64
	Intercept float64
	R2        float64
}

// At evaluates the fitted line at index x
func (r Regression) At(x float64) float64 {
	return r.Slope*x + r.Intercept
}

// Mean returns the arithmetic mean, or 0 for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance returns the sample variance (n-1 denominator), or 0 for fewer than 2 values
func Variance(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	mean := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return sumSq / float64(n-1)
}

// LinearRegression fits value against its zero-based index.
// With fewer than two points the slope is 0, the intercept is the mean and R2 is 0.
func LinearRegression(values []float64) Regression {
	n := len(values)
	if n < 2 {
		return Regression{Intercept: Mean(values)}
	}

	nf := float64(n)
	sumX := 0.0
	sumY := 0.0
	sumXY := 0.0
	sumX2 := 0.0
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumX2 += x * x
	}

	denominator := nf*sumX2 - sumX*sumX
	if denominator == 0 {
		return Regression{Intercept: sumY / nf}
	}

	slope := (nf*sumXY - sumX*sumY) / denominator
	intercept := (sumY - slope*sumX) / nf
	fit := Regression{Slope: slope, Intercept: intercept}

	meanY := sumY / nf
	ssResidual := 0.0
	ssTotal := 0.0
	for i, v := range values {
		residual := v - fit.At(float64(i))
		ssResidual += residual * residual
		deviation := v - meanY
		ssTotal += deviation * deviation
	}
	if ssTotal != 0 {
		fit.R2 = 1 - ssResidual/ssTotal
	}

	return fit
}

// MovingAverage returns the mean of the last window values. A non-positive
// window uses DefaultMovingAverageWindow; shorter series average what exists.
func MovingAverage(values []float64, window int) float64 {
	if len(values) == 0 {
		return 0
	}
	if window <= 0 {
		window = DefaultMovingAverageWindow
	}
	if window > len(values) {
		window = len(values)
	}
	return Mean(values[len(values)-window:])
}

// AverageGrowthRate returns the mean period-over-period relative change.
// Transitions from a zero value have no defined growth and are skipped.
func AverageGrowthRate(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	sum := 0.0
	count := 0
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			continue
		}
		sum += (values[i] - prev) / prev
		count++
	}

	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// SeasonalFactors returns SeasonLength multiplicative factors: the mean of each
// index-mod-12 bucket divided by the overall mean. Series shorter than one
// season, or with a zero mean, get neutral factors of 1.
func SeasonalFactors(values []float64) []float64 {
	factors := make([]float64, SeasonLength)
	for i := range factors {
		factors[i] = 1
	}

	if len(values) < SeasonLength {
		return factors
	}
	overall := Mean(values)
	if overall == 0 {
		return factors
	}

	sums := make([]float64, SeasonLength)
	counts := make([]int, SeasonLength)
	for i, v := range values {
		bucket := i % SeasonLength
		sums[bucket] += v
		counts[bucket]++
	}
	for i := range factors {
		if counts[i] > 0 {
			factors[i] = (sums[i] / float64(counts[i])) / overall
		}
	}
	return factors
}

// CoefficientOfVariation is the standard deviation divided by the mean, 0 when the mean is 0
func CoefficientOfVariation(values []float64) float64 {
	mean := Mean(values)
	if mean == 0 {
		return 0
	}
	return math.Sqrt(Variance(values)) / mean
}

// MaxPrediction caps every predicted value and bound so results stay finite
// even when compounding a tiny base explodes.
const MaxPrediction = 1e300

// clampRound rounds a raw projection into [0, MaxPrediction]
func clampRound(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Min(MaxPrediction, math.Max(0, math.Round(x)))
}
