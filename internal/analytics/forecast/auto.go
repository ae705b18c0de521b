package forecast

import "math"

// Method selection thresholds. The rules are evaluated in order and the first match wins.
const (
	selectorMinPoints        = 3
	selectorLinearMinR2      = 0.8
	selectorGrowthThreshold  = 0.1
	selectorNoisyCV          = 0.3
	selectorSeasonalMinPoint = SeasonLength
)

// BestMethod inspects a series and recommends a strategy:
//
//  1. fewer than 3 points: moving average
//  2. a well fitted trend (R2 > 0.8) with growth under 10%: linear
//  3. average growth above 10% either way: growth rate
//  4. coefficient of variation above 0.3: moving average
//  5. at least a full season of history: seasonal
//  6. otherwise linear
func BestMethod(values []float64) Method {
	n := len(values)
	if n < selectorMinPoints {
		return MethodMovingAverage
	}

	r2 := LinearRegression(values).R2
	growth := math.Abs(AverageGrowthRate(values))
	cv := CoefficientOfVariation(values)

	switch {
	case r2 > selectorLinearMinR2 && growth < selectorGrowthThreshold:
		return MethodLinear
	case growth > selectorGrowthThreshold:
		return MethodGrowthRate
	case cv > selectorNoisyCV:
		return MethodMovingAverage
	case n >= selectorSeasonalMinPoint:
		return MethodSeasonal
	default:
		return MethodLinear
	}
}
