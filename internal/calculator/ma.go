package calculator

import (
	"github.com/moznion/go-optional"
)

// SMASeries computes the trailing simple moving average of values for every index.
// The first period-1 entries are None. Each window is summed afresh so equal inputs
// always produce bit-identical means regardless of their position in the series.
func SMASeries(values []float64, period int) []optional.Option[float64] {
	out := make([]optional.Option[float64], len(values))
	for i := range values {
		out[i] = trailingMean(values, i, period)
	}
	return out
}

// trailingMean averages values[end-period+1 .. end].
func trailingMean(values []float64, end, period int) optional.Option[float64] {
	if period <= 0 || end-period+1 < 0 {
		return optional.None[float64]()
	}
	sum := 0.0
	for i := end - period + 1; i <= end; i++ {
		sum += values[i]
	}
	return optional.Some(sum / float64(period))
}
