package calculator

import (
	"github.com/moznion/go-optional"
)

// RSIResult carries the RSI series together with the averages it was built from.
type RSIResult struct {
	AvgGain []optional.Option[float64]
	AvgLoss []optional.Option[float64]
	RSI     []optional.Option[float64]
}

// RSISeries computes the relative strength index using plain trailing means of
// gains and losses over period deltas (no Wilder smoothing). Values become defined
// at index period. A window with losses of zero saturates at 100 when it has any
// gain and stays None when it has neither.
func RSISeries(closes []float64, period int) RSIResult {
	n := len(closes)
	res := RSIResult{
		AvgGain: make([]optional.Option[float64], n),
		AvgLoss: make([]optional.Option[float64], n),
		RSI:     make([]optional.Option[float64], n),
	}
	if n == 0 {
		return res
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	for i := 0; i < n; i++ {
		// deltas start at index 1, so the window must not reach index 0
		if period <= 0 || i-period+1 < 1 {
			res.AvgGain[i] = optional.None[float64]()
			res.AvgLoss[i] = optional.None[float64]()
			res.RSI[i] = optional.None[float64]()
			continue
		}
		avgGain := trailingMean(gains, i, period)
		avgLoss := trailingMean(losses, i, period)
		res.AvgGain[i] = avgGain
		res.AvgLoss[i] = avgLoss
		res.RSI[i] = rsiFromAverages(avgGain.Unwrap(), avgLoss.Unwrap())
	}
	return res
}

func rsiFromAverages(avgGain, avgLoss float64) optional.Option[float64] {
	if avgLoss == 0 {
		if avgGain > 0 {
			return optional.Some(100.0)
		}
		return optional.None[float64]()
	}
	rs := avgGain / avgLoss
	rsi := 100.0 - 100.0/(1.0+rs)
	// guard against rounding just outside the band
	if rsi < 0 {
		rsi = 0
	}
	if rsi > 100 {
		rsi = 100
	}
	return optional.Some(rsi)
}
