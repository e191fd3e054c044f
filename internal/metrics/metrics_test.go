package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"BTCBacktester/internal/backtest"
	"BTCBacktester/internal/model"
)

func TestObserveRun(t *testing.T) {
	before := testutil.ToFloat64(TradesTotal.WithLabelValues("BUY"))
	res := &model.Result{Trades: []model.Trade{
		{Direction: model.DirectionBuy},
		{Direction: model.DirectionSell},
		{Direction: model.DirectionBuy},
	}}
	ObserveRun(res, backtest.Summary{FinalCapital: 12345, MaxDrawdownPct: -3.5, OpenPosition: true}, time.Second)

	assert.Equal(t, before+2, testutil.ToFloat64(TradesTotal.WithLabelValues("BUY")))
	assert.Equal(t, 12345.0, testutil.ToFloat64(FinalCapital))
	assert.Equal(t, -3.5, testutil.ToFloat64(MaxDrawdown))
	assert.Equal(t, 1.0, testutil.ToFloat64(PositionOpen))
}

func TestObserveFailure(t *testing.T) {
	before := testutil.ToFloat64(RunsTotal.WithLabelValues("collect_error"))
	ObserveFailure("collect_error")
	assert.Equal(t, before+1, testutil.ToFloat64(RunsTotal.WithLabelValues("collect_error")))
}
