package backtest

import (
	"testing"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"BTCBacktester/internal/calculator"
	"BTCBacktester/internal/model"
)

type PipelineTestSuite struct {
	suite.Suite
	cfg Config
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineTestSuite))
}

func (s *PipelineTestSuite) SetupTest() {
	s.cfg = DefaultConfig()
	s.cfg.Windows = calculator.Windows{Short: 3, Mid: 5, Long: 300, RSI: 6, Volume: 3}
}

func (s *PipelineTestSuite) TestFlatMarketNeverTrades() {
	closes := make([]float64, 400)
	for i := range closes {
		closes[i] = 100
	}
	res, err := Evaluate(makeBars(closes), DefaultConfig())
	s.Require().NoError(err)
	s.Empty(res.Trades)
	s.Require().Len(res.Curve, 400)
	for _, p := range res.Curve {
		s.Equal(10000.0, p.Capital)
	}
	for _, r := range res.Records {
		s.True(r.RSI.IsNone(), "flat market has no directional data")
	}
}

func (s *PipelineTestSuite) TestCrossoverBuyThenTakeProfit() {
	closes := []float64{110, 108, 106, 104, 102, 100, 99, 98, 97, 99, 98, 100, 99, 101, 104, 107, 110, 112}
	bars := makeBars(closes)
	bars[11].Volume = 3000

	res, err := Evaluate(bars, s.cfg)
	s.Require().NoError(err)
	s.Require().Len(res.Trades, 2)

	s.Equal(bars[11].Time, res.Trades[0].Time)
	s.Equal(100.0, res.Trades[0].Price)
	s.InDelta(50.0, res.Records[11].RSI.Unwrap(), 1e-9)
	s.Equal(optional.Some(model.SignalBuy), res.Records[11].Signal)

	s.Equal(bars[16].Time, res.Trades[1].Time)
	s.InDelta(1000.0, res.Trades[1].RealizedPnL.Unwrap(), 1e-9)
	s.InDelta(11000.0, res.FinalCapital(), 1e-9)
	s.Equal(model.PositionFlat, res.Position.State)
}

func (s *PipelineTestSuite) TestCrossoverWithoutVolumeConfirmation() {
	closes := []float64{110, 108, 106, 104, 102, 100, 99, 98, 97, 99, 98, 100, 99, 101, 104, 107, 110, 112}
	res, err := Evaluate(makeBars(closes), s.cfg)
	s.Require().NoError(err)
	s.Empty(res.Trades)
}

func (s *PipelineTestSuite) TestRejectsInvalidConfig() {
	s.cfg.Params.InitialCapital = -1
	_, err := Evaluate(makeBars([]float64{1, 2, 3}), s.cfg)
	s.ErrorIs(err, model.ErrPrecondition)
}

func (s *PipelineTestSuite) TestRecordsAligned() {
	closes := []float64{110, 108, 106, 104, 102, 100, 99, 98, 97, 99, 98, 100}
	bars := makeBars(closes)
	res, err := Evaluate(bars, s.cfg)
	s.Require().NoError(err)
	s.Require().Len(res.Records, len(bars))
	for i, r := range res.Records {
		s.Equal(bars[i].Time, r.Time)
		s.Equal(bars[i].Close, r.Close)
	}
	s.True(res.Records[0].Signal.IsNone())
}
