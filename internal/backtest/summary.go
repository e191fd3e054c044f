package backtest

import "BTCBacktester/internal/model"

// Summary condenses a run into headline performance numbers.
type Summary struct {
	InitialCapital float64
	FinalCapital   float64
	ReturnPct      float64
	Buys           int
	Sells          int
	Wins           int
	WinRate        float64 // over closed round trips, 0..1
	MaxDrawdownPct float64 // <= 0
	OpenPosition   bool
	UnrealizedPnL  float64
	Bars           int
}

// Summarize computes the Summary of a finished run.
func Summarize(res *model.Result) Summary {
	s := Summary{
		InitialCapital: res.InitialCapital,
		FinalCapital:   res.FinalCapital(),
		Bars:           len(res.Curve),
		OpenPosition:   res.Position.State == model.PositionLong,
	}
	if res.InitialCapital > 0 {
		s.ReturnPct = (s.FinalCapital - res.InitialCapital) / res.InitialCapital * 100
	}

	var entry float64
	for _, t := range res.Trades {
		switch t.Direction {
		case model.DirectionBuy:
			s.Buys++
			entry = t.Price
		case model.DirectionSell:
			s.Sells++
			if t.Price > entry {
				s.Wins++
			}
		}
	}
	if s.Sells > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Sells)
	}

	if s.OpenPosition && len(res.Curve) > 0 {
		last := res.Curve[len(res.Curve)-1].Capital
		s.UnrealizedPnL = last - res.Position.Size*res.Position.EntryPrice
	}

	var peak float64
	for i, p := range res.Curve {
		if i == 0 || p.Capital > peak {
			peak = p.Capital
		}
		if peak <= 0 {
			continue
		}
		if dd := (p.Capital - peak) / peak * 100; dd < s.MaxDrawdownPct {
			s.MaxDrawdownPct = dd
		}
	}
	return s
}
