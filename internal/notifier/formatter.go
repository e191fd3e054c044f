package notifier

import (
	"fmt"
	"html"
	"strings"

	"BTCBacktester/internal/backtest"
	"BTCBacktester/internal/model"
	"BTCBacktester/internal/recorder"
)

// FormatBacktestReport renders a run summary as Telegram HTML.
func FormatBacktestReport(symbol string, res *model.Result, sum backtest.Summary) string {
	var b strings.Builder

	period := ""
	if len(res.Curve) > 0 {
		period = fmt.Sprintf("%s → %s",
			res.Curve[0].Time.Format("2006-01-02"), res.Curve[len(res.Curve)-1].Time.Format("2006-01-02"))
	}
	b.WriteString(fmt.Sprintf("📊 <b>Backtest %s</b> | %s\n\n", html.EscapeString(symbol), period))

	b.WriteString(fmt.Sprintf("Bars: %d\n", sum.Bars))
	b.WriteString(fmt.Sprintf("Stop-loss / take-profit: %.1f%% / %.1f%%\n\n", res.StopLoss*100, res.TakeProfit*100))

	b.WriteString("💰 <b>Capital</b>\n")
	b.WriteString(fmt.Sprintf("  Initial: %.2f\n", sum.InitialCapital))
	b.WriteString(fmt.Sprintf("  Final:   %.2f (%+.2f%%)\n", sum.FinalCapital, sum.ReturnPct))
	b.WriteString(fmt.Sprintf("  Max drawdown: %.2f%%\n\n", sum.MaxDrawdownPct))

	b.WriteString("📈 <b>Trades</b>\n")
	b.WriteString(fmt.Sprintf("  Buys: %d | Sells: %d\n", sum.Buys, sum.Sells))
	if sum.Sells > 0 {
		b.WriteString(fmt.Sprintf("  Win rate: %.0f%% (%d/%d)\n", sum.WinRate*100, sum.Wins, sum.Sells))
	}

	if sum.OpenPosition {
		b.WriteString(fmt.Sprintf("\n⏳ Position open since %.2f, size %.8f, unrealized %+.2f\n",
			res.Position.EntryPrice, res.Position.Size, sum.UnrealizedPnL))
	}

	if len(res.Trades) > 0 {
		b.WriteString("\n")
		b.WriteString(FormatTrades(res.Trades, 5))
	}
	return b.String()
}

// FormatTrades lists the most recent max trades, oldest first.
func FormatTrades(trades []model.Trade, max int) string {
	if len(trades) > max {
		trades = trades[len(trades)-max:]
	}
	var b strings.Builder
	b.WriteString("<b>Recent trades:</b>\n")
	for _, t := range trades {
		icon := "🟢"
		if t.Direction == model.DirectionSell {
			icon = "🔴"
		}
		line := fmt.Sprintf("  %s %s %s @ %.2f", icon, t.Time.Format("2006-01-02"), t.Direction, t.Price)
		if t.RealizedPnL.IsSome() {
			line += fmt.Sprintf(" | PnL %+.2f", t.RealizedPnL.Unwrap())
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// FormatLastRun renders a stored run headline.
func FormatLastRun(row *recorder.RunRow) string {
	if row == nil {
		return "No backtest has been recorded yet."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗂 <b>Last run</b> | %s\n\n", row.RanAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("%s %s via %s, %d bars\n", html.EscapeString(row.Symbol), row.Interval, row.Source, row.Bars))
	b.WriteString(fmt.Sprintf("Final capital: %.2f (%+.2f%%)\n", row.FinalCapital, row.ReturnPct))
	b.WriteString(fmt.Sprintf("Trades: %d buys / %d sells, win rate %.0f%%\n", row.Buys, row.Sells, row.WinRate*100))
	b.WriteString(fmt.Sprintf("Stored trades: %d\n", row.StoredTrades))
	b.WriteString(fmt.Sprintf("Max drawdown: %.2f%%\n", row.MaxDrawdownPct))
	if row.OpenPosition {
		b.WriteString("Position still open\n")
	}
	return b.String()
}
