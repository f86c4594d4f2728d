package alert

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/squireaintready/breakout/internal/domain"
)

// EventType labels which rule category produced a notification event.
type EventType string

const (
	EventPriceAlert EventType = "price_alert"
	EventStopLoss   EventType = "stop_loss"
	EventTakeProfit EventType = "take_profit"
	EventPnlAlert   EventType = "pnl_alert"
)

// Event is a single notification produced by an evaluation pass. CreatedAt is
// the alert's creation timestamp in Unix milliseconds, or 0 for derived
// triggers (stop-loss/take-profit) that have no creation time of their own.
type Event struct {
	Type            EventType
	Title           string
	Body            string
	PositionSummary string
	TriggeredAt     time.Time
	CreatedAt       int64
}

// Message renders the event body as Telegram-flavored HTML: the alert text,
// italic timestamps, and the optional open-position summary. The title is
// rendered by each notification channel in its own style.
func (e Event) Message(loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	var b strings.Builder
	b.WriteString(e.Body)
	fmt.Fprintf(&b, "\n<i>Triggered: %s", formatTimestamp(e.TriggeredAt, loc))
	if e.CreatedAt > 0 {
		fmt.Fprintf(&b, " | Set: %s", formatTimestamp(time.UnixMilli(e.CreatedAt), loc))
	}
	b.WriteString("</i>")
	if e.PositionSummary != "" {
		b.WriteString(e.PositionSummary)
	}
	return b.String()
}

func formatTimestamp(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("Jan 2, 3:04 PM")
}

// formatPrice renders a price or dollar amount without trailing zero noise.
func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func directionArrow(d domain.Direction) string {
	if d == domain.DirectionAbove {
		return "↑"
	}
	return "↓"
}

func priceAlertBody(a *domain.PriceAlert, price float64) string {
	body := fmt.Sprintf("%s hit %s", a.Asset, formatPrice(price))
	if a.Note != "" {
		body += " — " + a.Note
	}
	return body
}

func pnlAlertBody(a *domain.PnlAlert, totalPnl float64) string {
	body := fmt.Sprintf("Unrealized P&L hit $%.2f", totalPnl)
	if a.Note != "" {
		body += " — " + a.Note
	}
	return body
}

// positionSummary renders the open positions for an asset as an HTML block
// appended to price and SL/TP notifications, mirroring what the dashboard
// shows. Returns "" when no positions match.
func positionSummary(asset string, positions []*domain.Position, prices map[string]float64) string {
	var lines []string
	for _, p := range positions {
		if p.Asset != asset {
			continue
		}
		var pnlStr string
		if cur, ok := prices[p.Asset]; ok {
			pnl := p.UnrealizedPnl(cur)
			if pnl >= 0 {
				pnlStr = fmt.Sprintf("+$%.2f", pnl)
			} else {
				pnlStr = fmt.Sprintf("-$%.2f", -pnl)
			}
		} else {
			pnlStr = "+$0.00"
		}
		sl := "—"
		if p.StopLoss != nil {
			sl = formatPrice(*p.StopLoss)
		}
		tp := "—"
		if p.TakeProfit != nil {
			tp = formatPrice(*p.TakeProfit)
		}
		lines = append(lines, fmt.Sprintf("  %s $%s @ %s | SL %s | TP %s | P&L %s",
			strings.ToUpper(string(p.Side)), formatPrice(p.Size), formatPrice(p.EntryPrice), sl, tp, pnlStr))
	}
	if len(lines) == 0 {
		return ""
	}
	return fmt.Sprintf("\n\n<b>Open %s positions:</b>\n%s", asset, strings.Join(lines, "\n"))
}
