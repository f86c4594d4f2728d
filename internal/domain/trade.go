package domain

// Trade is a closed position recorded in the trade journal. Pnl is net of the
// exit fee; Fees is the total of entry and exit fees for display.
type Trade struct {
	ID         string   `json:"id"`
	Asset      string   `json:"asset"`
	Side       Side     `json:"side"`
	EntryPrice float64  `json:"entryPrice"`
	ExitPrice  float64  `json:"exitPrice"`
	Size       float64  `json:"size"`
	Pnl        float64  `json:"pnl"`
	Fees       float64  `json:"fees"`
	Notes      string   `json:"notes"`
	Tags       []string `json:"tags"`
	OpenedAt   int64    `json:"openedAt"`
	ClosedAt   int64    `json:"closedAt"`
}

// EquitySnapshot is one point on the equity curve, recorded at most once per
// calendar date.
type EquitySnapshot struct {
	Date        string  `json:"date"` // YYYY-MM-DD
	Balance     float64 `json:"balance"`
	DrawdownPct float64 `json:"drawdownPct"`
}
