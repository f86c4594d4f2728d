package domain

// Side indicates the direction of a position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Valid reports whether the side is one of the two known values.
func (s Side) Valid() bool {
	return s == SideLong || s == SideShort
}

// Position is a simulated open position. Size is the notional USD value of the
// position, independent of the leverage or margin used to carry it. StopLoss
// and TakeProfit are optional trigger prices; nil means not set.
//
// Timestamps are Unix milliseconds to stay byte-compatible with the persisted
// state snapshot consumed by the dashboard UI.
type Position struct {
	ID         string   `json:"id"`
	Asset      string   `json:"asset"`
	Side       Side     `json:"side"`
	EntryPrice float64  `json:"entryPrice"`
	Size       float64  `json:"size"`
	StopLoss   *float64 `json:"stopLoss"`
	TakeProfit *float64 `json:"takeProfit"`
	OpenedAt   int64    `json:"openedAt"`
}

// DirectionSign returns +1 for long positions and -1 for short positions.
func (p *Position) DirectionSign() float64 {
	if p.Side == SideShort {
		return -1
	}
	return 1
}

// UnrealizedPnl returns the mark-to-market P&L of the position at the given
// current price. A zero or negative entry price yields 0.
func (p *Position) UnrealizedPnl(current float64) float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	return (current - p.EntryPrice) / p.EntryPrice * p.Size * p.DirectionSign()
}
