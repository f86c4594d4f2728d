package domain

// Direction selects which side of the target a value must reach for an alert
// to fire. Both comparisons are inclusive.
type Direction string

const (
	DirectionAbove Direction = "above"
	DirectionBelow Direction = "below"
)

// Valid reports whether the direction is one of the two known values.
func (d Direction) Valid() bool {
	return d == DirectionAbove || d == DirectionBelow
}

// Met reports whether value satisfies the alert condition against target.
func (d Direction) Met(value, target float64) bool {
	if d == DirectionAbove {
		return value >= target
	}
	return value <= target
}

// PriceAlert fires when the asset's last trade price crosses TargetPrice in
// the configured direction. Persistent alerts re-notify on every qualifying
// tick (subject to cooldown) and never set Triggered; non-persistent alerts
// fire once and stay suppressed until re-armed.
type PriceAlert struct {
	ID          string    `json:"id"`
	Asset       string    `json:"asset"`
	TargetPrice float64   `json:"targetPrice"`
	Direction   Direction `json:"direction"`
	Note        string    `json:"note"`
	Persistent  bool      `json:"persistent"`
	Triggered   bool      `json:"triggered"`
	CreatedAt   int64     `json:"createdAt"`
	TriggeredAt *int64    `json:"triggeredAt,omitempty"`
}

// PnlAlert fires when the aggregate unrealized P&L across all open positions
// crosses TargetPnl. Unlike price alerts, a fired non-persistent P&L alert
// automatically re-arms as soon as the condition becomes false again.
type PnlAlert struct {
	ID          string    `json:"id"`
	TargetPnl   float64   `json:"targetPnl"`
	Direction   Direction `json:"direction"`
	Note        string    `json:"note"`
	Persistent  bool      `json:"persistent"`
	Triggered   bool      `json:"triggered"`
	CreatedAt   int64     `json:"createdAt"`
	TriggeredAt *int64    `json:"triggeredAt,omitempty"`
}
