package domain

// Settings holds the user-tunable account parameters.
type Settings struct {
	StartingBalance      float64 `json:"startingBalance"`
	DailyHardDrawdownPct float64 `json:"dailyHardDrawdownPct"`
	TotalDrawdownPct     float64 `json:"totalDrawdownPct"`
	DailySoftDrawdownPct float64 `json:"dailySoftDrawdownPct"`
	BtcEthLeverage       float64 `json:"btcEthLeverage"`
	AltLeverage          float64 `json:"altLeverage"`
	DailyResetHourUTC    int     `json:"dailyResetHourUTC"`
	DarkMode             bool    `json:"darkMode"`
	TradingFeePct        float64 `json:"tradingFeePct"`
	DailySwapFeePct      float64 `json:"dailySwapFeePct"`
}

// DefaultSettings returns the settings a freshly created account starts with.
func DefaultSettings() Settings {
	return Settings{
		StartingBalance:      100_000,
		DailyHardDrawdownPct: 3,
		TotalDrawdownPct:     6,
		DailySoftDrawdownPct: 1,
		BtcEthLeverage:       5,
		AltLeverage:          2,
		DailyResetHourUTC:    0,
		DarkMode:             true,
		TradingFeePct:        0.04,
		DailySwapFeePct:      0.033,
	}
}

// AccountState is the full persisted account snapshot. It is stored as a
// single JSON document in the state store and shared verbatim with the
// dashboard UI, so field names and timestamp encodings must not change.
type AccountState struct {
	Balance         float64          `json:"balance"`
	HighWaterMark   float64          `json:"highWaterMark"`
	DayStartBalance float64          `json:"dayStartBalance"`
	LastDailyReset  int64            `json:"lastDailyReset"`
	RealizedPnl     float64          `json:"realizedPnl"`
	Positions       []*Position      `json:"positions"`
	Trades          []*Trade         `json:"trades"`
	EquityHistory   []EquitySnapshot `json:"equityHistory"`
	Settings        Settings         `json:"settings"`
	PriceAlerts     []*PriceAlert    `json:"priceAlerts"`
	PnlAlerts       []*PnlAlert      `json:"pnlAlerts"`
}

// NewAccountState returns an account initialized from the given settings.
func NewAccountState(settings Settings, now int64) *AccountState {
	return &AccountState{
		Balance:         settings.StartingBalance,
		HighWaterMark:   settings.StartingBalance,
		DayStartBalance: settings.StartingBalance,
		LastDailyReset:  now,
		Settings:        settings,
		Positions:       []*Position{},
		Trades:          []*Trade{},
		EquityHistory:   []EquitySnapshot{},
		PriceAlerts:     []*PriceAlert{},
		PnlAlerts:       []*PnlAlert{},
	}
}

// FindPosition returns the open position with the given id, or nil.
func (s *AccountState) FindPosition(id string) *Position {
	for _, p := range s.Positions {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// FindPriceAlert returns the price alert with the given id, or nil.
func (s *AccountState) FindPriceAlert(id string) *PriceAlert {
	for _, a := range s.PriceAlerts {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// FindPnlAlert returns the P&L alert with the given id, or nil.
func (s *AccountState) FindPnlAlert(id string) *PnlAlert {
	for _, a := range s.PnlAlerts {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// Clone returns a deep copy of the account state, safe to hand to another
// goroutine (e.g. a best-effort push) while the original keeps mutating.
func (s *AccountState) Clone() *AccountState {
	c := *s
	c.Positions = make([]*Position, len(s.Positions))
	for i, p := range s.Positions {
		cp := *p
		if p.StopLoss != nil {
			v := *p.StopLoss
			cp.StopLoss = &v
		}
		if p.TakeProfit != nil {
			v := *p.TakeProfit
			cp.TakeProfit = &v
		}
		c.Positions[i] = &cp
	}
	c.Trades = make([]*Trade, len(s.Trades))
	for i, t := range s.Trades {
		ct := *t
		ct.Tags = append([]string(nil), t.Tags...)
		c.Trades[i] = &ct
	}
	c.EquityHistory = append([]EquitySnapshot(nil), s.EquityHistory...)
	c.PriceAlerts = make([]*PriceAlert, len(s.PriceAlerts))
	for i, a := range s.PriceAlerts {
		ca := *a
		if a.TriggeredAt != nil {
			v := *a.TriggeredAt
			ca.TriggeredAt = &v
		}
		c.PriceAlerts[i] = &ca
	}
	c.PnlAlerts = make([]*PnlAlert, len(s.PnlAlerts))
	for i, a := range s.PnlAlerts {
		ca := *a
		if a.TriggeredAt != nil {
			v := *a.TriggeredAt
			ca.TriggeredAt = &v
		}
		c.PnlAlerts[i] = &ca
	}
	return &c
}

// SetBalance updates the balance and restores the high-water-mark invariant:
// the mark only ever moves up.
func (s *AccountState) SetBalance(balance float64) {
	s.Balance = balance
	if balance > s.HighWaterMark {
		s.HighWaterMark = balance
	}
}
