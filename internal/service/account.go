// Package service implements the application operations on top of the state
// synchronizer: account and position bookkeeping, alert lifecycle, and the
// periodic checker loop. All mutations run under the synchronizer's lock and
// are persisted on its next push.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/squireaintready/breakout/internal/domain"
	"github.com/squireaintready/breakout/internal/risk"
	"github.com/squireaintready/breakout/internal/state"
)

// AccountService performs balance and position operations on the account.
type AccountService struct {
	sync   *state.Synchronizer
	now    func() time.Time
	logger *slog.Logger
}

// NewAccountService creates an AccountService backed by the synchronizer.
func NewAccountService(sync *state.Synchronizer, logger *slog.Logger) *AccountService {
	return &AccountService{
		sync:   sync,
		now:    time.Now,
		logger: logger.With(slog.String("component", "account_service")),
	}
}

// OpenPositionInput carries the parameters for opening a paper position.
type OpenPositionInput struct {
	Asset      string      `json:"asset"`
	Side       domain.Side `json:"side"`
	EntryPrice float64     `json:"entryPrice"`
	Size       float64     `json:"size"`
	StopLoss   *float64    `json:"stopLoss"`
	TakeProfit *float64    `json:"takeProfit"`
}

// OpenPosition opens a position and debits the entry fee from the balance.
func (s *AccountService) OpenPosition(ctx context.Context, in OpenPositionInput) (*domain.Position, error) {
	if in.Asset == "" || !in.Side.Valid() || in.EntryPrice <= 0 || in.Size <= 0 {
		return nil, fmt.Errorf("service: open position: %w", domain.ErrInvalidInput)
	}

	pos := &domain.Position{
		ID:         uuid.NewString(),
		Asset:      in.Asset,
		Side:       in.Side,
		EntryPrice: in.EntryPrice,
		Size:       in.Size,
		StopLoss:   in.StopLoss,
		TakeProfit: in.TakeProfit,
		OpenedAt:   s.now().UnixMilli(),
	}

	err := s.sync.WithState(func(st *domain.AccountState) bool {
		entryFee := pos.Size * (st.Settings.TradingFeePct / 100)
		st.Balance -= entryFee
		st.Positions = append(st.Positions, pos)
		return true
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "position opened",
		slog.String("id", pos.ID),
		slog.String("asset", pos.Asset),
		slog.String("side", string(pos.Side)),
		slog.Float64("size", pos.Size),
	)
	return pos, nil
}

// ClosePosition realizes the position's P&L at the given exit price, debits
// the exit fee, records the trade, and removes the position. Trade P&L is net
// of the exit fee; the entry fee was already debited when the position opened.
func (s *AccountService) ClosePosition(ctx context.Context, id string, exitPrice float64, notes string, tags []string) (*domain.Trade, error) {
	if exitPrice <= 0 {
		return nil, fmt.Errorf("service: close position: %w", domain.ErrInvalidInput)
	}
	if tags == nil {
		tags = []string{}
	}

	var trade *domain.Trade
	err := s.sync.WithState(func(st *domain.AccountState) bool {
		pos := st.FindPosition(id)
		if pos == nil {
			return false
		}

		pnl := pos.UnrealizedPnl(exitPrice)
		exitFee := pos.Size * (st.Settings.TradingFeePct / 100)
		entryFee := pos.Size * (st.Settings.TradingFeePct / 100)

		trade = &domain.Trade{
			ID:         uuid.NewString(),
			Asset:      pos.Asset,
			Side:       pos.Side,
			EntryPrice: pos.EntryPrice,
			ExitPrice:  exitPrice,
			Size:       pos.Size,
			Pnl:        pnl - exitFee,
			Fees:       entryFee + exitFee,
			Notes:      notes,
			Tags:       tags,
			OpenedAt:   pos.OpenedAt,
			ClosedAt:   s.now().UnixMilli(),
		}

		st.SetBalance(st.Balance + pnl - exitFee)
		st.RealizedPnl += trade.Pnl
		st.Trades = append(st.Trades, trade)
		st.Positions = removePosition(st.Positions, id)
		return true
	})
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, fmt.Errorf("service: close position %s: %w", id, domain.ErrNotFound)
	}

	s.logger.InfoContext(ctx, "position closed",
		slog.String("id", id),
		slog.Float64("exitPrice", exitPrice),
		slog.Float64("pnl", trade.Pnl),
	)
	return trade, nil
}

// DeletePosition removes a position without realizing P&L and refunds the
// entry fee that was debited when it opened.
func (s *AccountService) DeletePosition(ctx context.Context, id string) error {
	found := false
	err := s.sync.WithState(func(st *domain.AccountState) bool {
		pos := st.FindPosition(id)
		if pos == nil {
			return false
		}
		found = true
		entryFee := pos.Size * (st.Settings.TradingFeePct / 100)
		st.Balance += entryFee
		st.Positions = removePosition(st.Positions, id)
		return true
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("service: delete position %s: %w", id, domain.ErrNotFound)
	}
	s.logger.InfoContext(ctx, "position deleted", slog.String("id", id))
	return nil
}

// EditStops replaces the position's stop-loss and take-profit levels. A nil
// value clears the corresponding level.
func (s *AccountService) EditStops(ctx context.Context, id string, stopLoss, takeProfit *float64) (*domain.Position, error) {
	var edited *domain.Position
	err := s.sync.WithState(func(st *domain.AccountState) bool {
		pos := st.FindPosition(id)
		if pos == nil {
			return false
		}
		pos.StopLoss = stopLoss
		pos.TakeProfit = takeProfit
		edited = pos
		return true
	})
	if err != nil {
		return nil, err
	}
	if edited == nil {
		return nil, fmt.Errorf("service: edit stops %s: %w", id, domain.ErrNotFound)
	}
	return edited, nil
}

// SetBalance sets the balance directly, bumps the high-water mark if needed,
// and restarts the day from the new balance.
func (s *AccountService) SetBalance(ctx context.Context, balance float64) error {
	if balance < 0 {
		return fmt.Errorf("service: set balance: %w", domain.ErrInvalidInput)
	}
	return s.sync.WithState(func(st *domain.AccountState) bool {
		st.SetBalance(balance)
		st.DayStartBalance = balance
		return true
	})
}

// ResetAccount restores the account to the starting balance from its current
// settings and clears positions, trades, and equity history. Alerts survive a
// reset.
func (s *AccountService) ResetAccount(ctx context.Context) error {
	err := s.sync.WithState(func(st *domain.AccountState) bool {
		sb := st.Settings.StartingBalance
		st.Balance = sb
		st.HighWaterMark = sb
		st.DayStartBalance = sb
		st.LastDailyReset = s.now().UnixMilli()
		st.RealizedPnl = 0
		st.Positions = []*domain.Position{}
		st.Trades = []*domain.Trade{}
		st.EquityHistory = []domain.EquitySnapshot{}
		return true
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "account reset")
	return nil
}

// DailyResetIfDue rolls the trading day over when the configured UTC reset
// hour has passed since the last reset: open positions are charged the daily
// swap fee, an equity snapshot is recorded for the day, and the day-start
// balance is re-anchored. Returns whether a reset was applied.
func (s *AccountService) DailyResetIfDue(ctx context.Context) (bool, error) {
	reset := false
	err := s.sync.WithState(func(st *domain.AccountState) bool {
		now := s.now()
		if !risk.DailyResetDue(time.UnixMilli(st.LastDailyReset), st.Settings.DailyResetHourUTC, now) {
			return false
		}
		reset = true

		var swapFee float64
		for _, pos := range st.Positions {
			swapFee += pos.Size * (st.Settings.DailySwapFeePct / 100)
		}
		st.Balance -= swapFee

		appendEquitySnapshot(st, now)
		st.DayStartBalance = st.Balance
		st.LastDailyReset = now.UnixMilli()
		return true
	})
	if err != nil {
		return false, err
	}
	if reset {
		s.logger.InfoContext(ctx, "daily reset applied")
	}
	return reset, nil
}

// appendEquitySnapshot records today's balance on the equity curve, replacing
// any earlier snapshot for the same date.
func appendEquitySnapshot(st *domain.AccountState, now time.Time) {
	today := now.UTC().Format("2006-01-02")
	kept := st.EquityHistory[:0]
	for _, e := range st.EquityHistory {
		if e.Date != today {
			kept = append(kept, e)
		}
	}
	st.EquityHistory = append(kept, domain.EquitySnapshot{
		Date:        today,
		Balance:     st.Balance,
		DrawdownPct: risk.TotalDrawdownPct(st.Balance, st.HighWaterMark),
	})
}

func removePosition(positions []*domain.Position, id string) []*domain.Position {
	out := positions[:0]
	for _, p := range positions {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
