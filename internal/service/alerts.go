package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/squireaintready/breakout/internal/alert"
	"github.com/squireaintready/breakout/internal/domain"
	"github.com/squireaintready/breakout/internal/state"
)

// AlertService manages the lifecycle of price and P&L alerts. Deleting or
// re-arming an alert also clears its fired and cooldown bookkeeping in the
// engine so a re-created condition is immediately eligible to fire.
type AlertService struct {
	sync   *state.Synchronizer
	engine *alert.Engine
	now    func() time.Time
	logger *slog.Logger
}

// NewAlertService creates an AlertService operating on the synchronizer's
// state and the given evaluation engine.
func NewAlertService(sync *state.Synchronizer, engine *alert.Engine, logger *slog.Logger) *AlertService {
	return &AlertService{
		sync:   sync,
		engine: engine,
		now:    time.Now,
		logger: logger.With(slog.String("component", "alert_service")),
	}
}

// CreatePriceAlertInput carries the parameters for a new price alert.
type CreatePriceAlertInput struct {
	Asset       string           `json:"asset"`
	TargetPrice float64          `json:"targetPrice"`
	Direction   domain.Direction `json:"direction"`
	Note        string           `json:"note"`
	Persistent  bool             `json:"persistent"`
}

// CreatePriceAlert adds a new armed price alert.
func (s *AlertService) CreatePriceAlert(ctx context.Context, in CreatePriceAlertInput) (*domain.PriceAlert, error) {
	if in.Asset == "" || in.TargetPrice <= 0 || !in.Direction.Valid() {
		return nil, fmt.Errorf("service: create price alert: %w", domain.ErrInvalidInput)
	}

	a := &domain.PriceAlert{
		ID:          uuid.NewString(),
		Asset:       in.Asset,
		TargetPrice: in.TargetPrice,
		Direction:   in.Direction,
		Note:        in.Note,
		Persistent:  in.Persistent,
		CreatedAt:   s.now().UnixMilli(),
	}

	err := s.sync.WithState(func(st *domain.AccountState) bool {
		st.PriceAlerts = append(st.PriceAlerts, a)
		return true
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "price alert created",
		slog.String("id", a.ID),
		slog.String("asset", a.Asset),
		slog.Float64("target", a.TargetPrice),
		slog.String("direction", string(a.Direction)),
	)
	return a, nil
}

// DeletePriceAlert removes a price alert. Removing a fired alert and removing
// an armed one are the same operation; the engine's fired entry is cleared
// either way.
func (s *AlertService) DeletePriceAlert(ctx context.Context, id string) error {
	found := false
	err := s.sync.WithState(func(st *domain.AccountState) bool {
		if st.FindPriceAlert(id) == nil {
			return false
		}
		found = true
		st.PriceAlerts = removePriceAlert(st.PriceAlerts, id)
		return true
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("service: delete price alert %s: %w", id, domain.ErrNotFound)
	}
	s.engine.ClearFired(id)
	return nil
}

// RearmPriceAlert returns a fired alert to the armed state: triggered flags
// are reset, the creation time restarts, and the engine forgets the alert
// fired so it may fire again immediately.
func (s *AlertService) RearmPriceAlert(ctx context.Context, id string) (*domain.PriceAlert, error) {
	var rearmed *domain.PriceAlert
	err := s.sync.WithState(func(st *domain.AccountState) bool {
		a := st.FindPriceAlert(id)
		if a == nil {
			return false
		}
		a.Triggered = false
		a.TriggeredAt = nil
		a.CreatedAt = s.now().UnixMilli()
		rearmed = a
		return true
	})
	if err != nil {
		return nil, err
	}
	if rearmed == nil {
		return nil, fmt.Errorf("service: rearm price alert %s: %w", id, domain.ErrNotFound)
	}
	s.engine.ClearFired(id)
	s.logger.InfoContext(ctx, "price alert rearmed", slog.String("id", id))
	return rearmed, nil
}

// CreatePnlAlertInput carries the parameters for a new P&L alert.
type CreatePnlAlertInput struct {
	TargetPnl  float64          `json:"targetPnl"`
	Direction  domain.Direction `json:"direction"`
	Note       string           `json:"note"`
	Persistent bool             `json:"persistent"`
}

// CreatePnlAlert adds a new armed P&L alert.
func (s *AlertService) CreatePnlAlert(ctx context.Context, in CreatePnlAlertInput) (*domain.PnlAlert, error) {
	if !in.Direction.Valid() {
		return nil, fmt.Errorf("service: create pnl alert: %w", domain.ErrInvalidInput)
	}

	a := &domain.PnlAlert{
		ID:         uuid.NewString(),
		TargetPnl:  in.TargetPnl,
		Direction:  in.Direction,
		Note:       in.Note,
		Persistent: in.Persistent,
		CreatedAt:  s.now().UnixMilli(),
	}

	err := s.sync.WithState(func(st *domain.AccountState) bool {
		st.PnlAlerts = append(st.PnlAlerts, a)
		return true
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "pnl alert created",
		slog.String("id", a.ID),
		slog.Float64("target", a.TargetPnl),
		slog.String("direction", string(a.Direction)),
	)
	return a, nil
}

// DeletePnlAlert removes a P&L alert and its engine bookkeeping.
func (s *AlertService) DeletePnlAlert(ctx context.Context, id string) error {
	found := false
	err := s.sync.WithState(func(st *domain.AccountState) bool {
		if st.FindPnlAlert(id) == nil {
			return false
		}
		found = true
		st.PnlAlerts = removePnlAlert(st.PnlAlerts, id)
		return true
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("service: delete pnl alert %s: %w", id, domain.ErrNotFound)
	}
	s.engine.ClearFired(alert.PnlKey(id))
	return nil
}

// RearmPnlAlert returns a fired P&L alert to the armed state.
func (s *AlertService) RearmPnlAlert(ctx context.Context, id string) (*domain.PnlAlert, error) {
	var rearmed *domain.PnlAlert
	err := s.sync.WithState(func(st *domain.AccountState) bool {
		a := st.FindPnlAlert(id)
		if a == nil {
			return false
		}
		a.Triggered = false
		a.TriggeredAt = nil
		a.CreatedAt = s.now().UnixMilli()
		rearmed = a
		return true
	})
	if err != nil {
		return nil, err
	}
	if rearmed == nil {
		return nil, fmt.Errorf("service: rearm pnl alert %s: %w", id, domain.ErrNotFound)
	}
	s.engine.ClearFired(alert.PnlKey(id))
	s.logger.InfoContext(ctx, "pnl alert rearmed", slog.String("id", id))
	return rearmed, nil
}

func removePriceAlert(alerts []*domain.PriceAlert, id string) []*domain.PriceAlert {
	out := alerts[:0]
	for _, a := range alerts {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}

func removePnlAlert(alerts []*domain.PnlAlert, id string) []*domain.PnlAlert {
	out := alerts[:0]
	for _, a := range alerts {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}
