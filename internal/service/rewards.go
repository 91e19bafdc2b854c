package service

import (
	"context"

	"github.com/brewline/order-service/internal/model"
	"github.com/brewline/order-service/internal/repository"
)

// Rewards accrues and spends loyalty points. Accrual is idempotent per
// order; redemption is a single atomic balance-guarded decrement.
type Rewards struct {
	profiles ProfileStore
}

// NewRewards constructs a Rewards service.
func NewRewards(profiles ProfileStore) *Rewards {
	if profiles == nil {
		panic("nil profile store passed to NewRewards")
	}
	return &Rewards{profiles: profiles}
}

// Award credits points for a paid order: one point per whole currency unit
// of the total, floored. The store's per-order marker makes repeat calls
// no-ops, so the caller may safely invoke it on every delivery of the same
// success event. It returns the number of points credited.
func (s *Rewards) Award(ctx context.Context, order *model.Order) (int64, error) {
	points := order.TotalCents / 100
	if points <= 0 {
		return 0, nil
	}
	if err := s.profiles.AwardPoints(ctx, order.UserID, order.ID, points); err != nil {
		return 0, err
	}
	return points, nil
}

// Profile returns the user's profile including the current point balance.
func (s *Rewards) Profile(ctx context.Context, userID uint64) (*model.Profile, error) {
	return s.profiles.GetByUserID(ctx, userID)
}

// Redeem exchanges points for a merch item in one atomic operation. The
// stock and existence checks reject before mutation; the balance check lives
// in the store's conditional decrement, so two concurrent redemptions can
// never both succeed on an insufficient balance.
func (s *Rewards) Redeem(ctx context.Context, userID, merchID uint64) (*model.MerchItem, error) {
	item, err := s.profiles.GetMerchItem(ctx, merchID)
	if err != nil {
		return nil, err
	}
	if !item.InStock {
		return nil, repository.ErrMerchOutOfStock
	}
	if err := s.profiles.RedeemPoints(ctx, userID, item.PointsCost); err != nil {
		return nil, err
	}
	return item, nil
}
