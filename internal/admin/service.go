package admin

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/shopmandi/shopmandi-backend/pkg/errors"
)

// StatsDTO is the marketplace-wide aggregate returned to admins.
type StatsDTO struct {
	Users    int64           `json:"users"`
	Products int64           `json:"products"`
	Orders   int64           `json:"orders"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type counter interface {
	Count(ctx context.Context) (int64, error)
}

type revenueSource interface {
	Count(ctx context.Context) (int64, error)
	RevenueTotal(ctx context.Context) (decimal.Decimal, error)
}

// Service exposes the admin dashboard aggregates.
type Service interface {
	Stats(ctx context.Context) (*StatsDTO, error)
}

type service struct {
	users    counter
	products counter
	orders   revenueSource
}

// NewService wires the stat sources together.
func NewService(users, products counter, orders revenueSource) (Service, error) {
	if users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{users: users, products: products, orders: orders}, nil
}

func (s *service) Stats(ctx context.Context) (*StatsDTO, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count users")
	}
	products, err := s.products.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count products")
	}
	orders, err := s.orders.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count orders")
	}
	revenue, err := s.orders.RevenueTotal(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum revenue")
	}
	return &StatsDTO{
		Users:    users,
		Products: products,
		Orders:   orders,
		Revenue:  revenue,
	}, nil
}
