package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/sweettreats-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/sweettreats-backend/pkg/errors"
	"github.com/angelmondragon/sweettreats-backend/pkg/logger"
)

// Checkouter is the part of a cart store PlaceOrder needs.
type Checkouter interface {
	Checkout(ctx context.Context, userID string, opts cart.CheckoutOptions) (*cart.Order, error)
}

// HistoryStore persists placed orders per user.
type HistoryStore interface {
	Append(ctx context.Context, order cart.Order) error
	List(ctx context.Context, userID string) ([]cart.Order, error)
}

type checkoutRecorder interface {
	IncCheckout()
}

// Service turns a cart into a placed order and hands it off.
type Service interface {
	PlaceOrder(ctx context.Context, store Checkouter, userID string, opts cart.CheckoutOptions) (*cart.Order, error)
	History(ctx context.Context, userID string) ([]cart.Order, error)
}

type service struct {
	history   HistoryStore
	publisher Publisher
	metrics   checkoutRecorder
	logg      *logger.Logger
}

// NewService wires the checkout hand-off. metrics may be nil.
func NewService(history HistoryStore, publisher Publisher, metrics checkoutRecorder, logg *logger.Logger) (Service, error) {
	if history == nil {
		return nil, fmt.Errorf("order history required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("order publisher required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		history:   history,
		publisher: publisher,
		metrics:   metrics,
		logg:      logg,
	}, nil
}

// PlaceOrder checks out the cart. Once the cart is cleared the order is
// returned even if recording or publishing it fails; those failures are logged.
func (s *service) PlaceOrder(ctx context.Context, store Checkouter, userID string, opts cart.CheckoutOptions) (*cart.Order, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required").
			WithDetails(map[string]any{"field": "userId"})
	}
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart store required")
	}

	order, err := store.Checkout(ctx, userID, opts)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(s.logg.WithUserID(ctx, userID), map[string]any{
		"order_id": order.ID,
		"total":    order.Total.StringFixed(2),
	})
	if s.metrics != nil {
		s.metrics.IncCheckout()
	}
	if err := s.history.Append(ctx, *order); err != nil {
		s.logg.Error(ctx, "orders.history_append_failed", err)
	}
	if err := s.publisher.PublishOrderPlaced(ctx, order); err != nil {
		s.logg.Error(ctx, "orders.publish_failed", err)
	}
	s.logg.Info(ctx, "orders.placed")
	return order, nil
}

func (s *service) History(ctx context.Context, userID string) ([]cart.Order, error) {
	return s.history.List(ctx, userID)
}
