package cart

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Action names the kind of state change a notification reports.
type Action string

const (
	ActionAdded   Action = "added"
	ActionRemoved Action = "removed"
	ActionUpdated Action = "updated"
	ActionCleared Action = "cleared"
	// ActionSynced reports a reload caused by another writer of the same key.
	ActionSynced Action = "synced"
	// ActionReset reports that unreadable stored state was replaced by an empty cart.
	ActionReset Action = "reset"
)

// Mutation is the result of a successful add or quantity update.
type Mutation struct {
	Action Action   `json:"action"`
	Item   LineItem `json:"item"`
}

// Event is delivered to observers after every successful state change.
type Event struct {
	Action     Action     `json:"action"`
	Scope      string     `json:"scope"`
	Item       *LineItem  `json:"item,omitempty"`
	Items      []LineItem `json:"items"`
	TotalCount int        `json:"totalCount"`
}

// Observer receives cart notifications. Observers run synchronously after the
// mutation is persisted and may read the store, but must not mutate it from
// within CartChanged.
type Observer interface {
	CartChanged(ctx context.Context, event Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, event Event)

func (f ObserverFunc) CartChanged(ctx context.Context, event Event) {
	f(ctx, event)
}

// Summary is the cart as shown on the cart page.
type Summary struct {
	Items     []LineItem      `json:"items"`
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Shipping  decimal.Decimal `json:"shipping"`
	Total     decimal.Decimal `json:"total"`
}

// OrderStatusPending is the status of every freshly placed order.
const OrderStatusPending = "pending"

// Order is the snapshot handed off at checkout.
type Order struct {
	ID          string            `json:"id"`
	UserID      string            `json:"userId"`
	Items       []LineItem        `json:"items"`
	ItemCount   int               `json:"itemCount"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	Shipping    decimal.Decimal   `json:"shipping"`
	Total       decimal.Decimal   `json:"total"`
	Notes       string            `json:"notes,omitempty"`
	PaymentInfo map[string]string `json:"paymentInfo,omitempty"`
	Status      string            `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// CheckoutOptions carries the caller-supplied parts of an order. A nil
// Shipping uses the store's flat rate.
type CheckoutOptions struct {
	Shipping    *decimal.Decimal
	Notes       string
	PaymentInfo map[string]string
}
