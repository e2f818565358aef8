package cartdto

import (
	"encoding/json"
	"time"

	cartsvc "github.com/angelmondragon/sweettreats-backend/internal/cart"
	"github.com/shopspring/decimal"
)

// Summary is the cart page view: lines plus count and money totals.
type Summary struct {
	Items     []cartsvc.LineItem `json:"items"`
	ItemCount int                `json:"itemCount"`
	Subtotal  json.Number        `json:"subtotal"`
	Shipping  json.Number        `json:"shipping"`
	Total     json.Number        `json:"total"`
}

// MutationResponse reports a single add, update or remove together with the
// resulting cart.
type MutationResponse struct {
	Action cartsvc.Action   `json:"action"`
	Item   cartsvc.LineItem `json:"item"`
	Cart   Summary          `json:"cart"`
}

// ValidationResponse is returned when the cart can be checked out.
type ValidationResponse struct {
	Valid     bool        `json:"valid"`
	ItemCount int         `json:"itemCount"`
	Subtotal  json.Number `json:"subtotal"`
}

// Order is a placed order as exposed through the API.
type Order struct {
	ID          string             `json:"id"`
	UserID      string             `json:"userId"`
	Items       []cartsvc.LineItem `json:"items"`
	ItemCount   int                `json:"itemCount"`
	Subtotal    json.Number        `json:"subtotal"`
	Shipping    json.Number        `json:"shipping"`
	Total       json.Number        `json:"total"`
	Notes       string             `json:"notes,omitempty"`
	PaymentInfo map[string]string  `json:"paymentInfo,omitempty"`
	Status      string             `json:"status"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// Money renders d with two decimals as a JSON number.
func Money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func NewSummary(s cartsvc.Summary) Summary {
	items := s.Items
	if items == nil {
		items = []cartsvc.LineItem{}
	}
	return Summary{
		Items:     items,
		ItemCount: s.ItemCount,
		Subtotal:  Money(s.Subtotal),
		Shipping:  Money(s.Shipping),
		Total:     Money(s.Total),
	}
}

func NewOrder(o cartsvc.Order) Order {
	items := o.Items
	if items == nil {
		items = []cartsvc.LineItem{}
	}
	return Order{
		ID:          o.ID,
		UserID:      o.UserID,
		Items:       items,
		ItemCount:   o.ItemCount,
		Subtotal:    Money(o.Subtotal),
		Shipping:    Money(o.Shipping),
		Total:       Money(o.Total),
		Notes:       o.Notes,
		PaymentInfo: o.PaymentInfo,
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
	}
}

func NewOrders(orders []cartsvc.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewOrder(o))
	}
	return out
}
