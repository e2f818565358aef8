package cartdto

// AddItemRequest is the body of POST /api/v1/cart/items. Name, price and
// quantity stay untyped so the cart can apply its own coercion rules; price
// may be a number or a currency string such as "₱150.00".
type AddItemRequest struct {
	ID       any    `json:"id"`
	Name     any    `json:"name"`
	Price    any    `json:"price"`
	Quantity any    `json:"quantity"`
	Image    string `json:"image" validate:"omitempty,max=2048"`
	Request  string `json:"request" validate:"max=500"`
}

// UpdateQuantityRequest is the body of PATCH /api/v1/cart/items/{itemId}.
type UpdateQuantityRequest struct {
	Quantity any `json:"quantity"`
}

// CheckoutRequest is the body of POST /api/v1/cart/checkout. A missing
// shipping uses the flat rate.
type CheckoutRequest struct {
	Shipping    any               `json:"shipping"`
	Notes       string            `json:"notes" validate:"max=500"`
	PaymentInfo map[string]string `json:"paymentInfo" validate:"omitempty,max=20"`
}
