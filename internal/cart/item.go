package cart

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/sweettreats-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultPlaceholderImage is used for items added without an image.
const DefaultPlaceholderImage = "img/default-product.png"

// MaxQuantity bounds the quantity of a single line.
const MaxQuantity = math.MaxInt32

var itemNamespace = uuid.MustParse("6f1c2a4e-7b0d-5c3e-9a8f-2d4b6e8c0a1f")

// LineItem is one product entry in the cart.
type LineItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
	Request   string          `json:"request,omitempty"`
	AddedAt   *time.Time      `json:"addedAt,omitempty"`
	UpdatedAt *time.Time      `json:"updatedAt,omitempty"`
}

type wireItem struct {
	ID        json.RawMessage `json:"id"`
	Name      string          `json:"name"`
	Price     json.Number     `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
	Request   string          `json:"request,omitempty"`
	AddedAt   *time.Time      `json:"addedAt,omitempty"`
	UpdatedAt *time.Time      `json:"updatedAt,omitempty"`
}

// MarshalJSON writes the price as a JSON number.
func (i LineItem) MarshalJSON() ([]byte, error) {
	id, err := json.Marshal(i.ID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireItem{
		ID:        id,
		Name:      i.Name,
		Price:     json.Number(i.Price.String()),
		Quantity:  i.Quantity,
		Image:     i.Image,
		Request:   i.Request,
		AddedAt:   i.AddedAt,
		UpdatedAt: i.UpdatedAt,
	})
}

// UnmarshalJSON accepts string or numeric ids and prices.
func (i *LineItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		wireItem
		Price json.RawMessage `json:"price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := decodeID(raw.ID)
	if err != nil {
		return err
	}
	var price decimal.Decimal
	if len(raw.Price) > 0 && string(raw.Price) != "null" {
		if err := price.UnmarshalJSON(raw.Price); err != nil {
			return fmt.Errorf("item %q price: %w", id, err)
		}
	}

	*i = LineItem{
		ID:        id,
		Name:      raw.Name,
		Price:     price,
		Quantity:  raw.Quantity,
		Image:     raw.Image,
		Request:   raw.Request,
		AddedAt:   raw.AddedAt,
		UpdatedAt: raw.UpdatedAt,
	}
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("item id: %w", err)
	}
	return n.String(), nil
}

// Total returns price * quantity.
func (i LineItem) Total() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// problems lists the invariants the item violates.
func (i LineItem) problems() []string {
	var out []string
	if strings.TrimSpace(i.ID) == "" {
		out = append(out, "id is required")
	}
	if strings.TrimSpace(i.Name) == "" {
		out = append(out, "name is required")
	}
	if i.Price.IsNegative() {
		out = append(out, "price must be non-negative")
	}
	if i.Quantity < 1 {
		out = append(out, "quantity must be at least 1")
	}
	if i.Quantity > MaxQuantity {
		out = append(out, "quantity exceeds maximum")
	}
	return out
}

func (i LineItem) clone() LineItem {
	out := i
	if i.AddedAt != nil {
		t := *i.AddedAt
		out.AddedAt = &t
	}
	if i.UpdatedAt != nil {
		t := *i.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

// ItemInput is an add request as received from a caller. Price and Quantity
// accept numbers or strings; Name must be a string. Request is an optional
// special-request note; lines that differ only by note are kept apart.
type ItemInput struct {
	ID       string
	Name     any
	Price    any
	Quantity any
	Image    string
	Request  string
}

type normalizedItem struct {
	id       string
	name     string
	price    decimal.Decimal
	quantity int
	image    string
	request  string
}

func normalizeInput(in ItemInput, placeholder string) (normalizedItem, error) {
	name, ok := in.Name.(string)
	if !ok || strings.TrimSpace(name) == "" {
		return normalizedItem{}, invalidItem("name is required", "name")
	}
	name = strings.TrimSpace(name)

	price, err := ParsePrice(in.Price)
	if err != nil {
		return normalizedItem{}, invalidItem(err.Error(), "price")
	}

	qty, ok := ParseQuantity(in.Quantity)
	if !ok {
		qty = 1
	}
	if qty < 1 {
		qty = 1
	}

	request := strings.TrimSpace(in.Request)
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = DeriveID(name, price, request)
	}

	image := strings.TrimSpace(in.Image)
	if image == "" {
		image = placeholder
	}

	return normalizedItem{id: id, name: name, price: price, quantity: qty, image: image, request: request}, nil
}

func invalidItem(message, field string) error {
	return pkgerrors.New(pkgerrors.CodeInvalidItem, message).WithDetails(map[string]any{"field": field})
}

// DeriveID returns the stable identity for an item added without an explicit
// id. The same name, price and request note always derive the same id.
func DeriveID(name string, price decimal.Decimal, request string) string {
	key := strings.ToLower(strings.TrimSpace(name)) + "|" + price.StringFixed(2)
	if request = strings.TrimSpace(request); request != "" {
		key += "|" + strings.ToLower(request)
	}
	return uuid.NewSHA1(itemNamespace, []byte(key)).String()
}

// ParsePrice converts a numeric or currency-formatted price into a decimal.
// Strings drop every character other than digits, '.' and '-' before parsing.
func ParsePrice(v any) (decimal.Decimal, error) {
	var (
		price decimal.Decimal
		err   error
	)
	switch p := v.(type) {
	case nil:
		return decimal.Zero, fmt.Errorf("price is required")
	case decimal.Decimal:
		price = p
	case string:
		cleaned := strings.Map(func(r rune) rune {
			if (r >= '0' && r <= '9') || r == '.' || r == '-' {
				return r
			}
			return -1
		}, p)
		if cleaned == "" {
			return decimal.Zero, fmt.Errorf("price %q is not numeric", p)
		}
		price, err = decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Zero, fmt.Errorf("price %q is not numeric", p)
		}
	case json.Number:
		price, err = decimal.NewFromString(p.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("price %q is not numeric", p.String())
		}
	case float64:
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return decimal.Zero, fmt.Errorf("price must be finite")
		}
		price = decimal.NewFromFloat(p)
	case float32:
		f := float64(p)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, fmt.Errorf("price must be finite")
		}
		price = decimal.NewFromFloat32(p)
	case int:
		price = decimal.NewFromInt(int64(p))
	case int64:
		price = decimal.NewFromInt(p)
	case int32:
		price = decimal.NewFromInt32(p)
	default:
		return decimal.Zero, fmt.Errorf("price has unsupported type %T", v)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("price must be non-negative")
	}
	return price, nil
}

// ParseQuantity coerces v to an integer. Numbers are floored and strings use
// their leading integer ("3 boxes" is 3). ok is false when nothing usable was
// found or the value is outside ±MaxQuantity.
func ParseQuantity(v any) (int, bool) {
	switch q := v.(type) {
	case nil:
		return 0, false
	case int:
		return boundedInt(int64(q))
	case int64:
		return boundedInt(q)
	case int32:
		return int(q), true
	case float64:
		return floorFloat(q)
	case float32:
		return floorFloat(float64(q))
	case json.Number:
		if n, err := q.Int64(); err == nil {
			return boundedInt(n)
		}
		if f, err := q.Float64(); err == nil {
			return floorFloat(f)
		}
		return 0, false
	case string:
		return leadingInt(q)
	default:
		return 0, false
	}
}

func boundedInt(n int64) (int, bool) {
	if n > MaxQuantity || n < -MaxQuantity {
		return 0, false
	}
	return int(n), true
}

func floorFloat(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > MaxQuantity {
		return 0, false
	}
	return int(math.Floor(f)), true
}

func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		if n > MaxQuantity {
			return 0, false
		}
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
