package cart

import (
	"encoding/json"
	"strings"

	cartdto "github.com/angelmondragon/sweettreats-backend/api/controllers/cart/dto"
	cartsvc "github.com/angelmondragon/sweettreats-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/sweettreats-backend/pkg/errors"
)

func toItemInput(payload cartdto.AddItemRequest) (cartsvc.ItemInput, error) {
	id, err := itemID(payload.ID)
	if err != nil {
		return cartsvc.ItemInput{}, err
	}
	return cartsvc.ItemInput{
		ID:       id,
		Name:     payload.Name,
		Price:    payload.Price,
		Quantity: payload.Quantity,
		Image:    payload.Image,
		Request:  payload.Request,
	}, nil
}

// itemID accepts catalog ids sent as strings or numbers.
func itemID(v any) (string, error) {
	switch id := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(id), nil
	case json.Number:
		return id.String(), nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeInvalidItem, "id must be a string or number").
			WithDetails(map[string]any{"field": "id"})
	}
}

func toCheckoutOptions(payload cartdto.CheckoutRequest) (cartsvc.CheckoutOptions, error) {
	opts := cartsvc.CheckoutOptions{
		Notes:       payload.Notes,
		PaymentInfo: payload.PaymentInfo,
	}
	if payload.Shipping != nil {
		shipping, err := cartsvc.ParsePrice(payload.Shipping)
		if err != nil {
			return cartsvc.CheckoutOptions{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping").
				WithDetails(map[string]any{"field": "shipping"})
		}
		opts.Shipping = &shipping
	}
	return opts, nil
}
