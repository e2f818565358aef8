package cart

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	cartdto "github.com/angelmondragon/sweettreats-backend/api/controllers/cart/dto"
	"github.com/angelmondragon/sweettreats-backend/api/middleware"
	"github.com/angelmondragon/sweettreats-backend/api/responses"
	"github.com/angelmondragon/sweettreats-backend/api/validators"
	cartsvc "github.com/angelmondragon/sweettreats-backend/internal/cart"
	"github.com/angelmondragon/sweettreats-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/sweettreats-backend/pkg/errors"
	"github.com/angelmondragon/sweettreats-backend/pkg/logger"
)

const (
	sortInsertion = "insertion"
	sortRecent    = "recent"
)

// StoreResolver returns the cart store bound to a scope.
type StoreResolver interface {
	Store(ctx context.Context, scope string) (*cartsvc.Store, error)
}

// CartFetch returns the cart summary. ?sort=recent orders lines by last
// touch for display without changing the stored order.
func CartFetch(stores StoreResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := resolveStore(w, r, stores, logg)
		if !ok {
			return
		}

		order, err := validators.ParseQueryEnum(r, "sort", sortInsertion, sortInsertion, sortRecent)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot := store.Snapshot()
		if order == sortRecent {
			cartsvc.SortByRecency(snapshot.Items)
		}
		responses.WriteSuccess(w, cartdto.NewSummary(snapshot))
	}
}

// CartAddItem adds a product or increases the quantity of the matching line.
func CartAddItem(stores StoreResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := resolveStore(w, r, stores, logg)
		if !ok {
			return
		}

		var payload cartdto.AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := toItemInput(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mutation, err := store.AddItem(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusOK
		if mutation.Action == cartsvc.ActionAdded {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, newMutationResponse(mutation, store))
	}
}

// CartUpdateItem sets a line's quantity; zero or less removes the line.
func CartUpdateItem(stores StoreResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := resolveStore(w, r, stores, logg)
		if !ok {
			return
		}

		itemID, err := itemIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartdto.UpdateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mutation, err := store.UpdateQuantity(r.Context(), itemID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMutationResponse(mutation, store))
	}
}

// CartRemoveItem removes a line by id.
func CartRemoveItem(stores StoreResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := resolveStore(w, r, stores, logg)
		if !ok {
			return
		}

		itemID, err := itemIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		removed, err := store.RemoveItem(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMutationResponse(cartsvc.Mutation{Action: cartsvc.ActionRemoved, Item: removed}, store))
	}
}

func CartClear(stores StoreResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := resolveStore(w, r, stores, logg)
		if !ok {
			return
		}
		if err := store.Clear(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartdto.NewSummary(store.Snapshot()))
	}
}

// CartValidate reports whether the cart can be checked out.
func CartValidate(stores StoreResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := resolveStore(w, r, stores, logg)
		if !ok {
			return
		}
		if err := store.ValidateForCheckout(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary := store.Snapshot()
		responses.WriteSuccess(w, cartdto.ValidationResponse{
			Valid:     true,
			ItemCount: summary.ItemCount,
			Subtotal:  cartdto.Money(summary.Subtotal),
		})
	}
}

// CartCheckout turns the cart into a pending order for the current user.
func CartCheckout(stores StoreResolver, svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "user id required").
				WithDetails(map[string]any{"header": middleware.UserIDHeader}))
			return
		}

		store, ok := resolveStore(w, r, stores, logg)
		if !ok {
			return
		}

		var payload cartdto.CheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		opts, err := toCheckoutOptions(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), store, userID, opts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, cartdto.NewOrder(*order))
	}
}

func resolveStore(w http.ResponseWriter, r *http.Request, stores StoreResolver, logg *logger.Logger) (*cartsvc.Store, bool) {
	if stores == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart registry unavailable"))
		return nil, false
	}
	scope := middleware.CartScopeFromContext(r.Context())
	if scope == "" {
		scope = cartsvc.DefaultScope
	}
	store, err := stores.Store(r.Context(), scope)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, false
	}
	return store, true
}

func itemIDParam(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "itemId"))
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "item id required").
			WithDetails(map[string]any{"field": "itemId"})
	}
	return id, nil
}
