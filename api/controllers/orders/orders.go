package orders

import (
	"net/http"
	"strings"

	cartdto "github.com/angelmondragon/sweettreats-backend/api/controllers/cart/dto"
	"github.com/angelmondragon/sweettreats-backend/api/middleware"
	"github.com/angelmondragon/sweettreats-backend/api/responses"
	"github.com/angelmondragon/sweettreats-backend/api/validators"
	internalorders "github.com/angelmondragon/sweettreats-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/sweettreats-backend/pkg/errors"
	"github.com/angelmondragon/sweettreats-backend/pkg/logger"
	"github.com/angelmondragon/sweettreats-backend/pkg/pagination"
)

type listResponse struct {
	Orders     []cartdto.Order `json:"orders"`
	Total      int             `json:"total"`
	NextCursor string          `json:"nextCursor,omitempty"`
}

// List returns a page of the current user's orders, newest first.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
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

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		history, err := svc.History(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := internalorders.Paginate(history, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listResponse{
			Orders:     cartdto.NewOrders(page.Orders),
			Total:      page.Total,
			NextCursor: page.NextCursor,
		})
	}
}
