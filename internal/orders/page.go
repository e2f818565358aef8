package orders

import (
	"github.com/angelmondragon/sweettreats-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/sweettreats-backend/pkg/errors"
	"github.com/angelmondragon/sweettreats-backend/pkg/pagination"
)

// Page is one newest-first slice of a user's order history.
type Page struct {
	Orders     []cart.Order
	Total      int
	NextCursor string
}

// Paginate returns the page of history, newest first, that follows
// params.Cursor. history must be in placement order, as History.List returns it.
func Paginate(history []cart.Order, params pagination.Params) (Page, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").
			WithDetails(map[string]any{"field": "cursor"})
	}

	start := len(history) - 1
	if cursor != nil {
		start = startAfter(history, *cursor)
	}

	page := Page{Orders: []cart.Order{}, Total: len(history)}
	i := start
	for ; i >= 0 && len(page.Orders) < limit; i-- {
		page.Orders = append(page.Orders, history[i])
	}
	if i >= 0 && len(page.Orders) > 0 {
		last := page.Orders[len(page.Orders)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// startAfter finds the index preceding the cursor's order. When that order is
// gone it resumes at the newest order placed before the cursor time.
func startAfter(history []cart.Order, c pagination.Cursor) int {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].ID == c.ID {
			return i - 1
		}
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].CreatedAt.Before(c.CreatedAt) {
			return i
		}
	}
	return -1
}
