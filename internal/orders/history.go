package orders

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/angelmondragon/sweettreats-backend/internal/cart"
	"github.com/angelmondragon/sweettreats-backend/internal/storage"
	pkgerrors "github.com/angelmondragon/sweettreats-backend/pkg/errors"
	"github.com/angelmondragon/sweettreats-backend/pkg/logger"
)

// HistoryScope is the storage scope user order lists live in.
const HistoryScope = "users"

// History keeps each user's placed orders as a JSON array under orders:<userID>.
type History struct {
	kv   storage.KV
	logg *logger.Logger
	mu   sync.Mutex
}

func NewHistory(kv storage.KV, logg *logger.Logger) (*History, error) {
	if kv == nil {
		return nil, errors.New("order history storage required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &History{kv: kv, logg: logg}, nil
}

func historyKey(userID string) string {
	return "orders:" + strings.TrimSpace(userID)
}

// Append adds order to the end of its user's history.
func (h *History) Append(ctx context.Context, order cart.Order) error {
	if strings.TrimSpace(order.UserID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order has no user")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	list, err := h.read(ctx, order.UserID)
	if err != nil {
		return err
	}
	list = append(list, order)
	payload, err := json.Marshal(list)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode order history")
	}
	if err := h.kv.Set(ctx, HistoryScope, historyKey(order.UserID), string(payload)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write order history")
	}
	return nil
}

// List returns the user's orders, oldest first.
func (h *History) List(ctx context.Context, userID string) ([]cart.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.read(ctx, userID)
}

func (h *History) read(ctx context.Context, userID string) ([]cart.Order, error) {
	raw, ok, err := h.kv.Get(ctx, HistoryScope, historyKey(userID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read order history")
	}
	if !ok {
		return []cart.Order{}, nil
	}
	var list []cart.Order
	if err := json.Unmarshal([]byte(raw), &list); err != nil || list == nil {
		ctx = h.logg.WithUserID(ctx, userID)
		h.logg.Warn(h.logg.WithField(ctx, "code", pkgerrors.CodeStorageCorrupt), "orders.history_reset")
		return []cart.Order{}, nil
	}
	return list, nil
}
