package orders

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/sweettreats-backend/internal/cart"
	"github.com/angelmondragon/sweettreats-backend/internal/storage"
	pkgerrors "github.com/angelmondragon/sweettreats-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryAppendAndList(t *testing.T) {
	t.Parallel()

	mem := storage.NewMemory()
	history, err := NewHistory(mem, nil)
	require.NoError(t, err)
	ctx := context.Background()

	empty, err := history.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, history.Append(ctx, sampleOrder("o-1", "user-1")))
	require.NoError(t, history.Append(ctx, sampleOrder("o-2", "user-1")))
	require.NoError(t, history.Append(ctx, sampleOrder("o-3", "user-2")))

	list, err := history.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "o-1", list[0].ID)
	assert.Equal(t, "o-2", list[1].ID)
	assert.Equal(t, "250.00", list[0].Total.StringFixed(2))

	_, ok, err := mem.Get(ctx, HistoryScope, "orders:user-2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHistoryRequiresUser(t *testing.T) {
	t.Parallel()

	history, err := NewHistory(storage.NewMemory(), nil)
	require.NoError(t, err)

	err = history.Append(context.Background(), sampleOrder("o-1", " "))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = history.List(context.Background(), "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = NewHistory(nil, nil)
	assert.Error(t, err)
}

func TestHistoryRecoversFromCorruptList(t *testing.T) {
	t.Parallel()

	mem := storage.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, HistoryScope, "orders:user-1", "{oops"))

	history, err := NewHistory(mem, nil)
	require.NoError(t, err)

	list, err := history.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, history.Append(ctx, sampleOrder("o-1", "user-1")))
	list, err = history.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func sampleOrder(id, userID string) cart.Order {
	return cart.Order{
		ID:     id,
		UserID: userID,
		Items: []cart.LineItem{
			{ID: "a", Name: "Brownie", Price: decimal.NewFromInt(150), Quantity: 1},
		},
		ItemCount: 1,
		Subtotal:  decimal.NewFromInt(150),
		Shipping:  decimal.NewFromInt(100),
		Total:     decimal.NewFromInt(250),
		Status:    cart.OrderStatusPending,
		CreatedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

func mustDecimal(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}
