package cart

import (
	cartdto "github.com/angelmondragon/sweettreats-backend/api/controllers/cart/dto"
	cartsvc "github.com/angelmondragon/sweettreats-backend/internal/cart"
)

func newMutationResponse(m cartsvc.Mutation, store *cartsvc.Store) cartdto.MutationResponse {
	return cartdto.MutationResponse{
		Action: m.Action,
		Item:   m.Item,
		Cart:   cartdto.NewSummary(store.Snapshot()),
	}
}
