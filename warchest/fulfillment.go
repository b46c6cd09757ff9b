package warchest

import (
	"context"
	"encoding/json"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	inventoryCollection = "inventory"
	inventoryKey        = "items"
)

// A Fulfiller delivers purchased items to a player. Implementations may fail,
// for example on a full inventory or an item id the game no longer knows.
type Fulfiller interface {
	Grant(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, item *CatalogItem, quantity int64) error
}

// storageInventoryFulfiller grants purchases into the player's storage-backed
// inventory object, keyed by the catalog item's external id.
type storageInventoryFulfiller struct{}

var defaultFulfiller Fulfiller = &storageInventoryFulfiller{}

func (f *storageInventoryFulfiller) Grant(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, item *CatalogItem, quantity int64) error {
	if item.ItemID == "" {
		return runtime.NewError("catalog item has no external item id", 9) // FAILED_PRECONDITION
	}
	if quantity <= 0 {
		return ErrShopInvalidQuantity
	}

	objects, err := nk.StorageRead(ctx, []*runtime.StorageRead{
		{
			Collection: inventoryCollection,
			Key:        inventoryKey,
			UserID:     userID,
		},
	})
	if err != nil {
		logger.Error("Error reading inventory from storage: %v", err)
		return ErrInternal
	}

	counts := make(map[string]int64)
	if len(objects) > 0 {
		if err := json.Unmarshal([]byte(objects[0].Value), &counts); err != nil {
			logger.Error("Error unmarshaling inventory: %v", err)
			return ErrInternal
		}
	}
	counts[item.ItemID] += quantity

	data, err := json.Marshal(counts)
	if err != nil {
		logger.Error("Error marshaling inventory: %v", err)
		return ErrInternal
	}

	if _, err := nk.StorageWrite(ctx, []*runtime.StorageWrite{
		{
			Collection:      inventoryCollection,
			Key:             inventoryKey,
			UserID:          userID,
			Value:           string(data),
			PermissionRead:  1,
			PermissionWrite: 0,
		},
	}); err != nil {
		logger.Error("Error writing inventory to storage: %v", err)
		return ErrInternal
	}

	return nil
}
