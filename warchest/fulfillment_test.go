package warchest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageInventoryFulfillerAccumulates(t *testing.T) {
	ctx := context.Background()
	logger := &mockLogger{}
	nk := newTestNakama()
	fulfiller := &storageInventoryFulfiller{}

	item := &CatalogItem{Name: "Assault Rifle", ShortName: "rifle.ak", ItemID: "1545779598"}

	require.NoError(t, fulfiller.Grant(ctx, logger, nk, "user1", item, 1))
	require.NoError(t, fulfiller.Grant(ctx, logger, nk, "user1", item, 2))

	counts := make(map[string]int64)
	value := nk.storageData[formatStorageKey("inventory", "items", "user1")]
	require.NoError(t, json.Unmarshal([]byte(value), &counts))
	assert.Equal(t, int64(3), counts["1545779598"])
}

func TestStorageInventoryFulfillerValidation(t *testing.T) {
	ctx := context.Background()
	logger := &mockLogger{}
	nk := newTestNakama()
	fulfiller := &storageInventoryFulfiller{}

	err := fulfiller.Grant(ctx, logger, nk, "user1", &CatalogItem{Name: "No ID"}, 1)
	assert.Error(t, err)

	err = fulfiller.Grant(ctx, logger, nk, "user1", &CatalogItem{Name: "Rifle", ItemID: "1"}, 0)
	assert.ErrorIs(t, err, ErrShopInvalidQuantity)
}
