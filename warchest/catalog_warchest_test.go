package warchest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogLoadSeedsFromConfig(t *testing.T) {
	ctx := context.Background()
	logger := &mockLogger{}
	nk := newTestNakama()

	catalog := NewNakamaCatalogSystem(&CatalogConfig{Items: testCatalogItems()})
	count, err := catalog.LoadAll(ctx, logger, nk)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.Equal(t, 5, catalog.Count())
	assert.Equal(t, []string{"attire", "wc", "weapons"}, catalog.Categories())

	// The seed is persisted so later edits reload from storage.
	assert.Contains(t, nk.storageData, formatStorageKey("warchest", "catalog_items", ""))
}

func TestCatalogLoadEmpty(t *testing.T) {
	ctx := context.Background()
	logger := &mockLogger{}
	nk := newTestNakama()

	catalog := NewNakamaCatalogSystem(&CatalogConfig{})
	_, err := catalog.LoadAll(ctx, logger, nk)
	assert.ErrorIs(t, err, ErrCatalogEmpty)
}

func TestCatalogPersistedEditsSurviveReload(t *testing.T) {
	ctx := context.Background()
	logger := &mockLogger{}
	nk := newTestNakama()
	catalog := loadedTestCatalog(nk)

	_, err := catalog.UpdateItem(ctx, logger, nk, "Assault Rifle", UpdatePrice(175))
	require.NoError(t, err)

	// A fresh system with the same seed list loads the persisted document, not
	// the seed, so the edit survives a server restart.
	reloaded := NewNakamaCatalogSystem(&CatalogConfig{Items: testCatalogItems()})
	_, err = reloaded.LoadAll(ctx, logger, nk)
	require.NoError(t, err)

	items := reloaded.Find("Assault Rifle", FindExact)
	require.Len(t, items, 1)
	assert.Equal(t, int64(175), items[0].Price)
}

func TestCatalogDuplicateNameLastWins(t *testing.T) {
	ctx := context.Background()
	logger := &mockLogger{}
	nk := newTestNakama()

	catalog := NewNakamaCatalogSystem(&CatalogConfig{Items: []*CatalogItem{
		{Name: "Assault Rifle", ShortName: "rifle.ak", Price: 150, Category: "weapons", Priority: 1},
		{Name: "assault rifle", ShortName: "rifle.ak2", Price: 999, Category: "weapons", Priority: 2},
	}})
	count, err := catalog.LoadAll(ctx, logger, nk)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	items := catalog.Find("Assault Rifle", FindExact)
	require.Len(t, items, 1)
	assert.Equal(t, int64(999), items[0].Price)

	// The replaced entry must also be gone from its category bucket.
	assert.Len(t, catalog.CategoryItems("weapons"), 1)
}

func TestCatalogFind(t *testing.T) {
	nk := newTestNakama()
	catalog := loadedTestCatalog(nk)

	// Exact match by name is case-insensitive.
	items := catalog.Find("assault rifle", FindExact)
	require.Len(t, items, 1)
	assert.Equal(t, "rifle.ak", items[0].ShortName)

	// Exact match falls back to the shortname.
	items = catalog.Find("rifle.bolt", FindExact)
	require.Len(t, items, 1)
	assert.Equal(t, "Bolt Action Rifle", items[0].Name)

	// Substring search matches against names and shortnames.
	items = catalog.Find("road", FindSubstring)
	assert.Len(t, items, 2)

	assert.Empty(t, catalog.Find("thompson", FindSubstring))
	assert.Empty(t, catalog.Find("", FindSubstring))
}

func TestCatalogFindReturnsCopies(t *testing.T) {
	nk := newTestNakama()
	catalog := loadedTestCatalog(nk)

	items := catalog.Find("Assault Rifle", FindExact)
	require.Len(t, items, 1)
	items[0].Price = 1

	again := catalog.Find("Assault Rifle", FindExact)
	require.Len(t, again, 1)
	assert.Equal(t, int64(150), again[0].Price)
}

func TestCatalogCategoryItemsSortedByPriority(t *testing.T) {
	ctx := context.Background()
	logger := &mockLogger{}
	nk := newTestNakama()

	catalog := NewNakamaCatalogSystem(&CatalogConfig{Items: []*CatalogItem{
		{Name: "Bolt Action Rifle", ShortName: "rifle.bolt", Price: 250, Category: "weapons", Priority: 5},
		{Name: "Assault Rifle", ShortName: "rifle.ak", Price: 150, Category: "weapons", Priority: 1},
		{Name: "Thompson", ShortName: "smg.thompson", Price: 100, Category: "weapons", Priority: 3},
	}})
	_, err := catalog.LoadAll(ctx, logger, nk)
	require.NoError(t, err)

	items := catalog.CategoryItems("Weapons")
	require.Len(t, items, 3)
	assert.Equal(t, "rifle.ak", items[0].ShortName)
	assert.Equal(t, "smg.thompson", items[1].ShortName)
	assert.Equal(t, "rifle.bolt", items[2].ShortName)

	assert.Nil(t, catalog.CategoryItems("attire"))
	assert.True(t, catalog.HasCategory("weapons"))
	assert.False(t, catalog.HasCategory("attire"))
}

func TestCatalogUpdateItemPrice(t *testing.T) {
	ctx := context.Background()
	logger := &mockLogger{}
	nk := newTestNakama()
	catalog := loadedTestCatalog(nk)

	item, err := catalog.UpdateItem(ctx, logger, nk, "roadsign kilt", UpdatePrice(55))
	require.NoError(t, err)
	assert.Equal(t, int64(55), item.Price)

	items := catalog.Find("Roadsign Kilt", FindExact)
	require.Len(t, items, 1)
	assert.Equal(t, int64(55), items[0].Price)
}

func TestCatalogUpdateItemMovesCategory(t *testing.T) {
	ctx := context.Background()
	logger := &mockLogger{}
	nk := newTestNakama()
	catalog := loadedTestCatalog(nk)

	item, err := catalog.UpdateItem(ctx, logger, nk, "Supply Signal", UpdateCategory("tools"))
	require.NoError(t, err)
	assert.Equal(t, "tools", item.Category)

	// The emptied source bucket disappears; the item lands in the new one.
	assert.False(t, catalog.HasCategory("wc"))
	require.Len(t, catalog.CategoryItems("tools"), 1)

	// Leaving the coin category changes the purchase currency too.
	assert.Equal(t, CurrencyPoints, catalog.CurrencyFor(item))
}

func TestCatalogUpdateItemErrors(t *testing.T) {
	ctx := context.Background()
	logger := &mockLogger{}
	nk := newTestNakama()
	catalog := loadedTestCatalog(nk)

	_, err := catalog.UpdateItem(ctx, logger, nk, "Minigun", UpdatePrice(1))
	assert.ErrorIs(t, err, ErrCatalogUnknownItem)

	_, err = catalog.UpdateItem(ctx, logger, nk, "Assault Rifle", nil)
	assert.ErrorIs(t, err, ErrBadInput)
}

func TestParseCatalogUpdate(t *testing.T) {
	update, err := ParseCatalogUpdate("price", "200")
	require.NoError(t, err)
	assert.Equal(t, UpdatePrice(200), update)

	update, err = ParseCatalogUpdate("Type", "attire")
	require.NoError(t, err)
	assert.Equal(t, UpdateCategory("attire"), update)

	update, err = ParseCatalogUpdate("stack_size", "64")
	require.NoError(t, err)
	assert.Equal(t, UpdateStackSize(64), update)

	_, err = ParseCatalogUpdate("price", "lots")
	assert.ErrorIs(t, err, ErrCatalogInvalidFormat)

	_, err = ParseCatalogUpdate("colour", "red")
	assert.ErrorIs(t, err, ErrCatalogUnknownField)
}

func TestCatalogCurrencyFor(t *testing.T) {
	nk := newTestNakama()
	catalog := loadedTestCatalog(nk)

	weapons := catalog.Find("Assault Rifle", FindExact)
	require.Len(t, weapons, 1)
	assert.Equal(t, CurrencyPoints, catalog.CurrencyFor(weapons[0]))

	coins := catalog.Find("Supply Signal", FindExact)
	require.Len(t, coins, 1)
	assert.Equal(t, CurrencyCoins, catalog.CurrencyFor(coins[0]))
}
