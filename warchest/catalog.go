package warchest

import (
	"context"
	"strconv"
	"strings"

	"github.com/heroiclabs/nakama-common/runtime"
)

// CatalogItem is one purchasable SKU. Name is the unique key, case-insensitive.
// Category determines the purchase currency: the configured coin category is
// coin-priced, everything else is point-priced.
type CatalogItem struct {
	Name      string `json:"name"`
	ShortName string `json:"shortname"`
	ItemID    string `json:"item_id"`
	ImageURL  string `json:"image_url"`
	StackSize int    `json:"stack_size"`
	Price     int64  `json:"price"`
	Category  string `json:"type"`
	Priority  int    `json:"priority"`
}

// FindMode selects between exact and substring catalog lookups.
type FindMode int

const (
	FindExact FindMode = iota
	FindSubstring
)

// CatalogConfig is the data definition for the CatalogSystem type. The seed
// item list ships in the config file; once edited, the catalog persists to and
// reloads from the storage object instead.
type CatalogConfig struct {
	Items []*CatalogItem `json:"items,omitempty"`

	// Collection and Key locate the persisted catalog storage object.
	Collection string `json:"collection,omitempty"`
	Key        string `json:"key,omitempty"`

	// CoinCategory names the reserved category whose items are coin-priced.
	CoinCategory string `json:"coin_category,omitempty"`
}

// A CatalogUpdate is one member of the closed set of single-field edits an
// admin can apply to a catalog item. Parsing raw field/value strings into a
// variant happens at the RPC boundary via ParseCatalogUpdate.
type CatalogUpdate interface {
	apply(item *CatalogItem)
}

type UpdateShortName string
type UpdateItemID string
type UpdateImageURL string
type UpdateStackSize int
type UpdatePrice int64
type UpdateCategory string
type UpdatePriority int

func (u UpdateShortName) apply(item *CatalogItem) { item.ShortName = string(u) }
func (u UpdateItemID) apply(item *CatalogItem)    { item.ItemID = string(u) }
func (u UpdateImageURL) apply(item *CatalogItem)  { item.ImageURL = string(u) }
func (u UpdateStackSize) apply(item *CatalogItem) { item.StackSize = int(u) }
func (u UpdatePrice) apply(item *CatalogItem)     { item.Price = int64(u) }
func (u UpdateCategory) apply(item *CatalogItem)  { item.Category = string(u) }
func (u UpdatePriority) apply(item *CatalogItem)  { item.Priority = int(u) }

// ParseCatalogUpdate validates a raw field name and value into a typed update.
func ParseCatalogUpdate(field, value string) (CatalogUpdate, error) {
	switch strings.ToLower(field) {
	case "shortname":
		return UpdateShortName(value), nil
	case "itemid", "item_id":
		return UpdateItemID(value), nil
	case "imageurl", "image_url":
		return UpdateImageURL(value), nil
	case "stacksize", "stack_size":
		size, err := strconv.Atoi(value)
		if err != nil {
			return nil, ErrCatalogInvalidFormat
		}
		return UpdateStackSize(size), nil
	case "price":
		price, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, ErrCatalogInvalidFormat
		}
		return UpdatePrice(price), nil
	case "type", "category":
		return UpdateCategory(value), nil
	case "priority":
		priority, err := strconv.Atoi(value)
		if err != nil {
			return nil, ErrCatalogInvalidFormat
		}
		return UpdatePriority(priority), nil
	default:
		return nil, ErrCatalogUnknownField
	}
}

// The CatalogSystem owns the purchasable item index and its category grouping.
// Catalog edits are rare relative to browsing, so a single-writer multi-reader
// discipline guards the index.
type CatalogSystem interface {
	System

	// LoadAll rebuilds the full index from the persisted catalog object, or
	// from the config seed list when nothing has been persisted yet. The
	// rebuild is clear-then-rebuild, never incremental.
	LoadAll(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule) (int, error)

	// Find matches items by name or shortname. FindExact returns at most one
	// item; FindSubstring returns every case-insensitive substring match.
	Find(query string, mode FindMode) []*CatalogItem

	// CategoryItems returns a category's items sorted by ascending priority,
	// ties keeping their prior order.
	CategoryItems(category string) []*CatalogItem

	// HasCategory reports whether the category index has a bucket.
	HasCategory(category string) bool

	// Categories lists the category names in the index.
	Categories() []string

	// Count returns the total number of indexed items.
	Count() int

	// UpdateItem applies a single-field edit to the named item, moves it
	// between category buckets if the category changed, re-sorts the target
	// bucket, and persists the whole catalog.
	UpdateItem(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, name string, update CatalogUpdate) (*CatalogItem, error)

	// CurrencyFor returns the currency an item is priced in, derived from its
	// category.
	CurrencyFor(item *CatalogItem) Currency
}
