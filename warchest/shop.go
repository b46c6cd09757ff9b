package warchest

import (
	"context"

	"github.com/heroiclabs/nakama-common/runtime"
)

// ShopConfig is the data definition for the ShopSystem type.
type ShopConfig struct {
	// PageSize is the number of items per page. The client grid renders 3 rows
	// of 7, so the default is 21.
	PageSize int `json:"page_size,omitempty"`

	// DefaultCategory is auto-selected when a player opens the shop without a
	// category.
	DefaultCategory string `json:"default_category,omitempty"`
}

// ShopSession is the transient per-player browsing state. It lives for the
// player's connection only and is discarded on disconnect.
type ShopSession struct {
	UserID string

	// Category is the selected category, empty until one is picked.
	Category string
	// Page starts at 1 and always indexes a non-empty slice of the active set.
	Page int
	// Selected is the shortname of the selected item on the current page.
	Selected string
	// SearchResults overrides category browsing while non-empty.
	SearchResults []*CatalogItem
	// SearchTerm is the query that produced SearchResults.
	SearchTerm string
}

// ShopView is the render model the client draws from: one page of the active
// item set plus the player's balances.
type ShopView struct {
	Category   string          `json:"category,omitempty"`
	SearchTerm string          `json:"search_term,omitempty"`
	Page       int             `json:"page"`
	PageCount  int             `json:"page_count"`
	Items      []*ShopViewItem `json:"items"`
	Selected   string          `json:"selected,omitempty"`
	Points     int64           `json:"points"`
	Coins      int64           `json:"coins"`
}

// ShopViewItem is one grid cell of the shop page.
type ShopViewItem struct {
	Name      string `json:"name"`
	ShortName string `json:"shortname"`
	ImageURL  string `json:"image_url"`
	Price     int64  `json:"price"`
	Currency  string `json:"currency"`
}

// PurchaseReceipt reports a completed purchase.
type PurchaseReceipt struct {
	Id         string `json:"id"`
	ItemName   string `json:"item_name"`
	ShortName  string `json:"shortname"`
	Quantity   int64  `json:"quantity"`
	TotalPrice int64  `json:"total_price"`
	Currency   string `json:"currency"`
	Remaining  int64  `json:"remaining"`
}

// The ShopSystem drives catalog browsing and purchases. It owns the per-player
// session registry and is stateless with respect to the ledger and catalog
// beyond read and debit calls.
type ShopSystem interface {
	System

	// Open creates or resumes the player's session. With no category selected
	// yet it falls back to the configured default.
	Open(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) (*ShopView, error)

	// Close discards the player's session. Also used on session end.
	Close(userID string)

	// SelectCategory switches browsing to a category, clearing any search and
	// selection and resetting to page 1.
	SelectCategory(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, category string) (*ShopView, error)

	// Search replaces the active set with substring matches over the full
	// catalog. Zero matches leave the session untouched.
	Search(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, term string) (*ShopView, error)

	// NextPage and PrevPage move through the active set. Both are no-ops at
	// the boundaries and clear the selection on an actual page change.
	NextPage(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) (*ShopView, error)
	PrevPage(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) (*ShopView, error)

	// SelectItem marks an item on the current page as selected. An unknown
	// shortname leaves the session unchanged.
	SelectItem(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, shortName string) (*ShopView, error)

	// Purchase buys rawQuantity units of the selected item. The quantity token
	// may carry thousands separators or an "x" marker.
	Purchase(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, rawQuantity string) (*PurchaseReceipt, error)

	// ResetSessions resets every live session to page 1 with no selection,
	// used after catalog mutations invalidate item positions.
	ResetSessions()
}
