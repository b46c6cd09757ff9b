package warchest

import (
	"github.com/heroiclabs/nakama-common/runtime"
)

var (
	ErrInternal           = runtime.NewError("internal error occurred", 13) // INTERNAL
	ErrBadInput           = runtime.NewError("bad input", 3)                // INVALID_ARGUMENT
	ErrNoSessionUser      = runtime.NewError("no user ID in session", 3)    // INVALID_ARGUMENT
	ErrPayloadDecode      = runtime.NewError("cannot decode json", 13)      // INTERNAL
	ErrPayloadEncode      = runtime.NewError("cannot encode json", 13)      // INTERNAL
	ErrSystemNotAvailable = runtime.NewError("system not available", 13)    // INTERNAL
	ErrSystemNotFound     = runtime.NewError("system not found", 13)        // INTERNAL

	ErrLedgerUnknownPlayer       = runtime.NewError("player has no ledger record", 5)                      // NOT_FOUND
	ErrLedgerInsufficientFunds   = runtime.NewError("insufficient funds", 9)                               // FAILED_PRECONDITION
	ErrLedgerInvalidCurrency     = runtime.NewError("unknown currency", 3)                                 // INVALID_ARGUMENT
	ErrLedgerInvalidAmount       = runtime.NewError("amount must be a positive integer", 3)                // INVALID_ARGUMENT
	ErrLedgerPlayerNotFound      = runtime.NewError("no player matches that name", 5)                      // NOT_FOUND
	ErrCatalogEmpty              = runtime.NewError("catalog source empty or malformed", 9)                // FAILED_PRECONDITION
	ErrCatalogUnknownItem        = runtime.NewError("item not found in catalog", 5)                        // NOT_FOUND
	ErrCatalogUnknownField       = runtime.NewError("unknown catalog item field", 3)                       // INVALID_ARGUMENT
	ErrCatalogInvalidFormat      = runtime.NewError("catalog field value has invalid format", 3)           // INVALID_ARGUMENT
	ErrCatalogUnknownCategory    = runtime.NewError("category does not exist", 5)                          // NOT_FOUND
	ErrShopEmptyQuery            = runtime.NewError("search term must not be empty", 3)                    // INVALID_ARGUMENT
	ErrShopNoResults             = runtime.NewError("no items match the search term", 5)                   // NOT_FOUND
	ErrShopInvalidQuantity       = runtime.NewError("invalid quantity", 3)                                 // INVALID_ARGUMENT
	ErrShopNoSelection           = runtime.NewError("no item selected", 9)                                 // FAILED_PRECONDITION
	ErrShopItemNotFound          = runtime.NewError("selected item not found", 5)                          // NOT_FOUND
	ErrShopFulfillment           = runtime.NewError("item delivery failed, purchase refunded", 13)         // INTERNAL
	ErrShopFulfillmentAfterDebit = runtime.NewError("item delivery failed after payment was taken", 13)    // INTERNAL
)
