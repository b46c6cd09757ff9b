package warchest

import (
	"context"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Currency names one of the two balances tracked per player.
type Currency string

const (
	CurrencyPoints Currency = "points"
	CurrencyCoins  Currency = "coins"
)

func (c Currency) Valid() bool {
	return c == CurrencyPoints || c == CurrencyCoins
}

// PlayerBalance is the durable ledger record for a single player identity.
type PlayerBalance struct {
	Name   string `json:"name"`
	Points int64  `json:"points"`
	Coins  int64  `json:"coins"`
}

// Amount returns the balance for the given currency.
func (b *PlayerBalance) Amount(currency Currency) int64 {
	if currency == CurrencyCoins {
		return b.Coins
	}
	return b.Points
}

// LedgerConfig is the data definition for the LedgerSystem type.
type LedgerConfig struct {
	// InitialPoints and InitialCoins seed the balance of a first-seen player.
	InitialPoints int64 `json:"initial_points,omitempty"`
	InitialCoins  int64 `json:"initial_coins,omitempty"`

	// Collection and Key locate the single storage object holding the full
	// id -> balance mapping.
	Collection string `json:"collection,omitempty"`
	Key        string `json:"key,omitempty"`

	// MirrorWallet mirrors balance changes into the Nakama wallet so other
	// server code sees the same currency totals. Best effort only.
	MirrorWallet bool `json:"mirror_wallet,omitempty"`

	// NameFlushCron schedules persistence of display-name-only changes, which
	// are batched rather than written through. Standard 5-field cron expression.
	NameFlushCron string `json:"name_flush_cron,omitempty"`
}

// The LedgerSystem owns every player balance record and all mutation of them.
//
// Balance mutations persist the full mapping synchronously; persistence
// failures are logged and the in-memory state stays authoritative for the
// running session.
type LedgerSystem interface {
	System

	// EnsurePlayer creates a default-balance record for a first-seen player id
	// and persists it immediately. For a known player it refreshes the stored
	// display name if it changed; name-only changes are persisted on the
	// configured flush schedule rather than immediately. The returned flag is
	// true when a new record was created.
	EnsurePlayer(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, displayName string) (*PlayerBalance, bool, error)

	// GetBalance returns the player's record, or a default-initialized record
	// for an unseen id. Reading an unseen id does not persist anything.
	GetBalance(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) (*PlayerBalance, error)

	// Credit adds a positive amount to one currency and persists. The player
	// must have been ensured first.
	Credit(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, currency Currency, amount int64) (*PlayerBalance, error)

	// Debit subtracts a positive amount from one currency and persists. The
	// balance check and the subtraction are atomic: no other mutation of the
	// same record can interleave between them. A balance can never go negative
	// through Debit.
	Debit(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, currency Currency, amount int64) (*PlayerBalance, error)

	// SetBalance is an administrative override that assigns an absolute value
	// with no lower bound. It is deliberately separate from Credit/Debit so the
	// non-negative invariant holds everywhere except this audited escape hatch.
	SetBalance(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, currency Currency, value int64) (*PlayerBalance, error)

	// FindByName resolves a player id from a display name, case-insensitive.
	FindByName(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, displayName string) (string, *PlayerBalance, error)

	// Flush persists any batched name-only changes now.
	Flush(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule) error
}
