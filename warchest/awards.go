package warchest

import (
	"context"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Notification codes used by the Warchest systems.
const (
	NotificationCodeWelcome  = 2001
	NotificationCodeAward    = 2002
	NotificationCodePurchase = 2003
	NotificationCodeShop     = 2004
)

// AwardsConfig is the data definition for the AwardsSystem type.
type AwardsConfig struct {
	// DestructiblePoints is credited when a player destroys a qualifying world
	// object, such as a barrel or roadsign.
	DestructiblePoints int64 `json:"destructible_points,omitempty"`

	// ContainerPoints is credited when a player fully empties a qualifying
	// lootable container.
	ContainerPoints int64 `json:"container_points,omitempty"`
}

// The AwardsSystem is a stateless rule table that turns qualifying game events
// into fixed ledger credits. Classifying which world objects qualify belongs to
// the host; the system only consumes the resulting booleans.
type AwardsSystem interface {
	System

	// PlayerConnected ensures the player has a ledger record and welcomes
	// first-seen players with their initial balance. Returns the balance and
	// whether the record was newly created.
	PlayerConnected(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, displayName string) (*PlayerBalance, bool, error)

	// DestructibleDestroyed credits the player for destroying a qualifying
	// object. A non-qualifying event is a no-op and returns a nil balance.
	DestructibleDestroyed(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, qualifies bool) (*PlayerBalance, error)

	// ContainerEmptied credits the player for fully looting a qualifying
	// container. The credit requires the container to actually be drained at
	// the end of the interaction, not merely that looting stopped.
	ContainerEmptied(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, qualifies, drained bool) (*PlayerBalance, error)
}
