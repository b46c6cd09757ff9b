package warchest

import (
	"context"
	"fmt"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
)

const defaultAwardPoints = 50

// NakamaAwardsSystem implements the AwardsSystem interface.
type NakamaAwardsSystem struct {
	config   *AwardsConfig
	warchest Warchest
}

// NewNakamaAwardsSystem creates a new instance of the AwardsSystem implementation.
func NewNakamaAwardsSystem(config *AwardsConfig) *NakamaAwardsSystem {
	if config == nil {
		config = &AwardsConfig{}
	}
	if config.DestructiblePoints == 0 {
		config.DestructiblePoints = defaultAwardPoints
	}
	if config.ContainerPoints == 0 {
		config.ContainerPoints = defaultAwardPoints
	}

	return &NakamaAwardsSystem{
		config: config,
	}
}

// GetType provides the runtime type of the gameplay system.
func (a *NakamaAwardsSystem) GetType() SystemType {
	return SystemTypeAwards
}

// GetConfig returns the configuration type of the gameplay system.
func (a *NakamaAwardsSystem) GetConfig() any {
	return a.config
}

// SetWarchest sets the Warchest reference for cross-system communication.
func (a *NakamaAwardsSystem) SetWarchest(w Warchest) {
	a.warchest = w
}

func (a *NakamaAwardsSystem) ledger() LedgerSystem {
	if a.warchest == nil {
		return nil
	}
	return a.warchest.GetLedgerSystem()
}

// PlayerConnected ensures the player has a ledger record and welcomes newcomers.
func (a *NakamaAwardsSystem) PlayerConnected(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, displayName string) (*PlayerBalance, bool, error) {
	ledger := a.ledger()
	if ledger == nil {
		return nil, false, ErrSystemNotAvailable
	}

	balance, created, err := ledger.EnsurePlayer(ctx, logger, nk, userID, displayName)
	if err != nil {
		return nil, false, err
	}

	if created {
		content := map[string]interface{}{
			"message": fmt.Sprintf("Welcome! You have been given %d points and %d coins.", balance.Points, balance.Coins),
			"points":  balance.Points,
			"coins":   balance.Coins,
		}
		if err := nk.NotificationSend(ctx, userID, "Welcome", content, NotificationCodeWelcome, "", true); err != nil {
			logger.Warn("Failed to send welcome notification to player %s: %v", userID, err)
		}
	}

	a.warchest.BroadcastAuthEvent(ctx, logger, nk, userID, created)

	return balance, created, nil
}

// DestructibleDestroyed credits the player for destroying a qualifying object.
func (a *NakamaAwardsSystem) DestructibleDestroyed(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, qualifies bool) (*PlayerBalance, error) {
	if !qualifies {
		return nil, nil
	}
	return a.award(ctx, logger, nk, userID, a.config.DestructiblePoints, "destructible_destroyed", "destroying a barrel or roadsign")
}

// ContainerEmptied credits the player for fully looting a qualifying container.
func (a *NakamaAwardsSystem) ContainerEmptied(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, qualifies, drained bool) (*PlayerBalance, error) {
	// The container must actually be empty when the interaction ends; a player
	// walking away from a half-full crate earns nothing.
	if !qualifies || !drained {
		return nil, nil
	}
	return a.award(ctx, logger, nk, userID, a.config.ContainerPoints, "container_emptied", "fully looting a container")
}

func (a *NakamaAwardsSystem) award(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, amount int64, eventName, reason string) (*PlayerBalance, error) {
	ledger := a.ledger()
	if ledger == nil {
		return nil, ErrSystemNotAvailable
	}

	balance, err := ledger.Credit(ctx, logger, nk, userID, CurrencyPoints, amount)
	if err != nil {
		return nil, err
	}
	logger.Info("Awarded %d points to player %s for %s.", amount, userID, reason)

	content := map[string]interface{}{
		"message": fmt.Sprintf("You have been awarded %d points. Total points: %d", amount, balance.Points),
		"amount":  amount,
		"total":   balance.Points,
	}
	if err := nk.NotificationSend(ctx, userID, "Points awarded", content, NotificationCodeAward, "", true); err != nil {
		logger.Warn("Failed to send award notification to player %s: %v", userID, err)
	}

	a.warchest.SendPublisherEvents(ctx, logger, nk, userID, []*PublisherEvent{
		{
			Name:      eventName,
			Timestamp: time.Now().Unix(),
			Value:     fmt.Sprintf("%d", amount),
			System:    a,
			Source:    a.config,
		},
	})

	return balance, nil
}
