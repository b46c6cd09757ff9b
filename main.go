package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
	"warchest/warchest"
)

// noinspection GoUnusedExportedFunction
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	initStart := time.Now()

	logger.Info("Loading Warchest Nakama plugin...")

	w, err := warchest.Init(ctx, logger, nk, initializer,
		warchest.WithLedgerSystem("warchest-ledger.json", true),
		warchest.WithAwardsSystem("warchest-awards.json", true),
		warchest.WithCatalogSystem("warchest-catalog.json", true),
		warchest.WithShopSystem("warchest-shop.json", true),
	)
	if err != nil {
		logger.Error("Failed to initialize Warchest: %v", err)
		return err
	}

	// Ensure the player's ledger record exists as soon as their session opens,
	// so first-time players receive their starting balance and welcome message.
	err = initializer.RegisterEventSessionStart(func(ctx context.Context, logger runtime.Logger, evt *api.Event) {
		userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
		if !ok || userID == "" {
			return
		}
		displayName, _ := ctx.Value(runtime.RUNTIME_CTX_USERNAME).(string)

		awards := w.GetAwardsSystem()
		if awards == nil {
			return
		}
		if _, _, err := awards.PlayerConnected(ctx, logger, nk, userID, displayName); err != nil {
			logger.Error("Failed to process player connect for %s: %v", userID, err)
		}
	})
	if err != nil {
		logger.Error("Failed to register session start event: %v", err)
		return err
	}

	err = initializer.RegisterEventSessionEnd(func(ctx context.Context, logger runtime.Logger, evt *api.Event) {
		userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
		if !ok || userID == "" {
			return
		}
		if shop := w.GetShopSystem(); shop != nil {
			shop.Close(userID)
		}
	})
	if err != nil {
		logger.Error("Failed to register session end event: %v", err)
		return err
	}

	logger.Info("Warchest Nakama plugin loaded in '%d' msec.", time.Now().Sub(initStart).Milliseconds())
	return nil
}

// main is never called; Nakama loads this module via InitModule. It exists
// only so the package compiles with a plain `go build`.
func main() {}
