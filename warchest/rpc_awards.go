package warchest

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Awards system RPC handlers. These are invoked by trusted server-side game
// code which has already classified the world object involved; the handlers
// carry that classification through as a boolean.

func rpcAwardDestructibleDestroyed(w *warchestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		awards := w.GetAwardsSystem()
		if awards == nil {
			return "", ErrSystemNotFound
		}

		var request struct {
			UserId    string `json:"user_id"`
			Qualifies bool   `json:"qualifies"`
		}
		if err := json.Unmarshal([]byte(payload), &request); err != nil {
			logger.Error("Failed to unmarshal AwardDestructibleDestroyedRequest: %v", err)
			return "", ErrPayloadDecode
		}
		if request.UserId == "" {
			return "", ErrBadInput
		}

		balance, err := awards.DestructibleDestroyed(ctx, logger, nk, request.UserId, request.Qualifies)
		if err != nil {
			logger.Error("Error awarding destructible credit: %v", err)
			return "", err
		}

		response := struct {
			Awarded bool           `json:"awarded"`
			Balance *PlayerBalance `json:"balance,omitempty"`
		}{
			Awarded: balance != nil,
			Balance: balance,
		}
		responseData, err := json.Marshal(response)
		if err != nil {
			logger.Error("Failed to marshal response: %v", err)
			return "", ErrPayloadEncode
		}

		return string(responseData), nil
	}
}

func rpcAwardContainerEmptied(w *warchestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		awards := w.GetAwardsSystem()
		if awards == nil {
			return "", ErrSystemNotFound
		}

		var request struct {
			UserId    string `json:"user_id"`
			Qualifies bool   `json:"qualifies"`
			Drained   bool   `json:"drained"`
		}
		if err := json.Unmarshal([]byte(payload), &request); err != nil {
			logger.Error("Failed to unmarshal AwardContainerEmptiedRequest: %v", err)
			return "", ErrPayloadDecode
		}
		if request.UserId == "" {
			return "", ErrBadInput
		}

		balance, err := awards.ContainerEmptied(ctx, logger, nk, request.UserId, request.Qualifies, request.Drained)
		if err != nil {
			logger.Error("Error awarding container credit: %v", err)
			return "", err
		}

		response := struct {
			Awarded bool           `json:"awarded"`
			Balance *PlayerBalance `json:"balance,omitempty"`
		}{
			Awarded: balance != nil,
			Balance: balance,
		}
		responseData, err := json.Marshal(response)
		if err != nil {
			logger.Error("Failed to marshal response: %v", err)
			return "", ErrPayloadEncode
		}

		return string(responseData), nil
	}
}
