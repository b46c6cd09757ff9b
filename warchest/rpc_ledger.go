package warchest

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Ledger system RPC handlers.

func rpcLedgerBalanceGet(w *warchestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		ledger := w.GetLedgerSystem()
		if ledger == nil {
			return "", ErrSystemNotFound
		}

		userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
		if !ok || userID == "" {
			logger.Error("No user ID in context")
			return "", ErrNoSessionUser
		}

		// An optional target lets server-side callers inspect another player.
		if payload != "" {
			var request struct {
				UserId string `json:"user_id"`
			}
			if err := json.Unmarshal([]byte(payload), &request); err != nil {
				logger.Error("Failed to unmarshal LedgerBalanceGetRequest: %v", err)
				return "", ErrPayloadDecode
			}
			if request.UserId != "" {
				userID = request.UserId
			}
		}

		balance, err := ledger.GetBalance(ctx, logger, nk, userID)
		if err != nil {
			logger.Error("Error getting balance: %v", err)
			return "", err
		}

		responseData, err := json.Marshal(balance)
		if err != nil {
			logger.Error("Failed to marshal response: %v", err)
			return "", ErrPayloadEncode
		}

		return string(responseData), nil
	}
}

func rpcLedgerGrant(w *warchestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		ledger := w.GetLedgerSystem()
		if ledger == nil {
			return "", ErrSystemNotFound
		}

		var request struct {
			Recipient string `json:"recipient"`
			Amount    int64  `json:"amount"`
			Currency  string `json:"currency"`
		}
		if err := json.Unmarshal([]byte(payload), &request); err != nil {
			logger.Error("Failed to unmarshal LedgerGrantRequest: %v", err)
			return "", ErrPayloadDecode
		}

		currency := Currency(request.Currency)
		if request.Currency == "" {
			currency = CurrencyCoins
		}

		targetID, _, err := ledger.FindByName(ctx, logger, nk, request.Recipient)
		if err != nil {
			logger.Error("Error resolving grant recipient %q: %v", request.Recipient, err)
			return "", err
		}

		balance, err := ledger.Credit(ctx, logger, nk, targetID, currency, request.Amount)
		if err != nil {
			logger.Error("Error granting %d %s to %s: %v", request.Amount, currency, targetID, err)
			return "", err
		}

		content := map[string]interface{}{
			"message": "You have been granted currency.",
			"amount":  request.Amount,
		}
		if err := nk.NotificationSend(ctx, targetID, "Currency granted", content, NotificationCodeAward, "", true); err != nil {
			logger.Warn("Failed to notify grant recipient %s: %v", targetID, err)
		}

		w.SendPublisherEvents(ctx, logger, nk, targetID, []*PublisherEvent{
			{
				Name:      "ledger_grant",
				Timestamp: time.Now().Unix(),
				Metadata:  map[string]string{"currency": string(currency)},
				Value:     request.Recipient,
			},
		})

		response := struct {
			UserId  string         `json:"user_id"`
			Balance *PlayerBalance `json:"balance"`
		}{
			UserId:  targetID,
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

func rpcLedgerBalanceSet(w *warchestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		ledger := w.GetLedgerSystem()
		if ledger == nil {
			return "", ErrSystemNotFound
		}

		var request struct {
			UserId   string `json:"user_id"`
			Currency string `json:"currency"`
			Value    int64  `json:"value"`
		}
		if err := json.Unmarshal([]byte(payload), &request); err != nil {
			logger.Error("Failed to unmarshal LedgerBalanceSetRequest: %v", err)
			return "", ErrPayloadDecode
		}
		if request.UserId == "" {
			return "", ErrBadInput
		}

		balance, err := ledger.SetBalance(ctx, logger, nk, request.UserId, Currency(request.Currency), request.Value)
		if err != nil {
			logger.Error("Error setting balance: %v", err)
			return "", err
		}

		responseData, err := json.Marshal(balance)
		if err != nil {
			logger.Error("Failed to marshal response: %v", err)
			return "", ErrPayloadEncode
		}

		return string(responseData), nil
	}
}
