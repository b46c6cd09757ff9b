package warchest

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Shop system RPC handlers. Each mirrors one user action the client UI issues.

type shopViewHandler func(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, payload string) (*ShopView, error)

// shopRpc wraps the shared unpack-session/encode-view plumbing around a handler.
func shopRpc(handler shopViewHandler) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
		if !ok || userID == "" {
			logger.Error("No user ID in context")
			return "", ErrNoSessionUser
		}

		view, err := handler(ctx, logger, nk, userID, payload)
		if err != nil {
			return "", err
		}

		responseData, err := json.Marshal(view)
		if err != nil {
			logger.Error("Failed to marshal response: %v", err)
			return "", ErrPayloadEncode
		}

		return string(responseData), nil
	}
}

func rpcShopOpen(w *warchestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return shopRpc(func(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, payload string) (*ShopView, error) {
		shop := w.GetShopSystem()
		if shop == nil {
			return nil, ErrSystemNotFound
		}
		return shop.Open(ctx, logger, nk, userID)
	})
}

func rpcShopClose(w *warchestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		shop := w.GetShopSystem()
		if shop == nil {
			return "", ErrSystemNotFound
		}

		userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
		if !ok || userID == "" {
			logger.Error("No user ID in context")
			return "", ErrNoSessionUser
		}

		shop.Close(userID)
		return "{}", nil
	}
}

func rpcShopCategory(w *warchestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return shopRpc(func(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, payload string) (*ShopView, error) {
		shop := w.GetShopSystem()
		if shop == nil {
			return nil, ErrSystemNotFound
		}

		var request struct {
			Category string `json:"category"`
		}
		if err := json.Unmarshal([]byte(payload), &request); err != nil {
			logger.Error("Failed to unmarshal ShopCategoryRequest: %v", err)
			return nil, ErrPayloadDecode
		}

		return shop.SelectCategory(ctx, logger, nk, userID, request.Category)
	})
}

func rpcShopSearch(w *warchestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return shopRpc(func(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, payload string) (*ShopView, error) {
		shop := w.GetShopSystem()
		if shop == nil {
			return nil, ErrSystemNotFound
		}

		var request struct {
			Term string `json:"term"`
		}
		if err := json.Unmarshal([]byte(payload), &request); err != nil {
			logger.Error("Failed to unmarshal ShopSearchRequest: %v", err)
			return nil, ErrPayloadDecode
		}

		return shop.Search(ctx, logger, nk, userID, request.Term)
	})
}

func rpcShopPageNext(w *warchestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return shopRpc(func(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, payload string) (*ShopView, error) {
		shop := w.GetShopSystem()
		if shop == nil {
			return nil, ErrSystemNotFound
		}
		return shop.NextPage(ctx, logger, nk, userID)
	})
}

func rpcShopPagePrev(w *warchestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return shopRpc(func(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, payload string) (*ShopView, error) {
		shop := w.GetShopSystem()
		if shop == nil {
			return nil, ErrSystemNotFound
		}
		return shop.PrevPage(ctx, logger, nk, userID)
	})
}

func rpcShopSelect(w *warchestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return shopRpc(func(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, payload string) (*ShopView, error) {
		shop := w.GetShopSystem()
		if shop == nil {
			return nil, ErrSystemNotFound
		}

		var request struct {
			ShortName string `json:"shortname"`
		}
		if err := json.Unmarshal([]byte(payload), &request); err != nil {
			logger.Error("Failed to unmarshal ShopSelectRequest: %v", err)
			return nil, ErrPayloadDecode
		}

		return shop.SelectItem(ctx, logger, nk, userID, request.ShortName)
	})
}

func rpcShopPurchase(w *warchestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		shop := w.GetShopSystem()
		if shop == nil {
			return "", ErrSystemNotFound
		}

		userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
		if !ok || userID == "" {
			logger.Error("No user ID in context")
			return "", ErrNoSessionUser
		}

		var request struct {
			Quantity string `json:"quantity"`
		}
		if err := json.Unmarshal([]byte(payload), &request); err != nil {
			logger.Error("Failed to unmarshal ShopPurchaseRequest: %v", err)
			return "", ErrPayloadDecode
		}

		receipt, err := shop.Purchase(ctx, logger, nk, userID, request.Quantity)
		if err != nil {
			logger.Error("Error completing purchase for player %s: %v", userID, err)
			return "", err
		}

		responseData, err := json.Marshal(receipt)
		if err != nil {
			logger.Error("Failed to marshal response: %v", err)
			return "", ErrPayloadEncode
		}

		return string(responseData), nil
	}
}
