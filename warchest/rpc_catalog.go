package warchest

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Catalog system RPC handlers.

func rpcCatalogGet(w *warchestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		catalog := w.GetCatalogSystem()
		if catalog == nil {
			return "", ErrSystemNotFound
		}

		var request struct {
			Category string `json:"category"`
		}
		if payload != "" {
			if err := json.Unmarshal([]byte(payload), &request); err != nil {
				logger.Error("Failed to unmarshal CatalogGetRequest: %v", err)
				return "", ErrPayloadDecode
			}
		}

		response := struct {
			Categories []string       `json:"categories"`
			Items      []*CatalogItem `json:"items,omitempty"`
		}{
			Categories: catalog.Categories(),
		}
		if request.Category != "" {
			if !catalog.HasCategory(request.Category) {
				return "", ErrCatalogUnknownCategory
			}
			response.Items = catalog.CategoryItems(request.Category)
		}

		responseData, err := json.Marshal(response)
		if err != nil {
			logger.Error("Failed to marshal response: %v", err)
			return "", ErrPayloadEncode
		}

		return string(responseData), nil
	}
}

func rpcCatalogItemCheck(w *warchestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		catalog := w.GetCatalogSystem()
		if catalog == nil {
			return "", ErrSystemNotFound
		}

		var request struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal([]byte(payload), &request); err != nil {
			logger.Error("Failed to unmarshal CatalogItemCheckRequest: %v", err)
			return "", ErrPayloadDecode
		}
		if strings.TrimSpace(request.Query) == "" {
			return "", ErrShopEmptyQuery
		}

		response := struct {
			Item        *CatalogItem   `json:"item,omitempty"`
			Suggestions []*CatalogItem `json:"suggestions,omitempty"`
		}{}

		// An exact hit returns the item itself; otherwise substring matches are
		// offered as suggestions, excluding anything the exact pass found.
		if exact := catalog.Find(request.Query, FindExact); len(exact) > 0 {
			response.Item = exact[0]
		} else {
			response.Suggestions = catalog.Find(request.Query, FindSubstring)
			if len(response.Suggestions) == 0 {
				return "", ErrShopNoResults
			}
		}

		responseData, err := json.Marshal(response)
		if err != nil {
			logger.Error("Failed to marshal response: %v", err)
			return "", ErrPayloadEncode
		}

		return string(responseData), nil
	}
}

func rpcCatalogItemUpdate(w *warchestImpl) func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		catalog := w.GetCatalogSystem()
		if catalog == nil {
			return "", ErrSystemNotFound
		}

		var request struct {
			Name  string `json:"name"`
			Field string `json:"field"`
			Value string `json:"value"`
		}
		if err := json.Unmarshal([]byte(payload), &request); err != nil {
			logger.Error("Failed to unmarshal CatalogItemUpdateRequest: %v", err)
			return "", ErrPayloadDecode
		}

		update, err := ParseCatalogUpdate(request.Field, request.Value)
		if err != nil {
			return "", err
		}

		item, err := catalog.UpdateItem(ctx, logger, nk, request.Name, update)
		if err != nil {
			logger.Error("Error updating catalog item %q: %v", request.Name, err)
			return "", err
		}

		// Item positions changed, so every open shop needs a fresh first page.
		if shop := w.GetShopSystem(); shop != nil {
			shop.ResetSessions()
			content := map[string]interface{}{"message": "The shop has been updated."}
			if err := nk.NotificationSendAll(ctx, "Shop updated", content, NotificationCodeShop, false); err != nil {
				logger.Warn("Failed to broadcast shop update: %v", err)
			}
		}

		responseData, err := json.Marshal(item)
		if err != nil {
			logger.Error("Failed to marshal response: %v", err)
			return "", ErrPayloadEncode
		}

		return string(responseData), nil
	}
}
