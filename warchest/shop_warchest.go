package warchest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	defaultShopPageSize = 21
	defaultShopCategory = "weapons"
)

// NakamaShopSystem implements the ShopSystem interface.
type NakamaShopSystem struct {
	sync.Mutex

	config    *ShopConfig
	warchest  Warchest
	fulfiller Fulfiller

	sessions map[string]*ShopSession
}

// NewNakamaShopSystem creates a new instance of the ShopSystem implementation.
func NewNakamaShopSystem(config *ShopConfig) *NakamaShopSystem {
	if config == nil {
		config = &ShopConfig{}
	}
	if config.PageSize <= 0 {
		config.PageSize = defaultShopPageSize
	}
	if config.DefaultCategory == "" {
		config.DefaultCategory = defaultShopCategory
	}

	return &NakamaShopSystem{
		config:   config,
		sessions: make(map[string]*ShopSession),
	}
}

// GetType provides the runtime type of the gameplay system.
func (s *NakamaShopSystem) GetType() SystemType {
	return SystemTypeShop
}

// GetConfig returns the configuration type of the gameplay system.
func (s *NakamaShopSystem) GetConfig() any {
	return s.config
}

// SetWarchest sets the Warchest reference for cross-system communication.
func (s *NakamaShopSystem) SetWarchest(w Warchest) {
	s.warchest = w
}

// SetFulfiller overrides how purchased items are delivered.
func (s *NakamaShopSystem) SetFulfiller(fulfiller Fulfiller) {
	s.fulfiller = fulfiller
}

func (s *NakamaShopSystem) fulfillerOrDefault() Fulfiller {
	if s.fulfiller != nil {
		return s.fulfiller
	}
	return defaultFulfiller
}

func (s *NakamaShopSystem) catalog() CatalogSystem {
	if s.warchest == nil {
		return nil
	}
	return s.warchest.GetCatalogSystem()
}

func (s *NakamaShopSystem) ledgerSystem() LedgerSystem {
	if s.warchest == nil {
		return nil
	}
	return s.warchest.GetLedgerSystem()
}

// session returns the player's session, creating a fresh one if needed.
// Callers must hold the lock.
func (s *NakamaShopSystem) session(userID string) *ShopSession {
	if session, ok := s.sessions[userID]; ok {
		return session
	}
	session := &ShopSession{UserID: userID, Page: 1}
	s.sessions[userID] = session
	return session
}

// activeItems resolves the session's active item set: search results while
// present, otherwise the selected category.
func (s *NakamaShopSystem) activeItems(session *ShopSession, catalog CatalogSystem) []*CatalogItem {
	if len(session.SearchResults) > 0 {
		return session.SearchResults
	}
	if session.Category == "" {
		return nil
	}
	return catalog.CategoryItems(session.Category)
}

// Open creates or resumes the player's session.
func (s *NakamaShopSystem) Open(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) (*ShopView, error) {
	if userID == "" {
		return nil, ErrNoSessionUser
	}
	catalog := s.catalog()
	if catalog == nil {
		return nil, ErrSystemNotAvailable
	}

	s.Lock()
	session := s.session(userID)
	if session.Category == "" && len(session.SearchResults) == 0 && catalog.HasCategory(s.config.DefaultCategory) {
		session.Category = s.config.DefaultCategory
		session.Page = 1
		session.Selected = ""
	}
	s.Unlock()

	return s.view(ctx, logger, nk, userID)
}

// Close discards the player's session.
func (s *NakamaShopSystem) Close(userID string) {
	s.Lock()
	delete(s.sessions, userID)
	s.Unlock()
}

// SelectCategory switches browsing to a category.
func (s *NakamaShopSystem) SelectCategory(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, category string) (*ShopView, error) {
	catalog := s.catalog()
	if catalog == nil {
		return nil, ErrSystemNotAvailable
	}
	if !catalog.HasCategory(category) {
		return nil, ErrCatalogUnknownCategory
	}

	s.Lock()
	session := s.session(userID)
	session.Category = strings.ToLower(category)
	session.SearchResults = nil
	session.SearchTerm = ""
	session.Page = 1
	session.Selected = ""
	s.Unlock()

	logger.Debug("Player %s selected category %s.", userID, category)
	return s.view(ctx, logger, nk, userID)
}

// Search replaces the active set with substring matches over the full catalog.
func (s *NakamaShopSystem) Search(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, term string) (*ShopView, error) {
	catalog := s.catalog()
	if catalog == nil {
		return nil, ErrSystemNotAvailable
	}

	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrShopEmptyQuery
	}

	matches := catalog.Find(term, FindSubstring)
	if len(matches) == 0 {
		// The session keeps its previous page and category untouched.
		return nil, ErrShopNoResults
	}

	s.Lock()
	session := s.session(userID)
	session.SearchResults = matches
	session.SearchTerm = strings.ToLower(term)
	session.Page = 1
	session.Selected = ""
	s.Unlock()

	return s.view(ctx, logger, nk, userID)
}

// NextPage advances the page unless the active set is exhausted.
func (s *NakamaShopSystem) NextPage(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) (*ShopView, error) {
	catalog := s.catalog()
	if catalog == nil {
		return nil, ErrSystemNotAvailable
	}

	s.Lock()
	session := s.session(userID)
	items := s.activeItems(session, catalog)
	if session.Page*s.config.PageSize < len(items) {
		session.Page++
		session.Selected = ""
	}
	s.Unlock()

	return s.view(ctx, logger, nk, userID)
}

// PrevPage moves back a page unless already on the first.
func (s *NakamaShopSystem) PrevPage(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) (*ShopView, error) {
	catalog := s.catalog()
	if catalog == nil {
		return nil, ErrSystemNotAvailable
	}

	s.Lock()
	session := s.session(userID)
	if session.Page > 1 {
		session.Page--
		session.Selected = ""
	}
	s.Unlock()

	return s.view(ctx, logger, nk, userID)
}

// SelectItem marks an item on the current page as selected. An unknown
// shortname falls through silently, leaving the state unchanged.
func (s *NakamaShopSystem) SelectItem(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, shortName string) (*ShopView, error) {
	catalog := s.catalog()
	if catalog == nil {
		return nil, ErrSystemNotAvailable
	}

	s.Lock()
	session := s.session(userID)
	for _, item := range s.pageSlice(session, catalog) {
		if item.ShortName == shortName {
			session.Selected = shortName
			break
		}
	}
	s.Unlock()

	return s.view(ctx, logger, nk, userID)
}

// pageSlice returns the active set entries on the session's current page.
// Callers must hold the lock.
func (s *NakamaShopSystem) pageSlice(session *ShopSession, catalog CatalogSystem) []*CatalogItem {
	items := s.activeItems(session, catalog)
	start := (session.Page - 1) * s.config.PageSize
	if start >= len(items) || start < 0 {
		return nil
	}
	end := start + s.config.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Purchase buys rawQuantity units of the selected item.
func (s *NakamaShopSystem) Purchase(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, rawQuantity string) (*PurchaseReceipt, error) {
	catalog := s.catalog()
	ledger := s.ledgerSystem()
	if catalog == nil || ledger == nil {
		return nil, ErrSystemNotAvailable
	}

	quantity, err := parseQuantity(rawQuantity)
	if err != nil {
		return nil, err
	}

	s.Lock()
	session := s.session(userID)
	selected := session.Selected
	items := s.activeItems(session, catalog)
	s.Unlock()

	if selected == "" {
		return nil, ErrShopNoSelection
	}

	var item *CatalogItem
	for _, candidate := range items {
		if candidate.ShortName == selected {
			item = candidate
			break
		}
	}
	if item == nil {
		// The category or search may have changed since the item was selected.
		return nil, ErrShopItemNotFound
	}

	totalPrice := item.Price * quantity
	if item.Price > 0 && totalPrice/item.Price != quantity {
		return nil, ErrShopInvalidQuantity
	}

	currency := catalog.CurrencyFor(item)
	balance, err := ledger.Debit(ctx, logger, nk, userID, currency, totalPrice)
	if err != nil {
		return nil, err
	}

	if err := s.fulfillerOrDefault().Grant(ctx, logger, nk, userID, item, quantity); err != nil {
		logger.Error("Fulfillment failed for player %s buying %d x %s: %v", userID, quantity, item.Name, err)
		// Reverse the debit so the balance matches the goods the player holds.
		if _, refundErr := ledger.Credit(ctx, logger, nk, userID, currency, totalPrice); refundErr != nil {
			logger.Error("Refund of %d %s to player %s failed: %v", totalPrice, currency, userID, refundErr)
			return nil, ErrShopFulfillmentAfterDebit
		}
		return nil, ErrShopFulfillment
	}

	receipt := &PurchaseReceipt{
		Id:         uuid.New().String(),
		ItemName:   item.Name,
		ShortName:  item.ShortName,
		Quantity:   quantity,
		TotalPrice: totalPrice,
		Currency:   string(currency),
		Remaining:  balance.Amount(currency),
	}

	content := map[string]interface{}{
		"message": fmt.Sprintf("Bought %d x %s for %d %s. Remaining: %d", quantity, item.Name, totalPrice, currency, receipt.Remaining),
		"receipt": receipt.Id,
	}
	if err := nk.NotificationSend(ctx, userID, "Purchase complete", content, NotificationCodePurchase, "", true); err != nil {
		logger.Warn("Failed to send purchase notification to player %s: %v", userID, err)
	}

	s.warchest.SendPublisherEvents(ctx, logger, nk, userID, []*PublisherEvent{
		{
			Name:      "shop_purchase",
			Id:        receipt.Id,
			Timestamp: time.Now().Unix(),
			Metadata: map[string]string{
				"item":     item.Name,
				"currency": string(currency),
			},
			Value:    fmt.Sprintf("%d", totalPrice),
			System:   s,
			SourceId: item.Name,
		},
	})

	return receipt, nil
}

// ResetSessions resets every live session after catalog mutations move items.
func (s *NakamaShopSystem) ResetSessions() {
	s.Lock()
	for _, session := range s.sessions {
		session.Page = 1
		session.Selected = ""
		session.SearchResults = nil
		session.SearchTerm = ""
	}
	s.Unlock()
}

// view assembles the render model for the player's current session state.
func (s *NakamaShopSystem) view(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) (*ShopView, error) {
	catalog := s.catalog()
	ledger := s.ledgerSystem()
	if catalog == nil || ledger == nil {
		return nil, ErrSystemNotAvailable
	}

	balance, err := ledger.GetBalance(ctx, logger, nk, userID)
	if err != nil {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()

	session := s.session(userID)
	items := s.activeItems(session, catalog)
	page := s.pageSlice(session, catalog)

	pageCount := (len(items) + s.config.PageSize - 1) / s.config.PageSize
	if pageCount < 1 {
		pageCount = 1
	}

	view := &ShopView{
		Category:   session.Category,
		SearchTerm: session.SearchTerm,
		Page:       session.Page,
		PageCount:  pageCount,
		Items:      make([]*ShopViewItem, 0, len(page)),
		Selected:   session.Selected,
		Points:     balance.Points,
		Coins:      balance.Coins,
	}
	for _, item := range page {
		view.Items = append(view.Items, &ShopViewItem{
			Name:      item.Name,
			ShortName: item.ShortName,
			ImageURL:  item.ImageURL,
			Price:     item.Price,
			Currency:  string(catalog.CurrencyFor(item)),
		})
	}
	return view, nil
}

// parseQuantity sanitizes a raw quantity token such as "x100" or "1,000" and
// parses it as a positive integer. Only a leading multiplier marker is
// stripped, so a malformed token like "1x0" stays invalid.
func parseQuantity(raw string) (int64, error) {
	sanitized := strings.TrimSpace(raw)
	sanitized = strings.ReplaceAll(sanitized, ",", "")
	if len(sanitized) > 0 && (sanitized[0] == 'x' || sanitized[0] == 'X') {
		sanitized = sanitized[1:]
	}

	quantity, err := strconv.ParseInt(sanitized, 10, 64)
	if err != nil || quantity <= 0 {
		return 0, ErrShopInvalidQuantity
	}
	return quantity, nil
}
