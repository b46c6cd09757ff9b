package warchest

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	defaultCatalogCollection = "warchest"
	defaultCatalogKey        = "catalog_items"
	defaultCoinCategory      = "wc"
)

// NakamaCatalogSystem implements the CatalogSystem interface backed by the Nakama storage engine.
type NakamaCatalogSystem struct {
	sync.RWMutex

	config *CatalogConfig

	// order preserves document order for persistence; byName indexes lowercase
	// names; byCategory groups by lowercase category.
	order      []*CatalogItem
	byName     map[string]*CatalogItem
	byCategory map[string][]*CatalogItem
}

// NewNakamaCatalogSystem creates a new instance of the CatalogSystem implementation.
func NewNakamaCatalogSystem(config *CatalogConfig) *NakamaCatalogSystem {
	if config == nil {
		config = &CatalogConfig{}
	}
	if config.Collection == "" {
		config.Collection = defaultCatalogCollection
	}
	if config.Key == "" {
		config.Key = defaultCatalogKey
	}
	if config.CoinCategory == "" {
		config.CoinCategory = defaultCoinCategory
	}

	return &NakamaCatalogSystem{
		config:     config,
		byName:     make(map[string]*CatalogItem),
		byCategory: make(map[string][]*CatalogItem),
	}
}

// GetType provides the runtime type of the gameplay system.
func (c *NakamaCatalogSystem) GetType() SystemType {
	return SystemTypeCatalog
}

// GetConfig returns the configuration type of the gameplay system.
func (c *NakamaCatalogSystem) GetConfig() any {
	return c.config
}

// LoadAll rebuilds the full catalog index. The persisted storage object wins
// over the config seed list so admin edits survive restarts.
func (c *NakamaCatalogSystem) LoadAll(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule) (int, error) {
	items, err := c.readPersisted(ctx, nk)
	if err != nil {
		logger.Error("Failed to read persisted catalog, falling back to config seed: %v", err)
		items = nil
	}

	seeded := false
	if len(items) == 0 {
		items = c.config.Items
		seeded = true
	}
	if len(items) == 0 {
		return 0, ErrCatalogEmpty
	}

	order := make([]*CatalogItem, 0, len(items))
	byName := make(map[string]*CatalogItem, len(items))
	byCategory := make(map[string][]*CatalogItem)

	for _, item := range items {
		if item == nil || item.Name == "" {
			return 0, ErrCatalogEmpty
		}
		nameKey := strings.ToLower(item.Name)
		if previous, ok := byName[nameKey]; ok {
			// Last duplicate wins, matching the source's order-dependent load.
			logger.Warn("Duplicate catalog item name %q (priority %d replaces priority %d).", item.Name, item.Priority, previous.Priority)
			c.removeFromBucket(byCategory, previous)
			for i, ordered := range order {
				if ordered == previous {
					order = append(order[:i], order[i+1:]...)
					break
				}
			}
		}
		entry := *item
		byName[nameKey] = &entry
		order = append(order, &entry)
		categoryKey := strings.ToLower(entry.Category)
		byCategory[categoryKey] = append(byCategory[categoryKey], &entry)
	}

	c.Lock()
	c.order = order
	c.byName = byName
	c.byCategory = byCategory
	c.Unlock()

	if seeded {
		c.Lock()
		c.persist(ctx, logger, nk)
		c.Unlock()
	}

	return len(order), nil
}

func (c *NakamaCatalogSystem) readPersisted(ctx context.Context, nk runtime.NakamaModule) ([]*CatalogItem, error) {
	objects, err := nk.StorageRead(ctx, []*runtime.StorageRead{
		{
			Collection: c.config.Collection,
			Key:        c.config.Key,
		},
	})
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, nil
	}

	var items []*CatalogItem
	if err := json.Unmarshal([]byte(objects[0].Value), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// persist writes the ordered item list back to storage. Callers must hold the
// write lock. Failures are logged; the in-memory catalog stays authoritative.
func (c *NakamaCatalogSystem) persist(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule) {
	data, err := json.Marshal(c.order)
	if err != nil {
		logger.Error("Failed to encode catalog document: %v", err)
		return
	}

	if _, err := nk.StorageWrite(ctx, []*runtime.StorageWrite{
		{
			Collection:      c.config.Collection,
			Key:             c.config.Key,
			Value:           string(data),
			PermissionRead:  0,
			PermissionWrite: 0,
		},
	}); err != nil {
		logger.Error("Failed to save catalog document: %v", err)
	}
}

// Find matches items by name or shortname.
func (c *NakamaCatalogSystem) Find(query string, mode FindMode) []*CatalogItem {
	query = strings.ToLower(query)
	if query == "" {
		return nil
	}

	c.RLock()
	defer c.RUnlock()

	if mode == FindExact {
		if item, ok := c.byName[query]; ok {
			entry := *item
			return []*CatalogItem{&entry}
		}
		for _, item := range c.order {
			if strings.ToLower(item.ShortName) == query {
				entry := *item
				return []*CatalogItem{&entry}
			}
		}
		return nil
	}

	matches := make([]*CatalogItem, 0)
	for _, item := range c.order {
		if strings.Contains(strings.ToLower(item.Name), query) || strings.Contains(strings.ToLower(item.ShortName), query) {
			entry := *item
			matches = append(matches, &entry)
		}
	}
	return matches
}

// CategoryItems returns a category's items sorted by ascending priority.
func (c *NakamaCatalogSystem) CategoryItems(category string) []*CatalogItem {
	c.RLock()
	defer c.RUnlock()

	bucket, ok := c.byCategory[strings.ToLower(category)]
	if !ok {
		return nil
	}

	items := make([]*CatalogItem, 0, len(bucket))
	for _, item := range bucket {
		entry := *item
		items = append(items, &entry)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Priority < items[j].Priority
	})
	return items
}

// HasCategory reports whether the category index has a bucket.
func (c *NakamaCatalogSystem) HasCategory(category string) bool {
	c.RLock()
	defer c.RUnlock()

	bucket, ok := c.byCategory[strings.ToLower(category)]
	return ok && len(bucket) > 0
}

// Categories lists the category names in the index.
func (c *NakamaCatalogSystem) Categories() []string {
	c.RLock()
	defer c.RUnlock()

	names := make([]string, 0, len(c.byCategory))
	for name := range c.byCategory {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the total number of indexed items.
func (c *NakamaCatalogSystem) Count() int {
	c.RLock()
	defer c.RUnlock()

	return len(c.byName)
}

// UpdateItem applies a single-field edit and keeps the category index consistent.
func (c *NakamaCatalogSystem) UpdateItem(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, name string, update CatalogUpdate) (*CatalogItem, error) {
	if update == nil {
		return nil, ErrBadInput
	}

	c.Lock()
	defer c.Unlock()

	item, ok := c.byName[strings.ToLower(name)]
	if !ok {
		return nil, ErrCatalogUnknownItem
	}

	oldCategory := strings.ToLower(item.Category)
	update.apply(item)
	newCategory := strings.ToLower(item.Category)

	// Rebucket by item identity even when the category is unchanged, then keep
	// the target bucket ordered by (priority, name) as the source did on edit.
	c.removeFromBucket(c.byCategory, item)
	if oldCategory != newCategory && len(c.byCategory[oldCategory]) == 0 {
		delete(c.byCategory, oldCategory)
	}
	c.byCategory[newCategory] = append(c.byCategory[newCategory], item)
	bucket := c.byCategory[newCategory]
	sort.SliceStable(bucket, func(i, j int) bool {
		if bucket[i].Priority != bucket[j].Priority {
			return bucket[i].Priority < bucket[j].Priority
		}
		return bucket[i].Name < bucket[j].Name
	})

	c.persist(ctx, logger, nk)
	logger.Info("Catalog item %q updated.", item.Name)

	entry := *item
	return &entry, nil
}

// CurrencyFor returns the currency an item is priced in.
func (c *NakamaCatalogSystem) CurrencyFor(item *CatalogItem) Currency {
	if item != nil && strings.EqualFold(item.Category, c.config.CoinCategory) {
		return CurrencyCoins
	}
	return CurrencyPoints
}

// removeFromBucket deletes an item from whichever category bucket holds it,
// matching by name rather than pointer identity.
func (c *NakamaCatalogSystem) removeFromBucket(byCategory map[string][]*CatalogItem, item *CatalogItem) {
	nameKey := strings.ToLower(item.Name)
	for category, bucket := range byCategory {
		for i, candidate := range bucket {
			if strings.ToLower(candidate.Name) == nameKey {
				byCategory[category] = append(bucket[:i], bucket[i+1:]...)
				return
			}
		}
	}
}
