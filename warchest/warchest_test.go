package warchest

import (
	"context"
	"sync"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// testNakamaModule is a test double for runtime.NakamaModule
// Only implements the methods needed for the tests.
type testNakamaModule struct {
	runtime.NakamaModule
	sync.Mutex

	storageData   map[string]string // map of collection:key:userID -> value
	notifications []*sentNotification
	broadcasts    []*sentNotification
	wallets       map[string]map[string]int64
}

type sentNotification struct {
	userID  string
	subject string
	content map[string]interface{}
	code    int
}

func newTestNakama() *testNakamaModule {
	return &testNakamaModule{
		storageData: make(map[string]string),
		wallets:     make(map[string]map[string]int64),
	}
}

// StorageRead implementation for testing
func (n *testNakamaModule) StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error) {
	n.Lock()
	defer n.Unlock()

	result := make([]*api.StorageObject, 0, len(reads))
	for _, read := range reads {
		key := formatStorageKey(read.Collection, read.Key, read.UserID)
		value, exists := n.storageData[key]
		if exists {
			result = append(result, &api.StorageObject{
				Collection: read.Collection,
				Key:        read.Key,
				UserId:     read.UserID,
				Value:      value,
				Version:    "1",
			})
		}
	}
	return result, nil
}

// StorageWrite implementation for testing
func (n *testNakamaModule) StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	n.Lock()
	defer n.Unlock()

	result := make([]*api.StorageObjectAck, 0, len(writes))
	for _, write := range writes {
		key := formatStorageKey(write.Collection, write.Key, write.UserID)
		n.storageData[key] = write.Value
		result = append(result, &api.StorageObjectAck{
			Collection: write.Collection,
			Key:        write.Key,
			UserId:     write.UserID,
			Version:    "1",
		})
	}
	return result, nil
}

// NotificationSend implementation for testing
func (n *testNakamaModule) NotificationSend(ctx context.Context, userID, subject string, content map[string]interface{}, code int, sender string, persistent bool) error {
	n.Lock()
	defer n.Unlock()

	n.notifications = append(n.notifications, &sentNotification{
		userID:  userID,
		subject: subject,
		content: content,
		code:    code,
	})
	return nil
}

// NotificationSendAll implementation for testing
func (n *testNakamaModule) NotificationSendAll(ctx context.Context, subject string, content map[string]interface{}, code int, persistent bool) error {
	n.Lock()
	defer n.Unlock()

	n.broadcasts = append(n.broadcasts, &sentNotification{
		subject: subject,
		content: content,
		code:    code,
	})
	return nil
}

// WalletUpdate implementation for testing
func (n *testNakamaModule) WalletUpdate(ctx context.Context, userID string, changeset map[string]int64, metadata map[string]interface{}, updateLedger bool) (map[string]int64, map[string]int64, error) {
	n.Lock()
	defer n.Unlock()

	wallet, ok := n.wallets[userID]
	if !ok {
		wallet = make(map[string]int64)
		n.wallets[userID] = wallet
	}
	previous := make(map[string]int64, len(wallet))
	for k, v := range wallet {
		previous[k] = v
	}
	for k, v := range changeset {
		wallet[k] += v
	}
	updated := make(map[string]int64, len(wallet))
	for k, v := range wallet {
		updated[k] = v
	}
	return updated, previous, nil
}

func (n *testNakamaModule) notificationCount(userID string, code int) int {
	n.Lock()
	defer n.Unlock()

	count := 0
	for _, notification := range n.notifications {
		if notification.userID == userID && notification.code == code {
			count++
		}
	}
	return count
}

// Helper function to format a storage key
func formatStorageKey(collection, key, userID string) string {
	return collection + ":" + key + ":" + userID
}

// mockLogger is a simple logger that implements runtime.Logger for testing.
type mockLogger struct{}

var _ runtime.Logger = (*mockLogger)(nil)

func (l *mockLogger) Debug(format string, v ...interface{})                   {}
func (l *mockLogger) Info(format string, v ...interface{})                    {}
func (l *mockLogger) Warn(format string, v ...interface{})                    {}
func (l *mockLogger) Error(format string, v ...interface{})                   {}
func (l *mockLogger) WithField(key string, v interface{}) runtime.Logger      { return l }
func (l *mockLogger) WithFields(fields map[string]interface{}) runtime.Logger { return l }
func (l *mockLogger) Fields() map[string]interface{}                          { return nil }

// stubFulfiller records grants and optionally fails.
type stubFulfiller struct {
	calls []stubGrant
	err   error
}

type stubGrant struct {
	userID   string
	itemName string
	quantity int64
}

func (f *stubFulfiller) Grant(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, item *CatalogItem, quantity int64) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, stubGrant{userID: userID, itemName: item.Name, quantity: quantity})
	return nil
}

// capturingPublisher collects events and auth callbacks.
type capturingPublisher struct {
	sync.Mutex
	authCalls []bool
	events    []*PublisherEvent
}

func (p *capturingPublisher) Authenticate(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, created bool) {
	p.Lock()
	defer p.Unlock()
	p.authCalls = append(p.authCalls, created)
}

func (p *capturingPublisher) Send(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, events []*PublisherEvent) {
	p.Lock()
	defer p.Unlock()
	p.events = append(p.events, events...)
}

func (p *capturingPublisher) eventNames() []string {
	p.Lock()
	defer p.Unlock()
	names := make([]string, 0, len(p.events))
	for _, event := range p.events {
		names = append(names, event.Name)
	}
	return names
}

// newTestWarchest wires systems together the way Init does, minus config files.
func newTestWarchest(systems ...System) *warchestImpl {
	w := &warchestImpl{
		personalizers: make([]Personalizer, 0),
		publishers:    make([]Publisher, 0),
		systems:       make(map[SystemType]System),
	}
	for _, system := range systems {
		w.systems[system.GetType()] = system
		switch sys := system.(type) {
		case *NakamaLedgerSystem:
			sys.SetWarchest(w)
		case *NakamaAwardsSystem:
			sys.SetWarchest(w)
		case *NakamaShopSystem:
			sys.SetWarchest(w)
		}
	}
	return w
}

// testCatalogItems is a small but representative catalog: two weapons, two
// attire items matching a "road" substring search, and one coin-priced item.
func testCatalogItems() []*CatalogItem {
	return []*CatalogItem{
		{Name: "Assault Rifle", ShortName: "rifle.ak", ItemID: "1545779598", Price: 150, Category: "weapons", Priority: 1},
		{Name: "Bolt Action Rifle", ShortName: "rifle.bolt", ItemID: "1588298435", Price: 250, Category: "weapons", Priority: 2},
		{Name: "Roadsign Jacket", ShortName: "roadsign.jacket", ItemID: "850280505", Price: 60, Category: "attire", Priority: 1},
		{Name: "Roadsign Kilt", ShortName: "roadsign.kilt", ItemID: "1366282552", Price: 40, Category: "attire", Priority: 2},
		{Name: "Supply Signal", ShortName: "supply.signal", ItemID: "1397052267", Price: 3, Category: "wc", Priority: 1},
	}
}

func loadedTestCatalog(nk *testNakamaModule) *NakamaCatalogSystem {
	catalog := NewNakamaCatalogSystem(&CatalogConfig{Items: testCatalogItems()})
	if _, err := catalog.LoadAll(context.Background(), &mockLogger{}, nk); err != nil {
		panic(err)
	}
	return catalog
}
