package warchest

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/robfig/cron/v3"
)

const (
	defaultLedgerCollection = "warchest"
	defaultLedgerKey        = "player_ledger"
	defaultInitialPoints    = 100
	defaultNameFlushCron    = "*/5 * * * *"
)

// NakamaLedgerSystem implements the LedgerSystem interface backed by the Nakama storage engine.
//
// The full player mapping lives in memory and is serialized as a single storage
// object on every balance mutation. A single lock guards the mapping: the
// write-through document covers every record, so each mutation needs a
// consistent snapshot of all of them anyway and finer locks would buy nothing.
type NakamaLedgerSystem struct {
	sync.Mutex

	config   *LedgerConfig
	warchest Warchest

	records   map[string]*PlayerBalance
	loaded    bool
	nameDirty bool

	flushSched cron.Schedule
	nextFlush  time.Time
}

// NewNakamaLedgerSystem creates a new instance of the LedgerSystem implementation.
func NewNakamaLedgerSystem(config *LedgerConfig) *NakamaLedgerSystem {
	if config == nil {
		config = &LedgerConfig{}
	}
	if config.Collection == "" {
		config.Collection = defaultLedgerCollection
	}
	if config.Key == "" {
		config.Key = defaultLedgerKey
	}
	if config.InitialPoints == 0 {
		config.InitialPoints = defaultInitialPoints
	}
	if config.NameFlushCron == "" {
		config.NameFlushCron = defaultNameFlushCron
	}

	l := &NakamaLedgerSystem{
		config:  config,
		records: make(map[string]*PlayerBalance),
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if sched, err := parser.Parse(config.NameFlushCron); err == nil {
		l.flushSched = sched
		l.nextFlush = sched.Next(time.Now())
	}

	return l
}

// GetType provides the runtime type of the gameplay system.
func (l *NakamaLedgerSystem) GetType() SystemType {
	return SystemTypeLedger
}

// GetConfig returns the configuration type of the gameplay system.
func (l *NakamaLedgerSystem) GetConfig() any {
	return l.config
}

// SetWarchest sets the Warchest reference for cross-system communication.
func (l *NakamaLedgerSystem) SetWarchest(w Warchest) {
	l.warchest = w
}

// load reads the ledger document from storage. Called once at init; a missing
// document is not an error, a corrupt one resets to an empty mapping.
func (l *NakamaLedgerSystem) load(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule) (int, error) {
	l.Lock()
	defer l.Unlock()

	l.loaded = true
	objects, err := nk.StorageRead(ctx, []*runtime.StorageRead{
		{
			Collection: l.config.Collection,
			Key:        l.config.Key,
		},
	})
	if err != nil {
		l.records = make(map[string]*PlayerBalance)
		return 0, err
	}
	if len(objects) == 0 {
		return 0, nil
	}

	records := make(map[string]*PlayerBalance)
	if err := json.Unmarshal([]byte(objects[0].Value), &records); err != nil {
		l.records = make(map[string]*PlayerBalance)
		return 0, err
	}

	l.records = records
	return len(records), nil
}

// persist serializes the full mapping into the ledger storage object. Callers
// must hold the lock. Failures are logged and swallowed: the in-memory state
// stays authoritative for the running session.
func (l *NakamaLedgerSystem) persist(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule) {
	data, err := json.Marshal(l.records)
	if err != nil {
		logger.Error("Failed to encode ledger document: %v", err)
		return
	}

	_, err = nk.StorageWrite(ctx, []*runtime.StorageWrite{
		{
			Collection:      l.config.Collection,
			Key:             l.config.Key,
			Value:           string(data),
			PermissionRead:  0,
			PermissionWrite: 0,
		},
	})
	if err != nil {
		logger.Error("Failed to save ledger document: %v", err)
		return
	}
	l.nameDirty = false
}

// flushNamesIfDue persists batched display-name changes once the configured
// schedule has elapsed. Callers must hold the lock.
func (l *NakamaLedgerSystem) flushNamesIfDue(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule) {
	if !l.nameDirty || l.flushSched == nil {
		return
	}
	now := time.Now()
	if now.Before(l.nextFlush) {
		return
	}
	l.nextFlush = l.flushSched.Next(now)
	l.persist(ctx, logger, nk)
}

// EnsurePlayer creates a default-balance record for a first-seen player and persists immediately.
func (l *NakamaLedgerSystem) EnsurePlayer(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID, displayName string) (*PlayerBalance, bool, error) {
	if userID == "" {
		return nil, false, ErrBadInput
	}

	l.Lock()
	defer l.Unlock()

	if record, ok := l.records[userID]; ok {
		if displayName != "" && record.Name != displayName {
			record.Name = displayName
			l.nameDirty = true
			logger.Info("Updated display name for player %s to %s.", userID, displayName)
		}
		l.flushNamesIfDue(ctx, logger, nk)
		balance := *record
		return &balance, false, nil
	}

	record := &PlayerBalance{
		Name:   displayName,
		Points: l.config.InitialPoints,
		Coins:  l.config.InitialCoins,
	}
	l.records[userID] = record
	l.persist(ctx, logger, nk)
	logger.Info("Created ledger record for new player %s (%s) with %d points and %d coins.", displayName, userID, record.Points, record.Coins)

	balance := *record
	return &balance, true, nil
}

// GetBalance returns the player's record, or a default-initialized record for an unseen id.
func (l *NakamaLedgerSystem) GetBalance(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string) (*PlayerBalance, error) {
	if userID == "" {
		return nil, ErrBadInput
	}

	l.Lock()
	defer l.Unlock()

	if record, ok := l.records[userID]; ok {
		balance := *record
		return &balance, nil
	}
	return &PlayerBalance{
		Points: l.config.InitialPoints,
		Coins:  l.config.InitialCoins,
	}, nil
}

// Credit adds a positive amount to one currency and persists.
func (l *NakamaLedgerSystem) Credit(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, currency Currency, amount int64) (*PlayerBalance, error) {
	if !currency.Valid() {
		return nil, ErrLedgerInvalidCurrency
	}
	if amount <= 0 {
		return nil, ErrLedgerInvalidAmount
	}

	l.Lock()
	defer l.Unlock()

	record, ok := l.records[userID]
	if !ok {
		return nil, ErrLedgerUnknownPlayer
	}

	switch currency {
	case CurrencyCoins:
		record.Coins += amount
	default:
		record.Points += amount
	}
	l.persist(ctx, logger, nk)
	l.mirrorWallet(ctx, logger, nk, userID, currency, amount)

	balance := *record
	return &balance, nil
}

// Debit subtracts a positive amount from one currency and persists. The check
// and the subtraction happen under the same critical section.
func (l *NakamaLedgerSystem) Debit(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, currency Currency, amount int64) (*PlayerBalance, error) {
	if !currency.Valid() {
		return nil, ErrLedgerInvalidCurrency
	}
	if amount <= 0 {
		return nil, ErrLedgerInvalidAmount
	}

	l.Lock()
	defer l.Unlock()

	record, ok := l.records[userID]
	if !ok {
		return nil, ErrLedgerUnknownPlayer
	}
	if record.Amount(currency) < amount {
		return nil, ErrLedgerInsufficientFunds
	}

	switch currency {
	case CurrencyCoins:
		record.Coins -= amount
	default:
		record.Points -= amount
	}
	l.persist(ctx, logger, nk)
	l.mirrorWallet(ctx, logger, nk, userID, currency, -amount)

	balance := *record
	return &balance, nil
}

// SetBalance is the administrative override: absolute assignment, no lower bound.
func (l *NakamaLedgerSystem) SetBalance(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, currency Currency, value int64) (*PlayerBalance, error) {
	if !currency.Valid() {
		return nil, ErrLedgerInvalidCurrency
	}

	l.Lock()
	defer l.Unlock()

	record, ok := l.records[userID]
	if !ok {
		return nil, ErrLedgerUnknownPlayer
	}

	previous := record.Amount(currency)
	switch currency {
	case CurrencyCoins:
		record.Coins = value
	default:
		record.Points = value
	}
	l.persist(ctx, logger, nk)
	logger.Warn("Administrative override set %s for player %s: %d -> %d.", currency, userID, previous, value)

	balance := *record
	return &balance, nil
}

// FindByName resolves a player id from a display name with a case-insensitive
// scan of the ledger records.
func (l *NakamaLedgerSystem) FindByName(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, displayName string) (string, *PlayerBalance, error) {
	if displayName == "" {
		return "", nil, ErrBadInput
	}

	l.Lock()
	defer l.Unlock()

	for userID, record := range l.records {
		if strings.EqualFold(record.Name, displayName) {
			balance := *record
			return userID, &balance, nil
		}
	}
	if record, ok := l.records[displayName]; ok {
		balance := *record
		return displayName, &balance, nil
	}
	return "", nil, ErrLedgerPlayerNotFound
}

// Flush persists any batched name-only changes now.
func (l *NakamaLedgerSystem) Flush(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule) error {
	l.Lock()
	defer l.Unlock()

	if l.nameDirty {
		l.persist(ctx, logger, nk)
	}
	return nil
}

// mirrorWallet reflects a balance change into the Nakama wallet so other server
// code observes the same totals. Best effort; callers must hold the lock.
func (l *NakamaLedgerSystem) mirrorWallet(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, currency Currency, delta int64) {
	if !l.config.MirrorWallet {
		return
	}

	changeset := map[string]int64{string(currency): delta}
	metadata := map[string]interface{}{"source": "warchest"}
	if _, _, err := nk.WalletUpdate(ctx, userID, changeset, metadata, false); err != nil {
		logger.Warn("Failed to mirror %s change into wallet for player %s: %v", currency, userID, err)
	}
}
