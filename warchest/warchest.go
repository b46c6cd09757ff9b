package warchest

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Warchest combines the currency ledger and shop gameplay systems.
type Warchest interface {
	AddPublisher(publisher Publisher)
	AddPersonalizer(personalizer Personalizer)

	// SetFulfiller overrides how purchased items are delivered to players. The
	// default writes into the player's storage-backed inventory.
	SetFulfiller(fulfiller Fulfiller)

	GetLedgerSystem() LedgerSystem
	GetAwardsSystem() AwardsSystem
	GetCatalogSystem() CatalogSystem
	GetShopSystem() ShopSystem

	// SendPublisherEvents broadcasts events to all registered publishers.
	SendPublisherEvents(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, events []*PublisherEvent)

	// BroadcastAuthEvent notifies all publishers about a player connecting.
	BroadcastAuthEvent(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, created bool)
}

// The SystemType identifies each of the gameplay systems.
type SystemType uint

const (
	SystemTypeUnknown SystemType = iota
	SystemTypeLedger
	SystemTypeAwards
	SystemTypeCatalog
	SystemTypeShop
)

// A System is a base type for a gameplay system.
type System interface {
	// GetType provides the runtime type of the gameplay system.
	GetType() SystemType

	// GetConfig returns the configuration type of the gameplay system.
	GetConfig() any
}

// The SystemConfig describes the configuration that each gameplay system must use to configure itself.
type SystemConfig interface {
	// GetType returns the runtime type of the gameplay system.
	GetType() SystemType

	// GetConfigFile returns the configuration file used for the data definitions in the gameplay system.
	GetConfigFile() string

	// GetRegister returns true if the gameplay system's RPCs should be registered with the game server.
	GetRegister() bool
}

var _ SystemConfig = &systemConfig{}

type systemConfig struct {
	systemType SystemType
	configFile string
	register   bool
}

func (sc *systemConfig) GetType() SystemType {
	return sc.systemType
}
func (sc *systemConfig) GetConfigFile() string {
	return sc.configFile
}
func (sc *systemConfig) GetRegister() bool {
	return sc.register
}

// WithLedgerSystem configures a LedgerSystem type and optionally registers its RPCs with the game server.
func WithLedgerSystem(configFile string, register bool) SystemConfig {
	return &systemConfig{
		systemType: SystemTypeLedger,
		configFile: configFile,
		register:   register,
	}
}

// WithAwardsSystem configures an AwardsSystem type and optionally registers its RPCs with the game server.
func WithAwardsSystem(configFile string, register bool) SystemConfig {
	return &systemConfig{
		systemType: SystemTypeAwards,
		configFile: configFile,
		register:   register,
	}
}

// WithCatalogSystem configures a CatalogSystem type and optionally registers its RPCs with the game server.
func WithCatalogSystem(configFile string, register bool) SystemConfig {
	return &systemConfig{
		systemType: SystemTypeCatalog,
		configFile: configFile,
		register:   register,
	}
}

// WithShopSystem configures a ShopSystem type and optionally registers its RPCs with the game server.
func WithShopSystem(configFile string, register bool) SystemConfig {
	return &systemConfig{
		systemType: SystemTypeShop,
		configFile: configFile,
		register:   register,
	}
}

// Init initializes a Warchest type with the configurations provided.
func Init(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, initializer runtime.Initializer, configs ...SystemConfig) (Warchest, error) {
	w := &warchestImpl{
		personalizers: make([]Personalizer, 0),
		publishers:    make([]Publisher, 0),
		systems:       make(map[SystemType]System),
	}

	for _, config := range configs {
		if err := w.initSystem(ctx, logger, nk, initializer, config); err != nil {
			return nil, err
		}
	}

	return w, nil
}

// warchestImpl implements the Warchest interface.
type warchestImpl struct {
	personalizers []Personalizer
	publishers    []Publisher
	fulfiller     Fulfiller

	systems map[SystemType]System
}

// initSystem initializes a specific system based on its type.
func (w *warchestImpl) initSystem(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, initializer runtime.Initializer, config SystemConfig) error {
	logger.Info("Initializing system type: %v, config file: %s", config.GetType(), config.GetConfigFile())

	configData, err := nk.ReadFile(config.GetConfigFile())
	if err != nil {
		logger.Error("Failed to read config file %s: %v", config.GetConfigFile(), err)
		return err
	}
	configBytes, err := io.ReadAll(configData)
	if err != nil {
		logger.Error("Failed to read config file contents: %v", err)
		return err
	}
	defer configData.Close()

	var system System

	switch config.GetType() {
	case SystemTypeLedger:
		ledgerConfig := &LedgerConfig{}
		if err := json.Unmarshal(configBytes, ledgerConfig); err != nil {
			logger.Error("Failed to parse Ledger system config: %v", err)
			return err
		}
		system = NewNakamaLedgerSystem(ledgerConfig)

	case SystemTypeAwards:
		awardsConfig := &AwardsConfig{}
		if err := json.Unmarshal(configBytes, awardsConfig); err != nil {
			logger.Error("Failed to parse Awards system config: %v", err)
			return err
		}
		system = NewNakamaAwardsSystem(awardsConfig)

	case SystemTypeCatalog:
		catalogConfig := &CatalogConfig{}
		if err := json.Unmarshal(configBytes, catalogConfig); err != nil {
			logger.Error("Failed to parse Catalog system config: %v", err)
			return err
		}
		system = NewNakamaCatalogSystem(catalogConfig)

	case SystemTypeShop:
		shopConfig := &ShopConfig{}
		if err := json.Unmarshal(configBytes, shopConfig); err != nil {
			logger.Error("Failed to parse Shop system config: %v", err)
			return err
		}
		system = NewNakamaShopSystem(shopConfig)

	default:
		logger.Error("Unknown system type: %v", config.GetType())
		return runtime.NewError("unknown system type", 3) // INVALID_ARGUMENT
	}

	// Apply any personalizers to the system's base configuration.
	for _, personalizer := range w.personalizers {
		personalizedConfig, err := personalizer.GetValue(ctx, logger, nk, system, "")
		if err != nil {
			logger.Warn("Failed to get personalized config: %v", err)
			continue
		}
		if personalizedConfig != nil {
			logger.Info("Applied personalization to system type: %v", system.GetType())
		}
	}

	w.systems[config.GetType()] = system

	// Cross-system wiring so systems can reach each other at call time.
	if ledgerSystem, ok := system.(*NakamaLedgerSystem); ok {
		ledgerSystem.SetWarchest(w)
	}
	if awardsSystem, ok := system.(*NakamaAwardsSystem); ok {
		awardsSystem.SetWarchest(w)
	}
	if shopSystem, ok := system.(*NakamaShopSystem); ok {
		shopSystem.SetWarchest(w)
	}

	// Load durable state now so startup failures surface at init, matching the
	// source plugins which refused to load on a bad catalog definition.
	switch sys := system.(type) {
	case *NakamaLedgerSystem:
		if count, err := sys.load(ctx, logger, nk); err != nil {
			// A missing or corrupt ledger document resets to empty and keeps going.
			logger.Error("Ledger document unreadable, starting empty: %v", err)
		} else {
			logger.Info("Ledger loaded with %d player records.", count)
		}
	case *NakamaCatalogSystem:
		count, err := sys.LoadAll(ctx, logger, nk)
		if err != nil {
			logger.Error("Catalog failed to load: %v", err)
			return err
		}
		logger.Info("Catalog loaded %d items into %d categories.", count, len(sys.Categories()))
	}

	if config.GetRegister() {
		if err := w.registerSystemRpcs(initializer, config.GetType()); err != nil {
			return err
		}
	}

	return nil
}

// registerSystemRpcs registers the appropriate RPCs for a given system type.
func (w *warchestImpl) registerSystemRpcs(initializer runtime.Initializer, systemType SystemType) error {
	switch systemType {
	case SystemTypeLedger:
		if err := initializer.RegisterRpc(RpcId_RPC_ID_LEDGER_BALANCE_GET.String(), rpcLedgerBalanceGet(w)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcId_RPC_ID_LEDGER_GRANT.String(), rpcLedgerGrant(w)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcId_RPC_ID_LEDGER_BALANCE_SET.String(), rpcLedgerBalanceSet(w)); err != nil {
			return err
		}

	case SystemTypeAwards:
		if err := initializer.RegisterRpc(RpcId_RPC_ID_AWARD_DESTRUCTIBLE_DESTROYED.String(), rpcAwardDestructibleDestroyed(w)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcId_RPC_ID_AWARD_CONTAINER_EMPTIED.String(), rpcAwardContainerEmptied(w)); err != nil {
			return err
		}

	case SystemTypeCatalog:
		if err := initializer.RegisterRpc(RpcId_RPC_ID_CATALOG_GET.String(), rpcCatalogGet(w)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcId_RPC_ID_CATALOG_ITEM_CHECK.String(), rpcCatalogItemCheck(w)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcId_RPC_ID_CATALOG_ITEM_UPDATE.String(), rpcCatalogItemUpdate(w)); err != nil {
			return err
		}

	case SystemTypeShop:
		if err := initializer.RegisterRpc(RpcId_RPC_ID_SHOP_OPEN.String(), rpcShopOpen(w)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcId_RPC_ID_SHOP_CLOSE.String(), rpcShopClose(w)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcId_RPC_ID_SHOP_CATEGORY.String(), rpcShopCategory(w)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcId_RPC_ID_SHOP_SEARCH.String(), rpcShopSearch(w)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcId_RPC_ID_SHOP_PAGE_NEXT.String(), rpcShopPageNext(w)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcId_RPC_ID_SHOP_PAGE_PREV.String(), rpcShopPagePrev(w)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcId_RPC_ID_SHOP_SELECT.String(), rpcShopSelect(w)); err != nil {
			return err
		}
		if err := initializer.RegisterRpc(RpcId_RPC_ID_SHOP_PURCHASE.String(), rpcShopPurchase(w)); err != nil {
			return err
		}

	default:
		// Unknown system type, no RPCs to register.
	}

	return nil
}

// AddPersonalizer adds a personalizer to the chain.
func (w *warchestImpl) AddPersonalizer(personalizer Personalizer) {
	w.personalizers = append(w.personalizers, personalizer)
}

// AddPublisher adds a publisher to the chain.
func (w *warchestImpl) AddPublisher(publisher Publisher) {
	w.publishers = append(w.publishers, publisher)
}

// SetFulfiller overrides the purchase delivery implementation.
func (w *warchestImpl) SetFulfiller(fulfiller Fulfiller) {
	w.fulfiller = fulfiller
	if shop, ok := w.systems[SystemTypeShop].(*NakamaShopSystem); ok {
		shop.SetFulfiller(fulfiller)
	}
}

func (w *warchestImpl) GetLedgerSystem() LedgerSystem {
	if sys, ok := w.systems[SystemTypeLedger].(LedgerSystem); ok {
		return sys
	}
	return nil
}

func (w *warchestImpl) GetAwardsSystem() AwardsSystem {
	if sys, ok := w.systems[SystemTypeAwards].(AwardsSystem); ok {
		return sys
	}
	return nil
}

func (w *warchestImpl) GetCatalogSystem() CatalogSystem {
	if sys, ok := w.systems[SystemTypeCatalog].(CatalogSystem); ok {
		return sys
	}
	return nil
}

func (w *warchestImpl) GetShopSystem() ShopSystem {
	if sys, ok := w.systems[SystemTypeShop].(ShopSystem); ok {
		return sys
	}
	return nil
}

// SendPublisherEvents broadcasts events to all registered publishers.
func (w *warchestImpl) SendPublisherEvents(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, events []*PublisherEvent) {
	if len(w.publishers) == 0 || len(events) == 0 {
		return
	}

	for _, publisher := range w.publishers {
		publisher.Send(ctx, logger, nk, userID, events)
	}
}

// BroadcastAuthEvent notifies all publishers about a player connecting.
func (w *warchestImpl) BroadcastAuthEvent(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, userID string, created bool) {
	if len(w.publishers) == 0 {
		return
	}

	for _, publisher := range w.publishers {
		publisher.Authenticate(ctx, logger, nk, userID, created)
	}
}

// UnregisterRpc clears the implementation of one or more RPCs registered in Nakama by Warchest gameplay systems with a
// no-op version. This is useful to remove individual RPCs which you do not want to be callable by game clients, such
// as the administrative grant and catalog update endpoints:
//
//	warchest.UnregisterRpc(initializer, warchest.RpcId_RPC_ID_LEDGER_GRANT, warchest.RpcId_RPC_ID_CATALOG_ITEM_UPDATE)
//
// The behaviour of `initializer.RegisterRpc` in Nakama is last registration wins. It's recommended to use UnregisterRpc
// only after `warchest.Init` has been executed.
func UnregisterRpc(initializer runtime.Initializer, ids ...RpcId) error {
	noopFn := func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error) {
		return "", runtime.NewError("not found", 12) // GRPC - UNIMPLEMENTED
	}
	for _, id := range ids {
		if err := initializer.RegisterRpc(id.String(), noopFn); err != nil {
			return err
		}
	}
	return nil
}
