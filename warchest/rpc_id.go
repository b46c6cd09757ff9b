package warchest

// RpcId identifies each RPC endpoint registered by the Warchest gameplay systems.
// The naming mirrors the client protocol definitions so client SDK constants and
// server registrations stay aligned.
type RpcId int32

const (
	RpcId_RPC_ID_UNKNOWN RpcId = iota
	RpcId_RPC_ID_LEDGER_BALANCE_GET
	RpcId_RPC_ID_LEDGER_GRANT
	RpcId_RPC_ID_LEDGER_BALANCE_SET
	RpcId_RPC_ID_AWARD_DESTRUCTIBLE_DESTROYED
	RpcId_RPC_ID_AWARD_CONTAINER_EMPTIED
	RpcId_RPC_ID_CATALOG_GET
	RpcId_RPC_ID_CATALOG_ITEM_CHECK
	RpcId_RPC_ID_CATALOG_ITEM_UPDATE
	RpcId_RPC_ID_SHOP_OPEN
	RpcId_RPC_ID_SHOP_CLOSE
	RpcId_RPC_ID_SHOP_CATEGORY
	RpcId_RPC_ID_SHOP_SEARCH
	RpcId_RPC_ID_SHOP_PAGE_NEXT
	RpcId_RPC_ID_SHOP_PAGE_PREV
	RpcId_RPC_ID_SHOP_SELECT
	RpcId_RPC_ID_SHOP_PURCHASE
)

var rpcIdNames = map[RpcId]string{
	RpcId_RPC_ID_LEDGER_BALANCE_GET:           "ledger_balance_get",
	RpcId_RPC_ID_LEDGER_GRANT:                 "ledger_grant",
	RpcId_RPC_ID_LEDGER_BALANCE_SET:           "ledger_balance_set",
	RpcId_RPC_ID_AWARD_DESTRUCTIBLE_DESTROYED: "award_destructible_destroyed",
	RpcId_RPC_ID_AWARD_CONTAINER_EMPTIED:      "award_container_emptied",
	RpcId_RPC_ID_CATALOG_GET:                  "catalog_get",
	RpcId_RPC_ID_CATALOG_ITEM_CHECK:           "catalog_item_check",
	RpcId_RPC_ID_CATALOG_ITEM_UPDATE:          "catalog_item_update",
	RpcId_RPC_ID_SHOP_OPEN:                    "shop_open",
	RpcId_RPC_ID_SHOP_CLOSE:                   "shop_close",
	RpcId_RPC_ID_SHOP_CATEGORY:                "shop_category",
	RpcId_RPC_ID_SHOP_SEARCH:                  "shop_search",
	RpcId_RPC_ID_SHOP_PAGE_NEXT:               "shop_page_next",
	RpcId_RPC_ID_SHOP_PAGE_PREV:               "shop_page_prev",
	RpcId_RPC_ID_SHOP_SELECT:                  "shop_select",
	RpcId_RPC_ID_SHOP_PURCHASE:                "shop_purchase",
}

func (id RpcId) String() string {
	if name, ok := rpcIdNames[id]; ok {
		return name
	}
	return "unknown"
}
