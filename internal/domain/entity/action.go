package entity

// PermissionLevel authorizes an action.
type PermissionLevel struct {
	Actor      string `json:"actor"`
	Permission string `json:"permission"`
}

// Action is one contract action submitted through the wallet session.
type Action struct {
	Account       string            `json:"account"`
	Name          string            `json:"name"`
	Authorization []PermissionLevel `json:"authorization"`
	Data          any               `json:"data"`
}

// TransactResult is what the wallet session reports after broadcasting.
type TransactResult struct {
	TransactionID string `json:"transactionId"`
}

// ClaimData is the payload of the game contract's claim action.
type ClaimData struct {
	Owner    string `json:"owner"`
	HiveItem uint64 `json:"hiveitem"`
}

// FeedBeeData is the payload of feedbee.
type FeedBeeData struct {
	Owner string `json:"owner"`
	BeeID uint64 `json:"bee_id"`
}

// UpgradeHiveData is the payload of upgradehive.
type UpgradeHiveData struct {
	Owner  string `json:"owner"`
	HiveID uint64 `json:"hive_id"`
}

// UnstakeData is the payload of unstake.
type UnstakeData struct {
	Owner   string `json:"owner"`
	AssetID uint64 `json:"asset_id"`
	HiveID  uint64 `json:"hive_id"`
}

// NFTTransferData is the payload of the assets contract's transfer; staking is
// expressed through the memo.
type NFTTransferData struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	AssetIDs []uint64 `json:"asset_ids"`
	Memo     string   `json:"memo"`
}

// TokenTransferData is the payload of a token contract transfer.
type TokenTransferData struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Quantity string `json:"quantity"`
	Memo     string `json:"memo"`
}

// WithdrawData is the payload of withdraw; amounts are asset quantity strings.
type WithdrawData struct {
	Owner      string `json:"owner"`
	HunyAmount string `json:"huny_amount"`
	PlnAmount  string `json:"pln_amount"`
	BwaxAmount string `json:"bwax_amount"`
	RjAmount   string `json:"rj_amount"`
}
