package entity

// ChainInfo is the subset of /v1/chain/get_info the client needs.
type ChainInfo struct {
	ServerVersion string `json:"server_version"`
	ChainID       string `json:"chain_id"`
	HeadBlockNum  uint64 `json:"head_block_num"`
	HeadBlockTime string `json:"head_block_time"`
}

// TableRowsRequest is the body of /v1/chain/get_table_rows.
type TableRowsRequest struct {
	Code  string `json:"code"`
	Scope string `json:"scope"`
	Table string `json:"table"`
	Limit int    `json:"limit"`
	JSON  bool   `json:"json"`
}

// CurrencyBalanceRequest is the body of /v1/chain/get_currency_balance.
type CurrencyBalanceRequest struct {
	Code    string `json:"code"`
	Account string `json:"account"`
	Symbol  string `json:"symbol"`
}

// ResourceRow is a row of the game contract's resources table.
type ResourceRow struct {
	KeyID        FlexString `json:"key_id"`
	Amount       FlexString `json:"amount"`
	ResourceName string     `json:"resource_name"`
}

// StakedRow is a row of the game contract's staked table.
// Older contract revisions used asset_id/staked_items; both are accepted.
type StakedRow struct {
	HiveID      FlexString   `json:"hive_id"`
	AssetID     FlexString   `json:"asset_id"`
	WorkerIDs   []FlexString `json:"worker_ids"`
	StakedItems []FlexString `json:"staked_items"`
	QueenID     FlexString   `json:"queen_id"`
}

// APIError is the error envelope returned by Antelope nodes.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Error   struct {
		Code    int    `json:"code"`
		Name    string `json:"name"`
		What    string `json:"what"`
		Details []struct {
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
}
