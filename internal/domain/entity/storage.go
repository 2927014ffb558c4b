package entity

// Storage keys shared by the session store and the wallet session kit.
const (
	SessionStorageKey = "honeyfarmers.session"
	NetworkStorageKey = "honeyfarmers.network"

	// WalletKitPrefix is the namespace of everything the wallet session kit persists.
	WalletKitPrefix = "walletkit."
	// WalletKitSessionKey and WalletKitSessionsKey hold the kit's own session cache.
	WalletKitSessionKey  = WalletKitPrefix + "session"
	WalletKitSessionsKey = WalletKitPrefix + "sessions"
	// WalletKitChainPrefix scopes kit entries to one chain: walletkit.chain.<chain id>.<name>.
	WalletKitChainPrefix = WalletKitPrefix + "chain."
)

// WalletKitChainKey returns the chain-scoped kit key for name.
func WalletKitChainKey(chainID, name string) string {
	return WalletKitChainPrefix + chainID + "." + name
}
