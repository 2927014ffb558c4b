package port

import (
	"context"

	"honeyfarmers/internal/domain/entity"
	wire "honeyfarmers/internal/entity"

	"github.com/ethereum/go-ethereum/common"
)

// NetworkRegistry provides the static network profiles.
type NetworkRegistry interface {
	// Get returns the profile for a key and true, or false when the key is unknown.
	Get(key entity.NetworkKey) (entity.NetworkProfile, bool)

	// All returns every profile in a stable order.
	All() []entity.NetworkProfile

	// ByChainID resolves a profile from its chain identifier.
	ByChainID(chainID common.Hash) (entity.NetworkProfile, bool)
}

// ChainClient talks to one Antelope RPC endpoint.
type ChainClient interface {
	// Endpoint returns the base URL this client is bound to.
	Endpoint() string

	GetInfo(ctx context.Context) (*wire.ChainInfo, error)

	// GetTableRows reads a contract table and decodes the rows into out, which must be a pointer to a slice.
	GetTableRows(ctx context.Context, req wire.TableRowsRequest, out any) (more bool, err error)

	// GetCurrencyBalance returns the raw quantity strings, e.g. ["10.0000 HUNY"].
	GetCurrencyBalance(ctx context.Context, req wire.CurrencyBalanceRequest) ([]string, error)
}

// ChainClientProvider hands out clients for endpoints, caching them per endpoint.
type ChainClientProvider interface {
	GetClient(endpoint string) (ChainClient, error)
}

// AssetMetadataClient talks to one NFT indexing API base.
type AssetMetadataClient interface {
	GetAsset(ctx context.Context, baseURL string, assetID entity.AssetID) (*entity.AssetMetadata, error)
	ListAssets(ctx context.Context, baseURL string, query wire.AssetListQuery) ([]entity.AssetMetadata, error)
}
