package networkdefinition

import (
	"fmt"
	"sort"

	"honeyfarmers/internal/app/port"
	"honeyfarmers/internal/domain/entity"
	"honeyfarmers/internal/infrastructure/configloader"

	"github.com/ethereum/go-ethereum/common"
)

// Registry provides the network profiles the client can run against.
type Registry struct {
	logger   port.Logger
	profiles map[entity.NetworkKey]entity.NetworkProfile
}

// Predefined network profiles
var ( //nolint:gochecknoglobals // Global for definitions
	WaxMainnet = entity.NetworkProfile{
		Key:             entity.Mainnet,
		ChainID:         entity.MustParseChainID("1064487b3cd1a897ce03ae5b6a865651747e2e152090f99c1d19d44e01aea5a4"),
		Name:            "WAX Mainnet",
		PrimaryEndpoint: "https://wax.greymass.com",
		FallbackEndpoints: []string{
			"https://wax.eosphere.io",
			"https://api.wax.alohaeos.com",
			"https://wax.cryptolions.io",
		},
		ContractAccount: "farmforhoney",
		TokenContract:   "farminghoney",
		AssetsContract:  "atomicassets",
		CollectionName:  "farmforhoney",
		NFTAPIBase:      "https://wax.api.atomicassets.io/atomicassets/v1",
		NFTAPIFallbacks: []string{"https://aa.wax.blacklusion.io/atomicassets/v1"},
	}
	WaxTestnet = entity.NetworkProfile{
		Key:             entity.Testnet,
		ChainID:         entity.MustParseChainID("f16b1833c747c43682f4386fca9cbb327929334a762755ebec17f6f23c9b8a12"),
		Name:            "WAX Testnet",
		PrimaryEndpoint: "https://testnet.waxsweden.org",
		FallbackEndpoints: []string{
			"https://waxtestnet.greymass.com",
			"https://testnet.wax.pink.gg",
		},
		ContractAccount: "farmforhoney",
		TokenContract:   "farminghoney",
		AssetsContract:  "atomicassets",
		CollectionName:  "farmforhoney",
		NFTAPIBase:      "https://test.wax.api.atomicassets.io/atomicassets/v1",
	}
)

// allKnownProfiles is a helper to quickly access all hardcoded profiles.
var allKnownProfiles = map[entity.NetworkKey]entity.NetworkProfile{
	WaxMainnet.Key: WaxMainnet,
	WaxTestnet.Key: WaxTestnet,
}

// NewRegistry creates a Registry from the built-in profiles with config overrides applied.
func NewRegistry(log port.Logger, overrides map[string]configloader.NetworkOverride) *Registry {
	r := &Registry{
		logger:   log,
		profiles: make(map[entity.NetworkKey]entity.NetworkProfile, len(allKnownProfiles)),
	}

	for key, profile := range allKnownProfiles {
		if o, ok := overrides[string(key)]; ok {
			profile = applyOverride(profile, o)
			r.logger.Info("Network profile overridden by config", "network", key, "primary", profile.PrimaryEndpoint)
		}
		r.profiles[key] = profile
	}

	for _, p := range r.All() {
		r.logger.Debug(fmt.Sprintf("  - Network: %s (key: %s, chain: %s, endpoints: %d)", p.Name, p.Key, entity.ChainIDString(p.ChainID), len(p.Endpoints())))
	}
	return r
}

func applyOverride(p entity.NetworkProfile, o configloader.NetworkOverride) entity.NetworkProfile {
	if o.PrimaryEndpoint != "" {
		p.PrimaryEndpoint = o.PrimaryEndpoint
	}
	if o.FallbackEndpoints != nil {
		p.FallbackEndpoints = append([]string(nil), o.FallbackEndpoints...)
	}
	if o.ContractAccount != "" {
		p.ContractAccount = o.ContractAccount
	}
	if o.TokenContract != "" {
		p.TokenContract = o.TokenContract
	}
	if o.AssetsContract != "" {
		p.AssetsContract = o.AssetsContract
	}
	if o.CollectionName != "" {
		p.CollectionName = o.CollectionName
	}
	if o.NFTAPIBase != "" {
		p.NFTAPIBase = o.NFTAPIBase
	}
	if o.NFTAPIFallbacks != nil {
		p.NFTAPIFallbacks = append([]string(nil), o.NFTAPIFallbacks...)
	}
	return p
}

// Get returns the profile registered under key.
func (r *Registry) Get(key entity.NetworkKey) (entity.NetworkProfile, bool) {
	if r == nil {
		return entity.NetworkProfile{}, false
	}
	p, ok := r.profiles[key]
	return p, ok
}

// All returns every profile, mainnet first.
func (r *Registry) All() []entity.NetworkProfile {
	if r == nil {
		return []entity.NetworkProfile{}
	}
	out := make([]entity.NetworkProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ByChainID returns the profile of a chain.
func (r *Registry) ByChainID(chainID common.Hash) (entity.NetworkProfile, bool) {
	if r == nil {
		return entity.NetworkProfile{}, false
	}
	for _, p := range r.profiles {
		if p.ChainID == chainID {
			return p, true
		}
	}
	return entity.NetworkProfile{}, false
}

var _ port.NetworkRegistry = (*Registry)(nil)
