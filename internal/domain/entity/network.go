package entity

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// NetworkKey selects one of the supported chains.
type NetworkKey string

const (
	Mainnet NetworkKey = "mainnet"
	Testnet NetworkKey = "testnet"
)

// NetworkProfile holds the static description of a supported chain.
// This structure is defined at the domain level to be used across application and infrastructure layers.
type NetworkProfile struct {
	Key               NetworkKey  `json:"key" yaml:"key"`
	ChainID           common.Hash `json:"chainId" yaml:"chainId"`
	Name              string      `json:"name" yaml:"name"`
	PrimaryEndpoint   string      `json:"primaryEndpoint" yaml:"primaryEndpoint"`
	FallbackEndpoints []string    `json:"fallbackEndpoints" yaml:"fallbackEndpoints"`
	ContractAccount   string      `json:"contractAccount" yaml:"contractAccount"`
	TokenContract     string      `json:"tokenContract" yaml:"tokenContract"`
	AssetsContract    string      `json:"assetsContract" yaml:"assetsContract"`
	CollectionName    string      `json:"collectionName" yaml:"collectionName"`
	NFTAPIBase        string      `json:"nftApiBase" yaml:"nftApiBase"`
	NFTAPIFallbacks   []string    `json:"nftApiFallbacks,omitempty" yaml:"nftApiFallbacks,omitempty"`
}

// Endpoints returns the primary endpoint followed by the fallbacks, in order and without duplicates.
func (p NetworkProfile) Endpoints() []string {
	return orderedUnique(append([]string{p.PrimaryEndpoint}, p.FallbackEndpoints...))
}

// NFTAPIBases returns the metadata API base followed by its fallbacks.
func (p NetworkProfile) NFTAPIBases() []string {
	return orderedUnique(append([]string{p.NFTAPIBase}, p.NFTAPIFallbacks...))
}

func orderedUnique(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimRight(strings.TrimSpace(s), "/")
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ParseChainID parses a 32-byte chain identifier, with or without the 0x prefix.
func ParseChainID(s string) (common.Hash, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	raw, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid chain id %q: %w", s, err)
	}
	if len(raw) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid chain id %q: expected %d bytes, got %d", s, common.HashLength, len(raw))
	}
	return common.BytesToHash(raw), nil
}

// MustParseChainID is ParseChainID for static definitions.
func MustParseChainID(s string) common.Hash {
	h, err := ParseChainID(s)
	if err != nil {
		panic(err)
	}
	return h
}

// ChainIDString renders a chain id the way Antelope nodes report it (no 0x prefix).
func ChainIDString(h common.Hash) string {
	return strings.TrimPrefix(h.Hex(), "0x")
}
