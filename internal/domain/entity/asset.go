package entity

import (
	"fmt"
	"strconv"
)

// AssetID is an NFT asset id. It is kept as a decimal string because the
// indexing API and the contract tables disagree on its JSON type.
type AssetID string

// Uint64 returns the numeric id expected by contract actions.
func (id AssetID) Uint64() (uint64, error) {
	v, err := strconv.ParseUint(string(id), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid asset id %q: %w", string(id), err)
	}
	return v, nil
}

// IsZero reports whether the id is empty or the contract's "no asset" value.
func (id AssetID) IsZero() bool {
	return id == "" || id == "0"
}

// AssetMetadata is the deserialized view of an asset from the NFT indexing API.
type AssetMetadata struct {
	AssetID    AssetID        `json:"assetId"`
	TemplateID int64          `json:"templateId"`
	SchemaName string         `json:"schemaName,omitempty"`
	Name       string         `json:"name,omitempty"`
	Image      string         `json:"image,omitempty"`
	Immutable  map[string]any `json:"immutableData"`
	Mutable    map[string]any `json:"mutableData"`
}

// AssetKind is the heuristic classification of an owned asset.
type AssetKind string

const (
	AssetKindUnknown AssetKind = "unknown"
	AssetKindBee     AssetKind = "bee"
	AssetKindHive    AssetKind = "hive"
)

// UnstakedAsset is an owned asset not referenced by any staked position.
type UnstakedAsset struct {
	AssetID  AssetID       `json:"assetId"`
	Kind     AssetKind     `json:"kind"`
	Metadata AssetMetadata `json:"metadata"`
}

// StakedPosition is a staked hive joined with its metadata.
type StakedPosition struct {
	HiveID         AssetID        `json:"hiveId"`
	WorkerBeeIDs   []AssetID      `json:"workerBeeIds"`
	QueenBeeID     *AssetID       `json:"queenBeeId,omitempty"`
	Health         int64          `json:"health"`
	AvailableSlots int64          `json:"availableSlots"`
	MaxSlots       int64          `json:"maxSlots"`
	Metadata       *AssetMetadata `json:"metadata,omitempty"`
}

// Occupants returns the worker ids plus the queen, if any.
func (p StakedPosition) Occupants() []AssetID {
	out := make([]AssetID, 0, len(p.WorkerBeeIDs)+1)
	out = append(out, p.WorkerBeeIDs...)
	if p.QueenBeeID != nil {
		out = append(out, *p.QueenBeeID)
	}
	return out
}
