package entity

import "time"

// GameState is one consistent view of a player's holdings.
type GameState struct {
	Network       NetworkKey        `json:"network"`
	Actor         string            `json:"actor"`
	Resources     []ResourceBalance `json:"resources"`
	StakedHives   []StakedPosition  `json:"stakedHives"`
	StakedBees    []AssetMetadata   `json:"stakedBees"`
	UnstakedBees  []UnstakedAsset   `json:"unstakedBees"`
	UnstakedHives []UnstakedAsset   `json:"unstakedHives"`
	FetchedAt     time.Time         `json:"fetchedAt"`
	// Errors holds stage failures that left part of the view stale or empty.
	Errors []string `json:"errors,omitempty"`
}
