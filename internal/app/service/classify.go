package service

import (
	"strings"

	"honeyfarmers/internal/domain/entity"
)

// ClassifyAsset decides whether an owned asset is a bee or a hive.
// The schema name wins when it is one of the known ones; otherwise attribute names are
// inspected: anything egg-related is a bee, anything slot-related (or a health attribute)
// is a hive.
func ClassifyAsset(meta entity.AssetMetadata) entity.AssetKind {
	switch strings.ToLower(strings.TrimSpace(meta.SchemaName)) {
	case "bee", "bees":
		return entity.AssetKindBee
	case "hive", "hives":
		return entity.AssetKindHive
	}

	keys := attributeKeys(meta)
	for _, k := range keys {
		if strings.Contains(k, "egg") {
			return entity.AssetKindBee
		}
	}
	for _, k := range keys {
		if strings.Contains(k, "slot") || k == "health" {
			return entity.AssetKindHive
		}
	}
	return entity.AssetKindUnknown
}

func attributeKeys(meta entity.AssetMetadata) []string {
	keys := make([]string, 0, len(meta.Immutable)+len(meta.Mutable))
	for k := range meta.Immutable {
		keys = append(keys, strings.ToLower(k))
	}
	for k := range meta.Mutable {
		keys = append(keys, strings.ToLower(k))
	}
	return keys
}
