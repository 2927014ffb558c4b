package entity

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ResourceBalance is one row of the in-game resource table of an actor.
type ResourceBalance struct {
	KeyID        string          `json:"keyId"`
	Amount       decimal.Decimal `json:"amount"`
	ResourceName string          `json:"resourceName"`
}

// Earning is the positive change of one resource across a claim.
type Earning struct {
	ResourceName string          `json:"resourceName"`
	DisplayName  string          `json:"displayName"`
	Amount       decimal.Decimal `json:"amount"`
}

// WalletBalance is a token balance held in the actor's chain account.
type WalletBalance struct {
	Symbol   string          `json:"symbol"`
	Contract string          `json:"contract"`
	Amount   decimal.Decimal `json:"amount"`
}

// ResourceInfo describes how a resource is presented.
type ResourceInfo struct {
	Symbol      string `json:"symbol"`
	DisplayName string `json:"displayName"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
}

var resourceCatalog = map[string]ResourceInfo{
	"HNY":  {Symbol: "HNY", DisplayName: "Honey", Icon: "🍯", Color: "#f39c12"},
	"PLN":  {Symbol: "PLN", DisplayName: "Pollen", Icon: "🌼", Color: "#f1c40f"},
	"BWAX": {Symbol: "BWAX", DisplayName: "Beeswax", Icon: "🕯️", Color: "#e67e22"},
	"RJ":   {Symbol: "RJ", DisplayName: "Royal Jelly", Icon: "👑", Color: "#9b59b6"},
	"PROP": {Symbol: "PROP", DisplayName: "Propolis", Icon: "🧪", Color: "#27ae60"},
}

var resourceAliases = map[string]string{
	"HONEY":       "HNY",
	"HUNY":        "HNY",
	"POLLEN":      "PLN",
	"BEESWAX":     "BWAX",
	"ROYAL-JELLY": "RJ",
	"PROPOLIS":    "PROP",
}

// LookupResource resolves a resource name or alias; unknown names get a generic entry.
func LookupResource(name string) ResourceInfo {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if canonical, ok := resourceAliases[upper]; ok {
		upper = canonical
	}
	if info, ok := resourceCatalog[upper]; ok {
		return info
	}
	return ResourceInfo{Symbol: upper, DisplayName: name, Icon: "📦", Color: "#95a5a6"}
}
