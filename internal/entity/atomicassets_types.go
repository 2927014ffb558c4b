package entity

// AssetResponse is the envelope of GET /assets/{id}.
type AssetResponse struct {
	Success bool       `json:"success"`
	Data    *AssetData `json:"data"`
	Message string     `json:"message,omitempty"`
}

// AssetListResponse is the envelope of GET /assets.
type AssetListResponse struct {
	Success bool        `json:"success"`
	Data    []AssetData `json:"data"`
	Message string      `json:"message,omitempty"`
}

// AssetData is one asset as served by the AtomicAssets API.
type AssetData struct {
	AssetID       FlexString     `json:"asset_id"`
	Owner         string         `json:"owner"`
	Name          string         `json:"name"`
	Collection    *Collection    `json:"collection"`
	Schema        *Schema        `json:"schema"`
	Template      *Template      `json:"template"`
	MutableData   map[string]any `json:"mutable_data"`
	ImmutableData map[string]any `json:"immutable_data"`
	Data          map[string]any `json:"data"`
}

// Collection identifies the asset's collection.
type Collection struct {
	CollectionName string `json:"collection_name"`
	Name           string `json:"name"`
}

// Schema identifies the asset's schema.
type Schema struct {
	SchemaName string `json:"schema_name"`
}

// Template carries the template-level immutable attributes.
type Template struct {
	TemplateID    FlexString     `json:"template_id"`
	MaxSupply     FlexString     `json:"max_supply"`
	ImmutableData map[string]any `json:"immutable_data"`
}

// AssetListQuery selects a page of owned assets.
type AssetListQuery struct {
	Owner          string
	CollectionName string
	SchemaName     string
	Page           int
	Limit          int
}
