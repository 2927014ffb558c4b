package utils

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// AttrInt reads an integer attribute from decoded asset data.
// The indexing API serves numbers as JSON numbers or as strings depending on the schema.
func AttrInt(attrs map[string]any, keys ...string) (int64, bool) {
	for _, key := range keys {
		raw, ok := LookupAttr(attrs, key)
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case float64:
			return int64(v), true
		case int:
			return int64(v), true
		case int64:
			return v, true
		case string:
			if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
				return d.IntPart(), true
			}
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// AttrString reads a string attribute.
func AttrString(attrs map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		raw, ok := LookupAttr(attrs, key)
		if !ok {
			continue
		}
		if s, ok := raw.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// LookupAttr finds an attribute by key, ignoring case.
func LookupAttr(attrs map[string]any, key string) (any, bool) {
	if attrs == nil {
		return nil, false
	}
	if v, ok := attrs[key]; ok {
		return v, true
	}
	for k, v := range attrs {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}
