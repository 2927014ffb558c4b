package storage

import (
	"sort"
	"strings"

	"honeyfarmers/internal/app/port"

	"github.com/patrickmn/go-cache"
)

// MemoryStore is a process-local port.KeyValueStore. Entries never expire.
type MemoryStore struct {
	items *cache.Cache
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: cache.New(cache.NoExpiration, 0)}
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	v, ok := s.items.Get(key)
	if !ok {
		return "", false, nil
	}
	str, _ := v.(string)
	return str, true, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.items.Set(key, value, cache.NoExpiration)
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.items.Delete(key)
	return nil
}

func (s *MemoryStore) Keys(prefix string) ([]string, error) {
	items := s.items.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

var _ port.KeyValueStore = (*MemoryStore)(nil)
