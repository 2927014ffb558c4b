package service

import (
	"fmt"
	"time"

	"honeyfarmers/internal/app/port"
	"honeyfarmers/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LoadResult is the outcome of SessionStore.Load.
type LoadResult struct {
	// Summary is nil when there is no usable record.
	Summary *entity.SessionSummary
	// NetworkKey is the network the record was saved under.
	NetworkKey entity.NetworkKey
	// SwitchTo is set when the caller should change the active network to the stored one.
	SwitchTo entity.NetworkKey
}

// SessionStore persists the single session record and the network selection.
type SessionStore struct {
	kv     port.KeyValueStore
	logger port.Logger
	now    func() time.Time
}

// NewSessionStore creates a store over kv.
func NewSessionStore(kv port.KeyValueStore, logger port.Logger) *SessionStore {
	return &SessionStore{kv: kv, logger: logger, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	s.now = now
	return s
}

// Save overwrites the stored record with summary, valid for entity.SessionTTL.
func (s *SessionStore) Save(summary entity.SessionSummary, networkKey entity.NetworkKey) error {
	now := s.now()
	record := entity.PersistedSession{
		SessionSummary: summary,
		NetworkKey:     networkKey,
		CreatedAt:      now.UnixMilli(),
		ExpiresAt:      now.Add(entity.SessionTTL).UnixMilli(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode session record: %w", err)
	}
	if err := s.kv.Set(entity.SessionStorageKey, string(data)); err != nil {
		return fmt.Errorf("failed to store session record: %w", err)
	}
	s.logger.Debug("Session record saved", "actor", summary.Actor, "network", networkKey)
	return nil
}

// Load returns the stored summary for currentNetworkKey. Absent, malformed and expired
// records yield an empty result; malformed and expired ones are deleted.
func (s *SessionStore) Load(currentNetworkKey entity.NetworkKey, allowSwitch bool) LoadResult {
	raw, ok, err := s.kv.Get(entity.SessionStorageKey)
	if err != nil {
		s.logger.Warn("Failed to read session record", "error", err)
		return LoadResult{}
	}
	if !ok {
		return LoadResult{}
	}

	var record entity.PersistedSession
	if err := json.Unmarshal([]byte(raw), &record); err != nil || record.Actor == "" || record.ExpiresAt == 0 {
		s.logger.Warn("Discarding malformed session record", "error", err)
		s.Clear()
		return LoadResult{}
	}

	if record.Expired(s.now()) {
		s.logger.Info("Session record expired", "actor", record.Actor, "expiresAt", time.UnixMilli(record.ExpiresAt).UTC())
		s.Clear()
		return LoadResult{}
	}

	summary := record.SessionSummary
	result := LoadResult{Summary: &summary, NetworkKey: record.NetworkKey}
	if record.NetworkKey != "" && record.NetworkKey != currentNetworkKey && allowSwitch {
		result.SwitchTo = record.NetworkKey
	}
	return result
}

// Clear deletes the stored record.
func (s *SessionStore) Clear() {
	if err := s.kv.Delete(entity.SessionStorageKey); err != nil {
		s.logger.Warn("Failed to delete session record", "error", err)
	}
}

// ClearConflictingStorage removes the wallet kit's persisted entries. In preserve mode the
// kit's own session cache survives and only chain-scoped entries are removed.
func (s *SessionStore) ClearConflictingStorage(preserve bool) {
	keys, err := s.kv.Keys(entity.WalletKitPrefix)
	if err != nil {
		s.logger.Warn("Failed to list wallet kit storage", "error", err)
		return
	}

	removed := 0
	for _, key := range keys {
		if preserve && (key == entity.WalletKitSessionKey || key == entity.WalletKitSessionsKey) {
			continue
		}
		if err := s.kv.Delete(key); err != nil {
			s.logger.Warn("Failed to delete wallet kit entry", "key", key, "error", err)
			continue
		}
		removed++
	}
	s.logger.Debug("Cleared conflicting wallet kit storage", "preserve", preserve, "removed", removed)
}

// SaveNetwork persists the network selection.
func (s *SessionStore) SaveNetwork(key entity.NetworkKey) error {
	if err := s.kv.Set(entity.NetworkStorageKey, string(key)); err != nil {
		return fmt.Errorf("failed to store network selection: %w", err)
	}
	return nil
}

// LoadNetwork returns the persisted network selection.
func (s *SessionStore) LoadNetwork() (entity.NetworkKey, bool) {
	raw, ok, err := s.kv.Get(entity.NetworkStorageKey)
	if err != nil {
		s.logger.Warn("Failed to read network selection", "error", err)
		return "", false
	}
	if !ok || raw == "" {
		return "", false
	}
	return entity.NetworkKey(raw), true
}
