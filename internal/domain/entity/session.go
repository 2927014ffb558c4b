package entity

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// SessionTTL is the lifetime of a persisted session record.
const SessionTTL = 7 * 24 * time.Hour

// SessionSummary is the part of a live wallet session that may be persisted.
type SessionSummary struct {
	Actor      string      `json:"actor"`
	Permission string      `json:"permission"`
	ChainID    common.Hash `json:"chainId"`
}

// PersistedSession is the single stored session record.
// Times are unix milliseconds so the record stays readable by the browser client.
type PersistedSession struct {
	SessionSummary
	NetworkKey NetworkKey `json:"networkKey"`
	CreatedAt  int64      `json:"createdAt"`
	ExpiresAt  int64      `json:"expiresAt"`
}

// Expired reports whether the record is past its expiry at now.
func (p PersistedSession) Expired(now time.Time) bool {
	return now.UnixMilli() > p.ExpiresAt
}

// ReconcileState is the state of the session reconciliation engine.
type ReconcileState int

const (
	StateUninitialized ReconcileState = iota
	StateInitializing
	StateReconciled
	StateFailed
)

func (s ReconcileState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReconciled:
		return "reconciled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText lets the state render as its name in JSON responses.
func (s ReconcileState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
