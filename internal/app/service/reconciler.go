package service

import (
	"context"
	"sync"
	"time"

	"honeyfarmers/internal/app/port"
	"honeyfarmers/internal/domain/entity"
	"honeyfarmers/internal/infrastructure/network/fallback"
	"honeyfarmers/internal/pkg/metrics"
)

// ReconcileResult is the outcome of one reconciliation pass.
type ReconcileResult struct {
	State entity.ReconcileState
	// Kit is the session kit built during the pass, if any. It is kept after a failed
	// restore so an explicit login can reuse it.
	Kit     port.SessionKit
	Session port.LiveSession
	// SwitchTo asks the caller to change the active network and reconcile again.
	SwitchTo entity.NetworkKey
	// Skipped is set when another pass was already running.
	Skipped bool
}

// Reconciler restores a wallet session for a network from the persisted record.
type Reconciler struct {
	mu       sync.Mutex
	state    entity.ReconcileState
	store    *SessionStore
	factory  port.SessionKitFactory
	executor *fallback.Executor
	logger   port.Logger
	metrics  *metrics.Metrics
}

// NewReconciler creates a reconciler; kitTimeout bounds each kit construction attempt.
func NewReconciler(store *SessionStore, factory port.SessionKitFactory, kitTimeout time.Duration, logger port.Logger, m *metrics.Metrics) *Reconciler {
	if kitTimeout <= 0 {
		kitTimeout = fallback.SessionKitTimeout
	}
	return &Reconciler{
		state:    entity.StateUninitialized,
		store:    store,
		factory:  factory,
		executor: fallback.NewExecutor(nil, kitTimeout, logger, m),
		logger:   logger,
		metrics:  m,
	}
}

// State returns the current state.
func (r *Reconciler) State() entity.ReconcileState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Reset returns to Uninitialized unless a pass is running.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != entity.StateInitializing {
		r.state = entity.StateUninitialized
	}
}

// MarkReconciled records a session established outside a pass, e.g. an explicit login.
func (r *Reconciler) MarkReconciled() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = entity.StateReconciled
}

// BuildKit constructs a session kit for profile, trying its endpoints in order.
func (r *Reconciler) BuildKit(ctx context.Context, profile entity.NetworkProfile) (port.SessionKit, error) {
	return fallback.Run(ctx, r.executor.WithEndpoints(profile.Endpoints()), "session_kit",
		func(ctx context.Context, endpoint string) (port.SessionKit, error) {
			return r.factory(ctx, profile, endpoint)
		})
}

// Reconcile runs one pass for profile. allowSwitch lets a record persisted under another
// network request a network change. A call made while another pass is running returns
// immediately with Skipped set.
func (r *Reconciler) Reconcile(ctx context.Context, profile entity.NetworkProfile, allowSwitch bool) ReconcileResult {
	r.mu.Lock()
	if r.state == entity.StateInitializing {
		r.mu.Unlock()
		r.logger.Debug("Reconciliation already in progress", "network", profile.Key)
		return ReconcileResult{State: entity.StateInitializing, Skipped: true}
	}
	r.state = entity.StateInitializing
	r.mu.Unlock()

	res := r.run(ctx, profile, allowSwitch)

	r.mu.Lock()
	r.state = res.State
	r.mu.Unlock()

	r.metrics.ObserveReconciliation(res.State.String())
	r.logger.Info("Reconciliation finished", "network", profile.Key, "state", res.State, "switchTo", res.SwitchTo)
	return res
}

func (r *Reconciler) run(ctx context.Context, profile entity.NetworkProfile, allowSwitch bool) ReconcileResult {
	loaded := r.store.Load(profile.Key, allowSwitch)
	persisted := loaded.Summary

	if persisted != nil && persisted.ChainID != profile.ChainID {
		r.logger.Info("Persisted session belongs to another chain",
			"network", profile.Key,
			"storedNetwork", loaded.NetworkKey,
			"storedChain", entity.ChainIDString(persisted.ChainID))
		r.store.ClearConflictingStorage(true)
		return ReconcileResult{State: entity.StateUninitialized, SwitchTo: loaded.SwitchTo}
	}

	kit, err := r.BuildKit(ctx, profile)
	if err != nil {
		r.logger.Error("Failed to build wallet session kit", "network", profile.Key, "error", err)
		return ReconcileResult{State: entity.StateFailed}
	}

	if persisted != nil {
		live, err := kit.Restore(ctx, persisted)
		switch {
		case err != nil:
			r.logger.Warn("Session restore failed", "actor", persisted.Actor, "error", err)
		case live == nil:
			r.logger.Info("Wallet kit had no session to restore", "actor", persisted.Actor)
		case live.Actor() != persisted.Actor:
			r.logger.Warn("Restored session actor differs from persisted record", "persisted", persisted.Actor, "restored", live.Actor())
		default:
			return ReconcileResult{State: entity.StateReconciled, Kit: kit, Session: live}
		}
		r.store.Clear()
		r.store.ClearConflictingStorage(true)
	}

	live, err := kit.Restore(ctx, nil)
	if err != nil || live == nil {
		if err != nil {
			r.logger.Warn("Blind session restore failed", "network", profile.Key, "error", err)
		}
		return ReconcileResult{State: entity.StateFailed, Kit: kit}
	}

	if err := r.store.Save(summaryOf(live, profile), profile.Key); err != nil {
		r.logger.Warn("Failed to persist restored session", "error", err)
	}
	return ReconcileResult{State: entity.StateReconciled, Kit: kit, Session: live}
}

// summaryOf extracts the persistable part of a live session. The profile's chain id is
// used when the session reports one that does not parse.
func summaryOf(live port.LiveSession, profile entity.NetworkProfile) entity.SessionSummary {
	chainID, err := entity.ParseChainID(live.ChainID())
	if err != nil {
		chainID = profile.ChainID
	}
	return entity.SessionSummary{
		Actor:      live.Actor(),
		Permission: live.Permission(),
		ChainID:    chainID,
	}
}
