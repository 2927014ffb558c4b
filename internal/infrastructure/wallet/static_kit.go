package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"honeyfarmers/internal/app/port"
	"honeyfarmers/internal/domain/entity"
	"honeyfarmers/internal/infrastructure/configloader"
)

var (
	// ErrNoAccount is returned by Login when no wallet account is configured.
	ErrNoAccount = errors.New("no wallet account configured")
	// ErrChainMismatch is returned when an endpoint serves a different chain than expected.
	ErrChainMismatch = errors.New("endpoint serves a different chain")
)

const chainSessionName = "session"

// storedSession is the kit's own record of a session.
type storedSession struct {
	Actor      string `json:"actor"`
	Permission string `json:"permission"`
	ChainID    string `json:"chainId"`
}

// StaticKit is a session kit backed by a configured account and an optional remote signer.
// Its session cache lives in the walletkit namespace of the shared key-value store.
type StaticKit struct {
	kv       port.KeyValueStore
	chainID  string
	endpoint string
	account  configloader.WalletConfig
	signer   *Signer
	logger   port.Logger
	mu       sync.Mutex
}

// NewKitFactory returns a port.SessionKitFactory that probes endpoint with get_info and
// builds a StaticKit once the endpoint is confirmed to serve the profile's chain.
func NewKitFactory(
	chains port.ChainClientProvider,
	registry port.NetworkRegistry,
	kv port.KeyValueStore,
	account configloader.WalletConfig,
	signer *Signer,
	logger port.Logger,
) port.SessionKitFactory {
	return func(ctx context.Context, profile entity.NetworkProfile, endpoint string) (port.SessionKit, error) {
		client, err := chains.GetClient(endpoint)
		if err != nil {
			return nil, err
		}
		info, err := client.GetInfo(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to probe %s: %w", endpoint, err)
		}

		got, err := entity.ParseChainID(info.ChainID)
		if err != nil {
			return nil, err
		}
		if got != profile.ChainID {
			if other, ok := registry.ByChainID(got); ok {
				return nil, fmt.Errorf("%w: %s serves %s, expected %s", ErrChainMismatch, endpoint, other.Name, profile.Name)
			}
			return nil, fmt.Errorf("%w: %s serves chain %s", ErrChainMismatch, endpoint, info.ChainID)
		}

		logger.Debug("Wallet session kit ready", "network", profile.Key, "endpoint", endpoint, "headBlock", info.HeadBlockNum)
		return NewStaticKit(kv, entity.ChainIDString(profile.ChainID), endpoint, account, signer, logger), nil
	}
}

// NewStaticKit creates a kit for one chain, sending transactions through endpoint.
func NewStaticKit(kv port.KeyValueStore, chainID, endpoint string, account configloader.WalletConfig, signer *Signer, logger port.Logger) *StaticKit {
	if account.Permission == "" {
		account.Permission = "active"
	}
	return &StaticKit{
		kv:       kv,
		chainID:  strings.ToLower(chainID),
		endpoint: endpoint,
		account:  account,
		signer:   signer,
		logger:   logger,
	}
}

// Restore implements port.SessionKit. A targeted restore succeeds when the kit holds a
// session of that actor on this chain; a blind restore resumes the last session used on
// this chain.
func (k *StaticKit) Restore(_ context.Context, summary *entity.SessionSummary) (port.LiveSession, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	sessions, err := k.loadSessions()
	if err != nil {
		return nil, err
	}

	if summary != nil {
		for _, s := range sessions {
			if s.ChainID == k.chainID && s.Actor == summary.Actor {
				return k.live(s), nil
			}
		}
		return nil, nil
	}

	if actor, ok, err := k.kv.Get(entity.WalletKitChainKey(k.chainID, chainSessionName)); err == nil && ok {
		for _, s := range sessions {
			if s.ChainID == k.chainID && s.Actor == actor {
				return k.live(s), nil
			}
		}
	}

	var last storedSession
	raw, ok, err := k.kv.Get(entity.WalletKitSessionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet session cache: %w", err)
	}
	if !ok {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(raw), &last); err != nil {
		k.logger.Warn("Discarding unreadable wallet session cache", "error", err)
		return nil, nil
	}
	if last.ChainID != k.chainID || last.Actor == "" {
		return nil, nil
	}
	return k.live(last), nil
}

// Login implements port.SessionKit using the configured account.
func (k *StaticKit) Login(_ context.Context) (port.LiveSession, error) {
	if k.account.Actor == "" {
		return nil, ErrNoAccount
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	s := storedSession{Actor: k.account.Actor, Permission: k.account.Permission, ChainID: k.chainID}
	if err := k.remember(s); err != nil {
		return nil, err
	}
	k.logger.Info("Wallet login", "actor", s.Actor, "permission", s.Permission)
	return k.live(s), nil
}

// Logout implements port.SessionKit.
func (k *StaticKit) Logout(_ context.Context, session port.LiveSession) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	sessions, err := k.loadSessions()
	if err != nil {
		return err
	}
	kept := sessions[:0]
	for _, s := range sessions {
		if s.ChainID == k.chainID && s.Actor == session.Actor() {
			continue
		}
		kept = append(kept, s)
	}
	if err := k.saveSessions(kept); err != nil {
		return err
	}

	if raw, ok, _ := k.kv.Get(entity.WalletKitSessionKey); ok {
		var last storedSession
		if json.Unmarshal([]byte(raw), &last) != nil || (last.ChainID == k.chainID && last.Actor == session.Actor()) {
			_ = k.kv.Delete(entity.WalletKitSessionKey)
		}
	}
	return k.kv.Delete(entity.WalletKitChainKey(k.chainID, chainSessionName))
}

func (k *StaticKit) remember(s storedSession) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := k.kv.Set(entity.WalletKitSessionKey, string(raw)); err != nil {
		return fmt.Errorf("failed to store wallet session: %w", err)
	}

	sessions, err := k.loadSessions()
	if err != nil {
		return err
	}
	replaced := false
	for i := range sessions {
		if sessions[i].ChainID == s.ChainID && sessions[i].Actor == s.Actor {
			sessions[i] = s
			replaced = true
		}
	}
	if !replaced {
		sessions = append(sessions, s)
	}
	if err := k.saveSessions(sessions); err != nil {
		return err
	}
	return k.kv.Set(entity.WalletKitChainKey(k.chainID, chainSessionName), s.Actor)
}

func (k *StaticKit) loadSessions() ([]storedSession, error) {
	raw, ok, err := k.kv.Get(entity.WalletKitSessionsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet sessions: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var sessions []storedSession
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		k.logger.Warn("Discarding unreadable wallet sessions", "error", err)
		return nil, nil
	}
	return sessions, nil
}

func (k *StaticKit) saveSessions(sessions []storedSession) error {
	raw, err := json.Marshal(sessions)
	if err != nil {
		return err
	}
	if err := k.kv.Set(entity.WalletKitSessionsKey, string(raw)); err != nil {
		return fmt.Errorf("failed to store wallet sessions: %w", err)
	}
	return nil
}

func (k *StaticKit) live(s storedSession) *liveSession {
	permission := s.Permission
	if permission == "" {
		permission = k.account.Permission
	}
	return &liveSession{
		actor:      s.Actor,
		permission: permission,
		chainID:    k.chainID,
		endpoint:   k.endpoint,
		signer:     k.signer,
	}
}

// liveSession sends every transaction through the endpoint the kit was built on.
type liveSession struct {
	actor      string
	permission string
	chainID    string
	endpoint   string
	signer     *Signer
}

func (s *liveSession) Actor() string      { return s.actor }
func (s *liveSession) Permission() string { return s.permission }
func (s *liveSession) ChainID() string    { return s.chainID }
func (s *liveSession) Endpoint() string   { return s.endpoint }

func (s *liveSession) Transact(ctx context.Context, actions []entity.Action) (*entity.TransactResult, error) {
	id, err := s.signer.Push(ctx, s.chainID, s.endpoint, actions)
	if err != nil {
		return nil, err
	}
	return &entity.TransactResult{TransactionID: id}, nil
}

var (
	_ port.SessionKit  = (*StaticKit)(nil)
	_ port.LiveSession = (*liveSession)(nil)
)
