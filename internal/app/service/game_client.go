package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"honeyfarmers/internal/app/port"
	"honeyfarmers/internal/domain/entity"
	"honeyfarmers/internal/pkg/metrics"
	"honeyfarmers/internal/pkg/utils"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

const (
	stateCacheKey     = "gamestate"
	resourcesCacheKey = "resources"
	stakeMemoPrefix   = "stakebees:"
	depositMemo       = "deposit"
)

// gameClientImpl implements port.GameClient. It owns the active network, the session kit,
// the live session and the cached game state.
type gameClientImpl struct {
	registry   port.NetworkRegistry
	store      *SessionStore
	reconciler *Reconciler
	pipeline   *GameStateService
	logger     port.Logger
	metrics    *metrics.Metrics

	mu      sync.RWMutex
	profile entity.NetworkProfile
	kit     port.SessionKit
	session port.LiveSession
	// gen advances on every network switch, login and logout; a pass that started
	// under an older generation has its result discarded.
	gen     uint64

	stateCache *cache.Cache
}

// NewGameClient creates the client on the given starting network.
func NewGameClient(
	registry port.NetworkRegistry,
	store *SessionStore,
	reconciler *Reconciler,
	pipeline *GameStateService,
	defaultNetwork entity.NetworkKey,
	logger port.Logger,
	m *metrics.Metrics,
) (port.GameClient, error) {
	key := defaultNetwork
	if saved, ok := store.LoadNetwork(); ok {
		if _, known := registry.Get(saved); known {
			key = saved
		}
	}
	profile, ok := registry.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNetwork, key)
	}

	return &gameClientImpl{
		registry:   registry,
		store:      store,
		reconciler: reconciler,
		pipeline:   pipeline,
		logger:     logger,
		metrics:    m,
		profile:    profile,
		stateCache: cache.New(cache.NoExpiration, 0),
	}, nil
}

// Start reconciles the persisted session for the active network and, on success,
// fetches the game state.
func (c *gameClientImpl) Start(ctx context.Context) {
	c.reconcile(ctx, true)
}

// reconcile runs reconciliation, following at most one network switch signalled by the store.
// A pass overtaken by a switch, login or logout is discarded; if no session was established
// meanwhile, reconciliation runs again for the active network. A call skipped because a pass
// is already running relies on that pass to pick up the change.
func (c *gameClientImpl) reconcile(ctx context.Context, allowSwitch bool) {
	switches := 0
	for {
		profile, gen := c.current()
		res := c.reconciler.Reconcile(ctx, profile, allowSwitch)
		if res.Skipped {
			return
		}

		if !c.adopt(gen, res) {
			if active, live, err := c.liveSession(); err == nil {
				c.reconciler.MarkReconciled()
				if err := c.store.Save(summaryOf(live, active), active.Key); err != nil {
					c.logger.Warn("Failed to persist session", "error", err)
				}
				return
			}
			c.logger.Info("Discarding reconciliation overtaken by a session change", "network", profile.Key)
			allowSwitch = false
			continue
		}

		if res.SwitchTo != "" {
			if switches > 0 {
				c.logger.Warn("Ignoring repeated network switch request", "network", res.SwitchTo)
				return
			}
			target, ok := c.registry.Get(res.SwitchTo)
			if !ok {
				c.logger.Warn("Persisted session names an unknown network", "network", res.SwitchTo)
				return
			}
			c.logger.Info("Switching to the persisted session's network", "from", profile.Key, "to", target.Key)
			switches++
			c.teardown(target)
			continue
		}

		if res.State == entity.StateReconciled {
			if _, err := c.Refresh(ctx); err != nil {
				c.logger.Warn("Initial game state fetch failed", "error", err)
			}
		}
		return
	}
}

// adopt installs the kit and session of a finished pass unless the generation moved on.
func (c *gameClientImpl) adopt(gen uint64, res ReconcileResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	if res.SwitchTo == "" {
		c.kit = res.Kit
		c.session = res.Session
	}
	return true
}

// teardown drops the session, the kit and every cached view, and makes profile active.
func (c *gameClientImpl) teardown(profile entity.NetworkProfile) {
	c.mu.Lock()
	c.profile = profile
	c.kit = nil
	c.session = nil
	c.gen++
	c.mu.Unlock()

	c.stateCache.Flush()
	c.reconciler.Reset()
	if err := c.store.SaveNetwork(profile.Key); err != nil {
		c.logger.Warn("Failed to persist network selection", "error", err)
	}
}

func (c *gameClientImpl) currentProfile() entity.NetworkProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profile
}

func (c *gameClientImpl) current() (entity.NetworkProfile, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profile, c.gen
}

func (c *gameClientImpl) liveSession() (entity.NetworkProfile, port.LiveSession, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return c.profile, nil, ErrNotAuthenticated
	}
	return c.profile, c.session, nil
}

// Status implements port.GameClient.
func (c *gameClientImpl) Status() port.SessionStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := port.SessionStatus{
		State:   c.reconciler.State(),
		Network: c.profile.Key,
		ChainID: entity.ChainIDString(c.profile.ChainID),
	}
	if c.session != nil {
		st.Actor = c.session.Actor()
		st.Permission = c.session.Permission()
		st.Endpoint = c.session.Endpoint()
	}
	return st
}

// Networks implements port.GameClient.
func (c *gameClientImpl) Networks() []entity.NetworkProfile {
	return c.registry.All()
}

// SwitchNetwork implements port.GameClient.
func (c *gameClientImpl) SwitchNetwork(ctx context.Context, key entity.NetworkKey) error {
	profile, ok := c.registry.Get(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNetwork, key)
	}
	c.logger.Info("Switching network", "from", c.currentProfile().Key, "to", key)
	c.teardown(profile)
	c.reconcile(ctx, false)
	return nil
}

// Login implements port.GameClient.
func (c *gameClientImpl) Login(ctx context.Context) (port.SessionStatus, error) {
	profile, gen := c.current()

	c.mu.RLock()
	kit := c.kit
	c.mu.RUnlock()

	if kit == nil {
		built, err := c.reconciler.BuildKit(ctx, profile)
		if err != nil {
			return c.Status(), fmt.Errorf("failed to build wallet session kit: %w", err)
		}
		kit = built
	}

	live, err := kit.Login(ctx)
	if err != nil {
		return c.Status(), err
	}
	if live == nil {
		return c.Status(), ErrNotAuthenticated
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		c.logger.Warn("Network changed during login", "network", profile.Key, "actor", live.Actor())
		return c.Status(), ErrSessionChanged
	}
	c.kit = kit
	c.session = live
	c.gen++
	c.mu.Unlock()
	c.reconciler.MarkReconciled()

	if err := c.store.Save(summaryOf(live, profile), profile.Key); err != nil {
		c.logger.Warn("Failed to persist session", "error", err)
	}
	c.logger.Info("Logged in", "actor", live.Actor(), "network", profile.Key)

	if _, err := c.Refresh(ctx); err != nil {
		c.logger.Warn("Game state fetch after login failed", "error", err)
	}
	return c.Status(), nil
}

// Logout implements port.GameClient.
func (c *gameClientImpl) Logout(ctx context.Context) error {
	c.mu.RLock()
	kit, live, profile := c.kit, c.session, c.profile
	c.mu.RUnlock()

	if kit != nil && live != nil {
		if err := kit.Logout(ctx, live); err != nil {
			c.logger.Warn("Wallet kit logout failed", "error", err)
		}
	}
	c.store.Clear()

	c.mu.Lock()
	c.session = nil
	c.gen++
	c.mu.Unlock()
	c.stateCache.Flush()
	c.reconciler.Reset()

	c.logger.Info("Logged out", "network", profile.Key)
	return nil
}

// Snapshot implements port.GameClient.
func (c *gameClientImpl) Snapshot() (*entity.GameState, bool) {
	v, ok := c.stateCache.Get(stateCacheKey)
	if !ok {
		return nil, false
	}
	state, ok := v.(*entity.GameState)
	return state, ok
}

// Refresh implements port.GameClient.
func (c *gameClientImpl) Refresh(ctx context.Context) (*entity.GameState, error) {
	profile, live, err := c.liveSession()
	if err != nil {
		return nil, err
	}
	return c.refreshFor(ctx, profile, live)
}

// refreshFor runs the pipeline for live and caches the result if live is still the
// active session.
func (c *gameClientImpl) refreshFor(ctx context.Context, profile entity.NetworkProfile, live port.LiveSession) (*entity.GameState, error) {
	state, err := c.pipeline.Fetch(ctx, profile, live.Actor())
	if err != nil {
		return nil, err
	}

	// The session may have changed while fetching; a stale result is dropped.
	if _, current, err := c.liveSession(); err != nil || current != live {
		return state, nil
	}
	c.stateCache.Set(stateCacheKey, state, cache.NoExpiration)
	c.stateCache.Set(resourcesCacheKey, state.Resources, cache.NoExpiration)
	return state, nil
}

// WalletBalances implements port.GameClient.
func (c *gameClientImpl) WalletBalances(ctx context.Context) ([]entity.WalletBalance, error) {
	profile, live, err := c.liveSession()
	if err != nil {
		return nil, err
	}
	return c.pipeline.WalletBalances(ctx, profile, live.Actor()), nil
}

// Claim implements port.GameClient. Earnings are the difference between a balance read
// taken right before the transaction and the balances after the follow-up refresh.
func (c *gameClientImpl) Claim(ctx context.Context, hiveID entity.AssetID) (*port.ActionResult, error) {
	profile, live, err := c.liveSession()
	if err != nil {
		return nil, err
	}
	hive, err := hiveID.Uint64()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}

	before, err := c.pipeline.FetchResources(ctx, profile, live.Actor())
	if err != nil {
		c.logger.Warn("Pre-claim balance read failed, using cached balances", "error", err)
		before = c.cachedResources()
	}

	action := c.contractAction(profile.ContractAccount, "claim", live, entity.ClaimData{
		Owner:    live.Actor(),
		HiveItem: hive,
	})
	result, after, err := c.submit(ctx, "claim", profile, live, action)
	if err != nil {
		return nil, err
	}
	if after != nil {
		result.Earnings = ComputeEarnings(before, after.Resources)
	}
	return result, nil
}

// FeedBee implements port.GameClient.
func (c *gameClientImpl) FeedBee(ctx context.Context, beeID entity.AssetID) (*port.ActionResult, error) {
	profile, live, err := c.liveSession()
	if err != nil {
		return nil, err
	}
	bee, err := beeID.Uint64()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	return c.transact(ctx, "feedbee", profile, live, c.contractAction(profile.ContractAccount, "feedbee", live, entity.FeedBeeData{
		Owner: live.Actor(),
		BeeID: bee,
	}))
}

// UpgradeHive implements port.GameClient.
func (c *gameClientImpl) UpgradeHive(ctx context.Context, hiveID entity.AssetID) (*port.ActionResult, error) {
	profile, live, err := c.liveSession()
	if err != nil {
		return nil, err
	}
	hive, err := hiveID.Uint64()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	return c.transact(ctx, "upgradehive", profile, live, c.contractAction(profile.ContractAccount, "upgradehive", live, entity.UpgradeHiveData{
		Owner:  live.Actor(),
		HiveID: hive,
	}))
}

// Unstake implements port.GameClient.
func (c *gameClientImpl) Unstake(ctx context.Context, beeID, hiveID entity.AssetID) (*port.ActionResult, error) {
	profile, live, err := c.liveSession()
	if err != nil {
		return nil, err
	}
	bee, err := beeID.Uint64()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	hive, err := hiveID.Uint64()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	return c.transact(ctx, "unstake", profile, live, c.contractAction(profile.ContractAccount, "unstake", live, entity.UnstakeData{
		Owner:   live.Actor(),
		AssetID: bee,
		HiveID:  hive,
	}))
}

// Stake implements port.GameClient. Staking is an NFT transfer to the game contract whose
// memo names the target hive.
func (c *gameClientImpl) Stake(ctx context.Context, beeIDs []entity.AssetID, hiveID entity.AssetID) (*port.ActionResult, error) {
	profile, live, err := c.liveSession()
	if err != nil {
		return nil, err
	}
	if len(beeIDs) == 0 {
		return nil, fmt.Errorf("%w: no assets to stake", ErrInvalidAction)
	}
	if _, err := hiveID.Uint64(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	ids := make([]uint64, 0, len(beeIDs))
	for _, id := range beeIDs {
		v, err := id.Uint64()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
		}
		ids = append(ids, v)
	}

	return c.transact(ctx, "stake", profile, live, c.contractAction(profile.AssetsContract, "transfer", live, entity.NFTTransferData{
		From:     live.Actor(),
		To:       profile.ContractAccount,
		AssetIDs: ids,
		Memo:     stakeMemoPrefix + string(hiveID),
	}))
}

// Deposit implements port.GameClient.
func (c *gameClientImpl) Deposit(ctx context.Context, symbol string, amount decimal.Decimal) (*port.ActionResult, error) {
	profile, live, err := c.liveSession()
	if err != nil {
		return nil, err
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if !isWalletToken(symbol) {
		return nil, fmt.Errorf("%w: unsupported token %q", ErrInvalidAction, symbol)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: deposit amount must be positive", ErrInvalidAction)
	}

	return c.transact(ctx, "deposit", profile, live, c.contractAction(profile.TokenContract, "transfer", live, entity.TokenTransferData{
		From:     live.Actor(),
		To:       profile.ContractAccount,
		Quantity: utils.FormatQuantity(amount, utils.DefaultTokenPrecision, symbol),
		Memo:     depositMemo,
	}))
}

// Withdraw implements port.GameClient.
func (c *gameClientImpl) Withdraw(ctx context.Context, req port.WithdrawRequest) (*port.ActionResult, error) {
	profile, live, err := c.liveSession()
	if err != nil {
		return nil, err
	}
	amounts := []decimal.Decimal{req.Huny, req.Pln, req.Bwax, req.Rj}
	hasAmount := false
	for _, a := range amounts {
		if a.IsNegative() {
			return nil, fmt.Errorf("%w: withdraw amounts cannot be negative", ErrInvalidAction)
		}
		if a.IsPositive() {
			hasAmount = true
		}
	}
	if !hasAmount {
		return nil, fmt.Errorf("%w: enter at least one withdraw amount", ErrInvalidAction)
	}

	return c.transact(ctx, "withdraw", profile, live, c.contractAction(profile.ContractAccount, "withdraw", live, entity.WithdrawData{
		Owner:      live.Actor(),
		HunyAmount: utils.FormatQuantity(req.Huny, utils.DefaultTokenPrecision, "HUNY"),
		PlnAmount:  utils.FormatQuantity(req.Pln, utils.DefaultTokenPrecision, "PLN"),
		BwaxAmount: utils.FormatQuantity(req.Bwax, utils.DefaultTokenPrecision, "BWAX"),
		RjAmount:   utils.FormatQuantity(req.Rj, utils.DefaultTokenPrecision, "RJ"),
	}))
}

func (c *gameClientImpl) contractAction(account, name string, live port.LiveSession, data any) entity.Action {
	return entity.Action{
		Account: account,
		Name:    name,
		Authorization: []entity.PermissionLevel{{
			Actor:      live.Actor(),
			Permission: live.Permission(),
		}},
		Data: data,
	}
}

// transact sends actions through the live session only, then refreshes the game state.
// Transaction errors are returned unchanged and never retried.
func (c *gameClientImpl) transact(ctx context.Context, name string, profile entity.NetworkProfile, live port.LiveSession, actions ...entity.Action) (*port.ActionResult, error) {
	result, _, err := c.submit(ctx, name, profile, live, actions...)
	return result, err
}

// submit pushes actions through live and refreshes the state of the same session. The
// refreshed state is returned even when the session changed meanwhile and it was not cached.
func (c *gameClientImpl) submit(ctx context.Context, name string, profile entity.NetworkProfile, live port.LiveSession, actions ...entity.Action) (*port.ActionResult, *entity.GameState, error) {
	requestID := uuid.NewString()
	c.logger.Info("Submitting action", "action", name, "requestId", requestID, "actor", live.Actor(), "endpoint", live.Endpoint())

	tx, err := live.Transact(ctx, actions)
	if err != nil {
		c.metrics.ObserveAction(name, "error")
		c.logger.Warn("Action failed", "action", name, "requestId", requestID, "error", err)
		return nil, nil, err
	}
	c.metrics.ObserveAction(name, "success")

	result := &port.ActionResult{RequestID: requestID}
	if tx != nil {
		result.TransactionID = tx.TransactionID
	}
	c.logger.Info("Action submitted", "action", name, "requestId", requestID, "transactionId", result.TransactionID)

	state, err := c.refreshFor(ctx, profile, live)
	if err != nil {
		c.logger.Warn("Refresh after action failed", "action", name, "error", err)
		result.RefreshError = err.Error()
		return result, nil, nil
	}
	return result, state, nil
}

func (c *gameClientImpl) cachedResources() []entity.ResourceBalance {
	v, ok := c.stateCache.Get(resourcesCacheKey)
	if !ok {
		return nil
	}
	resources, _ := v.([]entity.ResourceBalance)
	return resources
}

func isWalletToken(symbol string) bool {
	for _, s := range WalletTokenSymbols {
		if s == symbol {
			return true
		}
	}
	return false
}
