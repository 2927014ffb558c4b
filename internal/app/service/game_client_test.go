package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"honeyfarmers/internal/app/port"
	"honeyfarmers/internal/domain/entity"
	networkdefinition "honeyfarmers/internal/infrastructure/network/definition"
	"honeyfarmers/internal/pkg/logger"

	"github.com/shopspring/decimal"
)

func newTestGameClient(t *testing.T, kv *memKV, kit port.SessionKit, chain *fakeChain, meta *fakeMetadata) *gameClientImpl {
	t.Helper()
	factory, _ := kitFactory(kit)
	return newTestGameClientWithFactory(t, kv, factory, chain, meta)
}

func newTestGameClientWithFactory(t *testing.T, kv *memKV, factory port.SessionKitFactory, chain *fakeChain, meta *fakeMetadata) *gameClientImpl {
	t.Helper()
	nop := logger.NewNopLogger()
	store := NewSessionStore(kv, nop)
	reconciler := NewReconciler(store, factory, 500*time.Millisecond, nop, nil)

	gc, err := NewGameClient(networkdefinition.NewRegistry(nop, nil), store, reconciler, newTestPipeline(chain, meta), entity.Mainnet, nop, nil)
	if err != nil {
		t.Fatalf("NewGameClient: %v", err)
	}
	return gc.(*gameClientImpl)
}

// startedClient returns a client reconciled with a blind-restored session for farmer.wam.
func startedClient(t *testing.T, chain *fakeChain) (*gameClientImpl, *fakeSession, *fakeKit, *memKV) {
	t.Helper()
	kv := newMemKV()
	live := newFakeSession("farmer.wam")
	kit := &fakeKit{blind: live}
	c := newTestGameClient(t, kv, kit, chain, newFakeMetadata())
	c.Start(context.Background())
	if st := c.Status(); st.State != entity.StateReconciled || st.Actor != "farmer.wam" {
		t.Fatalf("expected a reconciled session, got %+v", st)
	}
	return c, live, kit, kv
}

func TestGameClient_StartWithoutSession(t *testing.T) {
	c := newTestGameClient(t, newMemKV(), &fakeKit{}, newFakeChain(), newFakeMetadata())
	c.Start(context.Background())

	st := c.Status()
	if st.State != entity.StateFailed || st.Actor != "" {
		t.Fatalf("expected failed without actor, got %+v", st)
	}
	if st.ChainID != entity.ChainIDString(networkdefinition.WaxMainnet.ChainID) {
		t.Fatalf("unexpected chain id %q", st.ChainID)
	}
	if _, ok := c.Snapshot(); ok {
		t.Fatalf("no snapshot expected before login")
	}
	if _, err := c.Claim(context.Background(), "1"); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := c.WalletBalances(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestGameClient_StartRestoresAndRefreshes(t *testing.T) {
	chain := newFakeChain()
	chain.setTable("resources", testResourceRows)
	c, _, _, kv := startedClient(t, chain)

	state, ok := c.Snapshot()
	if !ok || state.Actor != "farmer.wam" || len(state.Resources) != 2 {
		t.Fatalf("expected a fetched snapshot, got %+v", state)
	}
	store := NewSessionStore(kv, logger.NewNopLogger())
	if loaded := store.Load(entity.Mainnet, false); loaded.Summary == nil || loaded.Summary.Actor != "farmer.wam" {
		t.Fatalf("expected the blind-restored session to be persisted, got %+v", loaded.Summary)
	}
}

func TestGameClient_LoginAfterFailedReconcile(t *testing.T) {
	kv := newMemKV()
	live := newFakeSession("farmer.wam")
	kit := &fakeKit{login: live}
	c := newTestGameClient(t, kv, kit, newFakeChain(), newFakeMetadata())
	c.Start(context.Background())

	st, err := c.Login(context.Background())
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if st.State != entity.StateReconciled || st.Actor != "farmer.wam" || st.Permission != "active" {
		t.Fatalf("unexpected status %+v", st)
	}
	if _, ok := c.Snapshot(); !ok {
		t.Fatalf("login should fetch the game state")
	}

	loaded := NewSessionStore(kv, logger.NewNopLogger()).Load(entity.Mainnet, false)
	if loaded.Summary == nil || loaded.Summary.ChainID != testMainnetChain {
		t.Fatalf("expected the login to be persisted, got %+v", loaded.Summary)
	}
}

func TestGameClient_LoginRejected(t *testing.T) {
	kit := &fakeKit{loginErr: errors.New("user cancelled")}
	c := newTestGameClient(t, newMemKV(), kit, newFakeChain(), newFakeMetadata())

	if _, err := c.Login(context.Background()); err == nil || err.Error() != "user cancelled" {
		t.Fatalf("expected the wallet error verbatim, got %v", err)
	}
	if c.Status().Actor != "" {
		t.Fatalf("no session expected after a rejected login")
	}
}

func TestGameClient_ClaimReportsEarnings(t *testing.T) {
	chain := newFakeChain()
	chain.setTable("resources", `[{"key_id": 1, "amount": "10.0000 HNY", "resource_name": "HNY"}]`)
	c, live, _, _ := startedClient(t, chain)
	live.onSubmit = func() {
		chain.setTable("resources", `[{"key_id": 1, "amount": "12.5000 HNY", "resource_name": "HNY"}]`)
	}

	res, err := c.Claim(context.Background(), "1")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if res.TransactionID != "a1b2c3" || res.RequestID == "" || res.RefreshError != "" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(res.Earnings) != 1 || res.Earnings[0].ResourceName != "HNY" || !res.Earnings[0].Amount.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("expected 2.5 HNY earned, got %+v", res.Earnings)
	}

	submitted := live.submitted()
	if len(submitted) != 1 || len(submitted[0]) != 1 {
		t.Fatalf("expected one single-action transaction, got %v", submitted)
	}
	action := submitted[0][0]
	data, ok := action.Data.(entity.ClaimData)
	if action.Account != "farmforhoney" || action.Name != "claim" || !ok || data.Owner != "farmer.wam" || data.HiveItem != 1 {
		t.Fatalf("unexpected claim action %+v", action)
	}
	if action.Authorization[0].Actor != "farmer.wam" || action.Authorization[0].Permission != "active" {
		t.Fatalf("unexpected authorization %+v", action.Authorization)
	}

	state, _ := c.Snapshot()
	if !state.Resources[0].Amount.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("expected the snapshot to be refreshed, got %+v", state.Resources)
	}
}

func TestGameClient_TransactionErrorPassesThrough(t *testing.T) {
	c, live, _, _ := startedClient(t, newFakeChain())
	contractErr := errors.New("assertion failure with message: bee is not hungry")
	live.txErr = contractErr

	if _, err := c.FeedBee(context.Background(), "101"); err != contractErr {
		t.Fatalf("expected the wallet error verbatim, got %v", err)
	}
	if n := len(live.submitted()); n != 1 {
		t.Fatalf("failed actions must not be retried, got %d submissions", n)
	}
}

func TestGameClient_RefreshFailureAfterAction(t *testing.T) {
	chain := newFakeChain()
	c, live, _, _ := startedClient(t, chain)
	live.onSubmit = func() {
		chain.mu.Lock()
		defer chain.mu.Unlock()
		for _, ep := range networkdefinition.WaxMainnet.Endpoints() {
			chain.down[ep] = true
		}
	}

	res, err := c.UpgradeHive(context.Background(), "7")
	if err != nil {
		t.Fatalf("UpgradeHive: %v", err)
	}
	if res.TransactionID == "" || res.RefreshError == "" {
		t.Fatalf("expected a submitted action with a refresh error, got %+v", res)
	}
}

func TestGameClient_ActionPayloads(t *testing.T) {
	c, live, _, _ := startedClient(t, newFakeChain())
	ctx := context.Background()

	if _, err := c.Unstake(ctx, "101", "7"); err != nil {
		t.Fatalf("Unstake: %v", err)
	}
	if _, err := c.Stake(ctx, []entity.AssetID{"201", "202"}, "7"); err != nil {
		t.Fatalf("Stake: %v", err)
	}
	if _, err := c.Deposit(ctx, "pln", decimal.RequireFromString("3")); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if _, err := c.Withdraw(ctx, port.WithdrawRequest{Huny: decimal.RequireFromString("1.5")}); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}

	submitted := live.submitted()
	if len(submitted) != 4 {
		t.Fatalf("expected 4 transactions, got %d", len(submitted))
	}

	unstake := submitted[0][0]
	if u, ok := unstake.Data.(entity.UnstakeData); unstake.Name != "unstake" || !ok || u.AssetID != 101 || u.HiveID != 7 {
		t.Fatalf("unexpected unstake %+v", unstake)
	}

	stake := submitted[1][0]
	s, ok := stake.Data.(entity.NFTTransferData)
	if stake.Account != "atomicassets" || stake.Name != "transfer" || !ok {
		t.Fatalf("unexpected stake %+v", stake)
	}
	if s.To != "farmforhoney" || s.Memo != "stakebees:7" || len(s.AssetIDs) != 2 || s.AssetIDs[1] != 202 {
		t.Fatalf("unexpected stake transfer %+v", s)
	}

	deposit := submitted[2][0]
	if d, ok := deposit.Data.(entity.TokenTransferData); deposit.Account != "farminghoney" || !ok || d.Quantity != "3.0000 PLN" || d.Memo != "deposit" {
		t.Fatalf("unexpected deposit %+v", deposit)
	}

	withdraw := submitted[3][0]
	w, ok := withdraw.Data.(entity.WithdrawData)
	if withdraw.Name != "withdraw" || !ok {
		t.Fatalf("unexpected withdraw %+v", withdraw)
	}
	if w.HunyAmount != "1.5000 HUNY" || w.PlnAmount != "0.0000 PLN" || w.BwaxAmount != "0.0000 BWAX" || w.RjAmount != "0.0000 RJ" {
		t.Fatalf("unexpected withdraw amounts %+v", w)
	}
}

func TestGameClient_ActionValidation(t *testing.T) {
	c, live, _, _ := startedClient(t, newFakeChain())
	ctx := context.Background()

	cases := []struct {
		name string
		call func() error
	}{
		{"non numeric id", func() error { _, err := c.Claim(ctx, "abc"); return err }},
		{"empty stake", func() error { _, err := c.Stake(ctx, nil, "7"); return err }},
		{"unknown token", func() error { _, err := c.Deposit(ctx, "WAX", decimal.NewFromInt(1)); return err }},
		{"zero deposit", func() error { _, err := c.Deposit(ctx, "HUNY", decimal.Zero); return err }},
		{"empty withdraw", func() error { _, err := c.Withdraw(ctx, port.WithdrawRequest{}); return err }},
		{"negative withdraw", func() error {
			_, err := c.Withdraw(ctx, port.WithdrawRequest{Huny: decimal.NewFromInt(1), Rj: decimal.NewFromInt(-1)})
			return err
		}},
	}
	for _, tc := range cases {
		if err := tc.call(); !errors.Is(err, ErrInvalidAction) {
			t.Fatalf("%s: expected ErrInvalidAction, got %v", tc.name, err)
		}
	}
	if n := len(live.submitted()); n != 0 {
		t.Fatalf("invalid actions must not be submitted, got %d", n)
	}
}

func TestGameClient_SwitchNetwork(t *testing.T) {
	c, _, _, kv := startedClient(t, newFakeChain())
	ctx := context.Background()

	if err := c.SwitchNetwork(ctx, "devnet"); !errors.Is(err, ErrUnknownNetwork) {
		t.Fatalf("expected ErrUnknownNetwork, got %v", err)
	}

	if err := c.SwitchNetwork(ctx, entity.Testnet); err != nil {
		t.Fatalf("SwitchNetwork: %v", err)
	}
	st := c.Status()
	if st.Network != entity.Testnet || st.ChainID != entity.ChainIDString(networkdefinition.WaxTestnet.ChainID) {
		t.Fatalf("unexpected status after switch %+v", st)
	}
	if raw, ok, _ := kv.Get(entity.NetworkStorageKey); !ok || raw != "testnet" {
		t.Fatalf("expected the selection to be persisted, got %q", raw)
	}
	if st.State != entity.StateUninitialized || st.Actor != "" {
		t.Fatalf("a mainnet session must not carry over to testnet, got %+v", st)
	}
	if _, ok := c.Snapshot(); ok {
		t.Fatalf("state from the previous network must not survive a switch")
	}

	if err := c.SwitchNetwork(ctx, entity.Mainnet); err != nil {
		t.Fatalf("SwitchNetwork back: %v", err)
	}
	if st := c.Status(); st.State != entity.StateReconciled || st.Actor != "farmer.wam" {
		t.Fatalf("expected the mainnet session to be restored, got %+v", st)
	}
}

func TestGameClient_StartFollowsPersistedNetwork(t *testing.T) {
	kv := newMemKV()
	store := NewSessionStore(kv, logger.NewNopLogger())
	_ = store.Save(entity.SessionSummary{Actor: "tester.wam", Permission: "active", ChainID: networkdefinition.WaxTestnet.ChainID}, entity.Testnet)

	live := newFakeSession("tester.wam")
	kit := &fakeKit{restoreFor: func(entity.SessionSummary) (port.LiveSession, error) { return live, nil }}
	c := newTestGameClient(t, kv, kit, newFakeChain(), newFakeMetadata())
	c.Start(context.Background())

	st := c.Status()
	if st.Network != entity.Testnet || st.State != entity.StateReconciled || st.Actor != "tester.wam" {
		t.Fatalf("expected a reconciled testnet session, got %+v", st)
	}
}

func TestGameClient_Logout(t *testing.T) {
	c, _, kit, kv := startedClient(t, newFakeChain())

	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if kit.logouts != 1 {
		t.Fatalf("expected the kit to be logged out once, got %d", kit.logouts)
	}
	if st := c.Status(); st.Actor != "" || st.State != entity.StateUninitialized {
		t.Fatalf("unexpected status after logout %+v", st)
	}
	if _, ok := c.Snapshot(); ok {
		t.Fatalf("snapshot must be dropped on logout")
	}
	if _, ok, _ := kv.Get(entity.SessionStorageKey); ok {
		t.Fatalf("session record must be deleted on logout")
	}
}

// gatedFactory hands out kit, holding its first call until release is closed.
func gatedFactory(kit port.SessionKit) (factory port.SessionKitFactory, entered, release chan struct{}) {
	entered = make(chan struct{})
	release = make(chan struct{})
	var once sync.Once
	factory = func(context.Context, entity.NetworkProfile, string) (port.SessionKit, error) {
		first := false
		once.Do(func() {
			first = true
			close(entered)
		})
		if first {
			<-release
		}
		return kit, nil
	}
	return factory, entered, release
}

func TestGameClient_SwitchDuringStartDiscardsOldNetworkSession(t *testing.T) {
	kv := newMemKV()
	kit := &fakeKit{blind: newFakeSession("farmer.wam")}
	factory, entered, release := gatedFactory(kit)
	c := newTestGameClientWithFactory(t, kv, factory, newFakeChain(), newFakeMetadata())
	ctx := context.Background()

	started := make(chan struct{})
	go func() {
		defer close(started)
		c.Start(ctx)
	}()

	<-entered
	if err := c.SwitchNetwork(ctx, entity.Testnet); err != nil {
		t.Fatalf("SwitchNetwork: %v", err)
	}
	close(release)
	<-started

	st := c.Status()
	if st.Network != entity.Testnet || st.ChainID != entity.ChainIDString(networkdefinition.WaxTestnet.ChainID) {
		t.Fatalf("expected testnet to stay active, got %+v", st)
	}
	if st.Actor != "" || st.Endpoint != "" || st.State == entity.StateReconciled {
		t.Fatalf("the mainnet session must not be adopted on testnet, got %+v", st)
	}
	if _, ok := c.Snapshot(); ok {
		t.Fatalf("no testnet state expected from a mainnet session")
	}
	if raw, ok, _ := kv.Get(entity.NetworkStorageKey); !ok || raw != "testnet" {
		t.Fatalf("expected testnet to be persisted, got %q", raw)
	}
}

func TestGameClient_LoginDuringStartKeepsLoggedInSession(t *testing.T) {
	kv := newMemKV()
	kit := &fakeKit{blind: newFakeSession("farmer.wam"), login: newFakeSession("player.wam")}
	factory, entered, release := gatedFactory(kit)
	c := newTestGameClientWithFactory(t, kv, factory, newFakeChain(), newFakeMetadata())
	ctx := context.Background()

	started := make(chan struct{})
	go func() {
		defer close(started)
		c.Start(ctx)
	}()

	<-entered
	if _, err := c.Login(ctx); err != nil {
		t.Fatalf("Login: %v", err)
	}
	close(release)
	<-started

	if st := c.Status(); st.State != entity.StateReconciled || st.Actor != "player.wam" {
		t.Fatalf("expected the logged-in session to win, got %+v", st)
	}
	loaded := NewSessionStore(kv, logger.NewNopLogger()).Load(entity.Mainnet, false)
	if loaded.Summary == nil || loaded.Summary.Actor != "player.wam" {
		t.Fatalf("expected the logged-in session to stay persisted, got %+v", loaded.Summary)
	}
}

func TestGameClient_LoginOvertakenBySwitch(t *testing.T) {
	c := newTestGameClient(t, newMemKV(), nil, newFakeChain(), newFakeMetadata())
	switched := false
	kit := &switchingKit{
		fakeKit: fakeKit{login: newFakeSession("player.wam")},
		onLogin: func() {
			if !switched {
				switched = true
				c.teardown(networkdefinition.WaxTestnet)
			}
		},
	}
	c.mu.Lock()
	c.kit = kit
	c.mu.Unlock()

	if _, err := c.Login(context.Background()); !errors.Is(err, ErrSessionChanged) {
		t.Fatalf("expected ErrSessionChanged, got %v", err)
	}
	if st := c.Status(); st.Actor != "" || st.Network != entity.Testnet {
		t.Fatalf("a mainnet login must not land on testnet, got %+v", st)
	}
}

// switchingKit runs onLogin before completing a login.
type switchingKit struct {
	fakeKit
	onLogin func()
}

func (k *switchingKit) Login(ctx context.Context) (port.LiveSession, error) {
	k.onLogin()
	return k.fakeKit.Login(ctx)
}

func TestGameClient_ClaimEarningsWhenSessionChangesDuringRefresh(t *testing.T) {
	chain := newFakeChain()
	chain.setTable("resources", `[{"key_id": 1, "amount": "10.0000 HNY", "resource_name": "HNY"}]`)
	c, live, _, _ := startedClient(t, chain)
	live.onSubmit = func() {
		chain.setTable("resources", `[{"key_id": 1, "amount": "12.5000 HNY", "resource_name": "HNY"}]`)
	}

	reads := 0
	chain.mu.Lock()
	chain.onTable = func(table string) {
		if table != "resources" {
			return
		}
		reads++
		// The second read is the refresh after the claim.
		if reads == 2 {
			c.mu.Lock()
			c.session = newFakeSession("other.wam")
			c.mu.Unlock()
		}
	}
	chain.mu.Unlock()

	res, err := c.Claim(context.Background(), "1")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if res.RefreshError != "" {
		t.Fatalf("unexpected refresh error %q", res.RefreshError)
	}
	if len(res.Earnings) != 1 || !res.Earnings[0].Amount.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("expected 2.5 HNY earned, got %+v", res.Earnings)
	}
	if state, ok := c.Snapshot(); !ok || !state.Resources[0].Amount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("a refresh for a replaced session must not be cached, got %+v", state)
	}
}
