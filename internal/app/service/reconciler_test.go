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
)

func newTestReconciler(kv *memKV, factory port.SessionKitFactory) (*Reconciler, *SessionStore) {
	store := NewSessionStore(kv, logger.NewNopLogger())
	return NewReconciler(store, factory, 500*time.Millisecond, logger.NewNopLogger(), nil), store
}

func TestReconciler_RestoresPersistedSession(t *testing.T) {
	kv := newMemKV()
	live := newFakeSession("farmer.wam")
	kit := &fakeKit{restoreFor: func(s entity.SessionSummary) (port.LiveSession, error) {
		if s.Actor != "farmer.wam" {
			t.Fatalf("unexpected restore of %q", s.Actor)
		}
		return live, nil
	}}
	factory, _ := kitFactory(kit)
	r, store := newTestReconciler(kv, factory)

	if err := store.Save(entity.SessionSummary{Actor: "farmer.wam", Permission: "active", ChainID: testMainnetChain}, entity.Mainnet); err != nil {
		t.Fatalf("Save: %v", err)
	}

	res := r.Reconcile(context.Background(), networkdefinition.WaxMainnet, true)
	if res.State != entity.StateReconciled || res.Session != live {
		t.Fatalf("expected reconciled session, got %+v", res)
	}
	if r.State() != entity.StateReconciled {
		t.Fatalf("expected state reconciled, got %s", r.State())
	}
	if len(kit.restoreCalls) != 1 {
		t.Fatalf("expected a single targeted restore, got %d calls", len(kit.restoreCalls))
	}
}

func TestReconciler_ActorMismatchFallsBackToBlindRestore(t *testing.T) {
	kv := newMemKV()
	other := newFakeSession("other.wam")
	kit := &fakeKit{
		restoreFor: func(entity.SessionSummary) (port.LiveSession, error) { return other, nil },
		blind:      other,
	}
	factory, _ := kitFactory(kit)
	r, store := newTestReconciler(kv, factory)

	_ = store.Save(entity.SessionSummary{Actor: "farmer.wam", Permission: "active", ChainID: testMainnetChain}, entity.Mainnet)
	_ = kv.Set(entity.WalletKitChainKey("abc", "session"), "stale")

	res := r.Reconcile(context.Background(), networkdefinition.WaxMainnet, true)
	if res.State != entity.StateReconciled || res.Session != other {
		t.Fatalf("expected blind restore to reconcile, got %+v", res)
	}
	if len(kit.restoreCalls) != 2 || kit.restoreCalls[1] != nil {
		t.Fatalf("expected targeted then blind restore, got %v", kit.restoreCalls)
	}

	loaded := store.Load(entity.Mainnet, false)
	if loaded.Summary == nil || loaded.Summary.Actor != "other.wam" {
		t.Fatalf("expected the restored session to be persisted, got %+v", loaded.Summary)
	}
	if _, ok, _ := kv.Get(entity.WalletKitChainKey("abc", "session")); ok {
		t.Fatalf("expected chain scoped kit storage to be purged")
	}
}

func TestReconciler_ChainMismatchSignalsSwitch(t *testing.T) {
	kv := newMemKV()
	kit := &fakeKit{}
	factory, tried := kitFactory(kit)
	r, store := newTestReconciler(kv, factory)

	testnetSummary := entity.SessionSummary{Actor: "farmer.wam", Permission: "active", ChainID: networkdefinition.WaxTestnet.ChainID}
	_ = store.Save(testnetSummary, entity.Testnet)

	res := r.Reconcile(context.Background(), networkdefinition.WaxMainnet, true)
	if res.SwitchTo != entity.Testnet {
		t.Fatalf("expected switch to testnet, got %+v", res)
	}
	if res.State != entity.StateUninitialized {
		t.Fatalf("expected uninitialized, got %s", res.State)
	}
	if len(*tried) != 0 {
		t.Fatalf("no kit should be built before switching, tried %v", *tried)
	}
	if loaded := store.Load(entity.Testnet, false); loaded.Summary == nil {
		t.Fatalf("the persisted record must survive the switch")
	}
}

func TestReconciler_NoPersistedSessionAndNothingToRestore(t *testing.T) {
	kv := newMemKV()
	kit := &fakeKit{}
	factory, _ := kitFactory(kit)
	r, _ := newTestReconciler(kv, factory)

	res := r.Reconcile(context.Background(), networkdefinition.WaxMainnet, true)
	if res.State != entity.StateFailed {
		t.Fatalf("expected failed, got %s", res.State)
	}
	if res.Kit != kit {
		t.Fatalf("the built kit must be kept for an explicit login")
	}
}

func TestReconciler_KitFallsBackAcrossEndpoints(t *testing.T) {
	kv := newMemKV()
	live := newFakeSession("farmer.wam")
	kit := &fakeKit{blind: live}
	profile := networkdefinition.WaxMainnet
	factory, tried := kitFactory(kit, profile.PrimaryEndpoint)
	r, _ := newTestReconciler(kv, factory)

	res := r.Reconcile(context.Background(), profile, true)
	if res.State != entity.StateReconciled {
		t.Fatalf("expected reconciled, got %s", res.State)
	}
	want := profile.Endpoints()[:2]
	if len(*tried) != 2 || (*tried)[0] != want[0] || (*tried)[1] != want[1] {
		t.Fatalf("expected endpoints %v to be tried, got %v", want, *tried)
	}
}

func TestReconciler_KitBuildFailure(t *testing.T) {
	kv := newMemKV()
	profile := networkdefinition.WaxMainnet
	factory, tried := kitFactory(&fakeKit{}, profile.Endpoints()...)
	r, _ := newTestReconciler(kv, factory)

	res := r.Reconcile(context.Background(), profile, true)
	if res.State != entity.StateFailed || res.Kit != nil {
		t.Fatalf("expected failure without kit, got %+v", res)
	}
	if len(*tried) != len(profile.Endpoints()) {
		t.Fatalf("expected every endpoint to be tried, got %v", *tried)
	}
}

type blockingKit struct {
	fakeKit
	entered chan struct{}
	release chan struct{}
}

func (k *blockingKit) Restore(ctx context.Context, summary *entity.SessionSummary) (port.LiveSession, error) {
	close(k.entered)
	<-k.release
	return k.fakeKit.Restore(ctx, summary)
}

func TestReconciler_ConcurrentCallIsSkipped(t *testing.T) {
	kv := newMemKV()
	kit := &blockingKit{
		fakeKit: fakeKit{blind: newFakeSession("farmer.wam")},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	factory, _ := kitFactory(kit)
	r, _ := newTestReconciler(kv, factory)

	var wg sync.WaitGroup
	var first ReconcileResult
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = r.Reconcile(context.Background(), networkdefinition.WaxMainnet, true)
	}()

	<-kit.entered
	if r.State() != entity.StateInitializing {
		t.Fatalf("expected initializing during a pass, got %s", r.State())
	}
	second := r.Reconcile(context.Background(), networkdefinition.WaxMainnet, true)
	if !second.Skipped {
		t.Fatalf("expected the concurrent call to be skipped, got %+v", second)
	}
	r.Reset()
	if r.State() != entity.StateInitializing {
		t.Fatalf("reset must not interrupt a running pass")
	}

	close(kit.release)
	wg.Wait()
	if first.State != entity.StateReconciled {
		t.Fatalf("expected the first pass to reconcile, got %s", first.State)
	}
}

func TestReconciler_BlindRestoreError(t *testing.T) {
	kv := newMemKV()
	kit := &fakeKit{blindErr: errors.New("wallet locked")}
	factory, _ := kitFactory(kit)
	r, store := newTestReconciler(kv, factory)

	res := r.Reconcile(context.Background(), networkdefinition.WaxMainnet, true)
	if res.State != entity.StateFailed {
		t.Fatalf("expected failed, got %s", res.State)
	}
	if loaded := store.Load(entity.Mainnet, false); loaded.Summary != nil {
		t.Fatalf("nothing should be persisted, got %+v", loaded.Summary)
	}
}

func TestReconciler_ChainMismatchWithoutSwitchKeepsRecord(t *testing.T) {
	kv := newMemKV()
	factory, tried := kitFactory(&fakeKit{})
	r, store := newTestReconciler(kv, factory)

	_ = store.Save(entity.SessionSummary{Actor: "farmer.wam", Permission: "active", ChainID: testMainnetChain}, entity.Mainnet)
	_ = kv.Set(entity.WalletKitSessionKey, "kit-cache")
	_ = kv.Set(entity.WalletKitChainKey("abc", "session"), "stale")

	res := r.Reconcile(context.Background(), networkdefinition.WaxTestnet, false)
	if res.State != entity.StateUninitialized || res.SwitchTo != "" {
		t.Fatalf("expected uninitialized without switch, got %+v", res)
	}
	if len(*tried) != 0 {
		t.Fatalf("no kit should be built, tried %v", *tried)
	}
	if loaded := store.Load(entity.Mainnet, false); loaded.Summary == nil {
		t.Fatalf("the mainnet record must be kept")
	}
	if _, ok, _ := kv.Get(entity.WalletKitSessionKey); !ok {
		t.Fatalf("the kit's own session cache must be preserved")
	}
	if _, ok, _ := kv.Get(entity.WalletKitChainKey("abc", "session")); ok {
		t.Fatalf("chain scoped kit storage must be purged")
	}
}
