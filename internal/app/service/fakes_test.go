package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"honeyfarmers/internal/app/port"
	"honeyfarmers/internal/domain/entity"
	wire "honeyfarmers/internal/entity"
	"honeyfarmers/internal/infrastructure/configloader"
	networkdefinition "honeyfarmers/internal/infrastructure/network/definition"
	"honeyfarmers/internal/pkg/logger"
)

var errUnreachable = errors.New("connection refused")

// memKV is an in-memory port.KeyValueStore.
type memKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string]string)}
}

func (m *memKV) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memKV) Keys(prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// fakeSession is a port.LiveSession recording submitted actions.
type fakeSession struct {
	actor      string
	permission string
	chainID    string
	endpoint   string

	mu       sync.Mutex
	actions  [][]entity.Action
	txErr    error
	onSubmit func()
}

func newFakeSession(actor string) *fakeSession {
	return &fakeSession{
		actor:      actor,
		permission: "active",
		chainID:    entity.ChainIDString(testMainnetChain),
		endpoint:   networkdefinition.WaxMainnet.PrimaryEndpoint,
	}
}

func (s *fakeSession) Actor() string      { return s.actor }
func (s *fakeSession) Permission() string { return s.permission }
func (s *fakeSession) ChainID() string    { return s.chainID }
func (s *fakeSession) Endpoint() string   { return s.endpoint }

func (s *fakeSession) Transact(_ context.Context, actions []entity.Action) (*entity.TransactResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, actions)
	if s.txErr != nil {
		return nil, s.txErr
	}
	if s.onSubmit != nil {
		s.onSubmit()
	}
	return &entity.TransactResult{TransactionID: "a1b2c3"}, nil
}

func (s *fakeSession) submitted() [][]entity.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]entity.Action(nil), s.actions...)
}

// fakeKit is a port.SessionKit with scripted restore and login results.
type fakeKit struct {
	mu sync.Mutex

	// restoreFor answers restores of a persisted summary; blind answers Restore(nil).
	restoreFor func(summary entity.SessionSummary) (port.LiveSession, error)
	blind      port.LiveSession
	blindErr   error
	login      port.LiveSession
	loginErr   error

	restoreCalls []*entity.SessionSummary
	logouts      int
}

func (k *fakeKit) Restore(_ context.Context, summary *entity.SessionSummary) (port.LiveSession, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.restoreCalls = append(k.restoreCalls, summary)
	if summary == nil {
		if k.blindErr != nil {
			return nil, k.blindErr
		}
		return k.blind, nil
	}
	if k.restoreFor == nil {
		return nil, nil
	}
	return k.restoreFor(*summary)
}

func (k *fakeKit) Login(context.Context) (port.LiveSession, error) {
	return k.login, k.loginErr
}

func (k *fakeKit) Logout(context.Context, port.LiveSession) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.logouts++
	return nil
}

// kitFactory returns a factory handing out kit, failing for the listed endpoints.
func kitFactory(kit port.SessionKit, failing ...string) (port.SessionKitFactory, *[]string) {
	var mu sync.Mutex
	var tried []string
	return func(_ context.Context, _ entity.NetworkProfile, endpoint string) (port.SessionKit, error) {
		mu.Lock()
		tried = append(tried, endpoint)
		mu.Unlock()
		for _, f := range failing {
			if f == endpoint {
				return nil, errUnreachable
			}
		}
		return kit, nil
	}, &tried
}

// fakeChain serves table rows and balances per endpoint.
type fakeChain struct {
	mu sync.Mutex

	// tables maps table name to JSON rows.
	tables   map[string]string
	balances map[string]string
	down     map[string]bool
	calls    map[string]int
	// onTable runs before rows are served, outside the lock.
	onTable  func(table string)
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		tables:   make(map[string]string),
		balances: make(map[string]string),
		down:     make(map[string]bool),
		calls:    make(map[string]int),
	}
}

func (f *fakeChain) setTable(table, rows string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[table] = rows
}

func (f *fakeChain) GetClient(endpoint string) (port.ChainClient, error) {
	return &fakeChainClient{chain: f, endpoint: endpoint}, nil
}

type fakeChainClient struct {
	chain    *fakeChain
	endpoint string
}

func (c *fakeChainClient) Endpoint() string { return c.endpoint }

func (c *fakeChainClient) reach(op string) error {
	c.chain.mu.Lock()
	defer c.chain.mu.Unlock()
	c.chain.calls[op+"@"+c.endpoint]++
	if c.chain.down[c.endpoint] {
		return errUnreachable
	}
	return nil
}

func (c *fakeChainClient) GetInfo(context.Context) (*wire.ChainInfo, error) {
	if err := c.reach("get_info"); err != nil {
		return nil, err
	}
	return &wire.ChainInfo{ChainID: entity.ChainIDString(testMainnetChain)}, nil
}

func (c *fakeChainClient) GetTableRows(_ context.Context, req wire.TableRowsRequest, out any) (bool, error) {
	if err := c.reach(req.Table); err != nil {
		return false, err
	}
	c.chain.mu.Lock()
	hook := c.chain.onTable
	c.chain.mu.Unlock()
	if hook != nil {
		hook(req.Table)
	}
	c.chain.mu.Lock()
	rows, ok := c.chain.tables[req.Table]
	c.chain.mu.Unlock()
	if !ok {
		rows = "[]"
	}
	return false, json.Unmarshal([]byte(rows), out)
}

func (c *fakeChainClient) GetCurrencyBalance(_ context.Context, req wire.CurrencyBalanceRequest) ([]string, error) {
	if err := c.reach("balance:" + req.Symbol); err != nil {
		return nil, err
	}
	c.chain.mu.Lock()
	defer c.chain.mu.Unlock()
	if b, ok := c.chain.balances[req.Symbol]; ok {
		return []string{b}, nil
	}
	return []string{}, nil
}

// fakeMetadata is a port.AssetMetadataClient over a fixed asset set.
type fakeMetadata struct {
	mu      sync.Mutex
	assets  map[entity.AssetID]entity.AssetMetadata
	failing map[entity.AssetID]bool
	owned   []entity.AssetMetadata
	listErr error
}

func newFakeMetadata() *fakeMetadata {
	return &fakeMetadata{
		assets:  make(map[entity.AssetID]entity.AssetMetadata),
		failing: make(map[entity.AssetID]bool),
	}
}

func (f *fakeMetadata) add(meta entity.AssetMetadata) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assets[meta.AssetID] = meta
}

func (f *fakeMetadata) GetAsset(_ context.Context, _ string, id entity.AssetID) (*entity.AssetMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[id] {
		return nil, errUnreachable
	}
	meta, ok := f.assets[id]
	if !ok {
		return nil, errors.New("asset not found")
	}
	return &meta, nil
}

func (f *fakeMetadata) ListAssets(_ context.Context, _ string, query wire.AssetListQuery) ([]entity.AssetMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	start := (query.Page - 1) * query.Limit
	if start >= len(f.owned) {
		return nil, nil
	}
	end := start + query.Limit
	if end > len(f.owned) {
		end = len(f.owned)
	}
	return append([]entity.AssetMetadata(nil), f.owned[start:end]...), nil
}

func testConfig() *configloader.Config {
	cfg := &configloader.Config{}
	cfg.Fallback.TimeoutMs = 500
	cfg.Fallback.SessionKitTimeoutMs = 500
	cfg.Chain.TableRowLimit = 100
	cfg.Metadata.PageSize = 2
	cfg.Metadata.MaxPages = 5
	cfg.Pipeline.EnrichmentConcurrency = 2
	return cfg
}

func newTestPipeline(chain *fakeChain, meta *fakeMetadata) *GameStateService {
	return NewGameStateService(chain, meta, logger.NewNopLogger(), nil, testConfig())
}

var (
	_ port.KeyValueStore       = (*memKV)(nil)
	_ port.LiveSession         = (*fakeSession)(nil)
	_ port.SessionKit          = (*fakeKit)(nil)
	_ port.ChainClientProvider = (*fakeChain)(nil)
	_ port.AssetMetadataClient = (*fakeMetadata)(nil)
)
