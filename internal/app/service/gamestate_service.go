package service

import (
	"context"
	"fmt"
	"time"

	"honeyfarmers/internal/app/port"
	"honeyfarmers/internal/domain/entity"
	wire "honeyfarmers/internal/entity"
	"honeyfarmers/internal/infrastructure/configloader"
	"honeyfarmers/internal/infrastructure/network/fallback"
	"honeyfarmers/internal/pkg/metrics"
	"honeyfarmers/internal/pkg/utils"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	resourcesTable = "resources"
	stakedTable    = "staked"
)

// WalletTokenSymbols are the token balances shown in the wallet view.
var WalletTokenSymbols = []string{"HUNY", "PLN", "BWAX", "RJ"}

// GameStateService runs the read pipeline that builds a GameState for an actor.
// Every network read goes through the fallback executor.
type GameStateService struct {
	chains      port.ChainClientProvider
	metadata    port.AssetMetadataClient
	executor    *fallback.Executor
	logger      port.Logger
	metrics     *metrics.Metrics
	enrichLimit int
	pageSize    int
	maxPages    int
	tableLimit  int
	now         func() time.Time
}

// NewGameStateService creates the pipeline.
func NewGameStateService(
	chains port.ChainClientProvider,
	metadata port.AssetMetadataClient,
	logger port.Logger,
	m *metrics.Metrics,
	cfg *configloader.Config,
) *GameStateService {
	return &GameStateService{
		chains:      chains,
		metadata:    metadata,
		executor:    fallback.NewExecutor(nil, cfg.FallbackTimeout(), logger, m),
		logger:      logger,
		metrics:     m,
		enrichLimit: cfg.Pipeline.EnrichmentConcurrency,
		pageSize:    cfg.Metadata.PageSize,
		maxPages:    cfg.Metadata.MaxPages,
		tableLimit:  cfg.Chain.TableRowLimit,
		now:         time.Now,
	}
}

// Fetch runs the four pipeline stages in order. Resource and staked-table failures abort
// the run; enrichment and owned-asset failures degrade the result and are listed in Errors.
func (s *GameStateService) Fetch(ctx context.Context, profile entity.NetworkProfile, actor string) (*entity.GameState, error) {
	start := s.now()
	state, err := s.fetch(ctx, profile, actor)
	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
	case len(state.Errors) > 0:
		outcome = "partial"
	}
	s.metrics.ObservePipeline(outcome, s.now().Sub(start))
	return state, err
}

func (s *GameStateService) fetch(ctx context.Context, profile entity.NetworkProfile, actor string) (*entity.GameState, error) {
	if actor == "" {
		return nil, ErrNotAuthenticated
	}

	resources, err := s.FetchResources(ctx, profile, actor)
	if err != nil {
		return nil, err
	}

	positions, err := s.FetchStakedPositions(ctx, profile, actor)
	if err != nil {
		return nil, err
	}

	state := &entity.GameState{
		Network:     profile.Key,
		Actor:       actor,
		Resources:   resources,
		StakedHives: positions,
	}

	state.StakedBees = s.FetchStakedAssets(ctx, profile, positions)

	bees, hives, err := s.FetchUnstaked(ctx, profile, actor, positions)
	if err != nil {
		state.Errors = append(state.Errors, err.Error())
	}
	state.UnstakedBees = bees
	state.UnstakedHives = hives
	state.FetchedAt = s.now().UTC()

	s.logger.Info("Game state fetched",
		"network", profile.Key,
		"actor", actor,
		"resources", len(resources),
		"stakedHives", len(positions),
		"stakedBees", len(state.StakedBees),
		"unstakedBees", len(bees),
		"unstakedHives", len(hives),
		"errors", len(state.Errors))
	return state, nil
}

// FetchResources reads the actor's rows of the resources table.
func (s *GameStateService) FetchResources(ctx context.Context, profile entity.NetworkProfile, actor string) ([]entity.ResourceBalance, error) {
	rows, err := fallback.Run(ctx, s.executor.WithEndpoints(profile.Endpoints()), "get_table_rows:"+resourcesTable,
		func(ctx context.Context, endpoint string) ([]wire.ResourceRow, error) {
			client, err := s.chains.GetClient(endpoint)
			if err != nil {
				return nil, err
			}
			var rows []wire.ResourceRow
			_, err = client.GetTableRows(ctx, wire.TableRowsRequest{
				Code:  profile.ContractAccount,
				Scope: actor,
				Table: resourcesTable,
				Limit: s.tableLimit,
			}, &rows)
			return rows, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch resource balances: %w", err)
	}

	balances := make([]entity.ResourceBalance, 0, len(rows))
	for _, row := range rows {
		amount, symbol, err := utils.ParseQuantity(row.Amount.String())
		if err != nil {
			s.logger.Warn("Skipping resource row with unparsable amount", "keyId", row.KeyID, "amount", row.Amount, "error", err)
			continue
		}
		name := row.ResourceName
		if name == "" {
			name = symbol
		}
		balances = append(balances, entity.ResourceBalance{
			KeyID:        row.KeyID.String(),
			Amount:       amount,
			ResourceName: name,
		})
	}
	return balances, nil
}

// FetchStakedPositions reads the staked table and enriches each hive concurrently.
// A hive whose metadata cannot be fetched keeps zero stats.
func (s *GameStateService) FetchStakedPositions(ctx context.Context, profile entity.NetworkProfile, actor string) ([]entity.StakedPosition, error) {
	rows, err := fallback.Run(ctx, s.executor.WithEndpoints(profile.Endpoints()), "get_table_rows:"+stakedTable,
		func(ctx context.Context, endpoint string) ([]wire.StakedRow, error) {
			client, err := s.chains.GetClient(endpoint)
			if err != nil {
				return nil, err
			}
			var rows []wire.StakedRow
			_, err = client.GetTableRows(ctx, wire.TableRowsRequest{
				Code:  profile.ContractAccount,
				Scope: actor,
				Table: stakedTable,
				Limit: s.tableLimit,
			}, &rows)
			return rows, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch staked hives: %w", err)
	}

	positions := make([]entity.StakedPosition, 0, len(rows))
	for _, row := range rows {
		if p, ok := positionFromRow(row); ok {
			positions = append(positions, p)
		}
	}

	eg, egCtx := errgroup.WithContext(ctx)
	if s.enrichLimit > 0 {
		eg.SetLimit(s.enrichLimit)
	}
	for i := range positions {
		eg.Go(func() error {
			meta, err := s.getAsset(egCtx, profile, positions[i].HiveID)
			if err != nil {
				s.logger.Warn("Hive enrichment failed, using zero stats", "hiveId", positions[i].HiveID, "error", err)
				return nil
			}
			applyHiveStats(&positions[i], meta)
			return nil
		})
	}
	_ = eg.Wait()

	return positions, nil
}

func positionFromRow(row wire.StakedRow) (entity.StakedPosition, bool) {
	hiveID := entity.AssetID(row.HiveID.String())
	if hiveID.IsZero() {
		hiveID = entity.AssetID(row.AssetID.String())
	}
	if hiveID.IsZero() {
		return entity.StakedPosition{}, false
	}

	workers := row.WorkerIDs
	if len(workers) == 0 {
		workers = row.StakedItems
	}
	seen := make(map[entity.AssetID]struct{}, len(workers))
	p := entity.StakedPosition{HiveID: hiveID, WorkerBeeIDs: make([]entity.AssetID, 0, len(workers))}
	for _, w := range workers {
		id := entity.AssetID(w.String())
		if id.IsZero() {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		p.WorkerBeeIDs = append(p.WorkerBeeIDs, id)
	}

	if queen := entity.AssetID(row.QueenID.String()); !queen.IsZero() {
		p.QueenBeeID = &queen
	}
	return p, true
}

func applyHiveStats(p *entity.StakedPosition, meta *entity.AssetMetadata) {
	p.Metadata = meta

	if h, ok := utils.AttrInt(meta.Mutable, "health"); ok {
		p.Health = h
	} else if h, ok := utils.AttrInt(meta.Immutable, "health"); ok {
		p.Health = h
	}

	if m, ok := utils.AttrInt(meta.Immutable, "maxSlots", "max_slots", "slots"); ok {
		p.MaxSlots = m
	} else if m, ok := utils.AttrInt(meta.Mutable, "maxSlots", "max_slots", "slots"); ok {
		p.MaxSlots = m
	}

	if a, ok := utils.AttrInt(meta.Mutable, "availableSlots", "available_slots"); ok {
		p.AvailableSlots = a
		return
	}
	free := p.MaxSlots - int64(len(p.Occupants()))
	if free < 0 {
		free = 0
	}
	p.AvailableSlots = free
}

// FetchStakedAssets fetches metadata for every staked bee, one id at a time.
// Failed ids are left out.
func (s *GameStateService) FetchStakedAssets(ctx context.Context, profile entity.NetworkProfile, positions []entity.StakedPosition) []entity.AssetMetadata {
	seen := make(map[entity.AssetID]struct{})
	var ids []entity.AssetID
	for _, p := range positions {
		for _, id := range p.Occupants() {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	assets := make([]entity.AssetMetadata, 0, len(ids))
	for _, id := range ids {
		meta, err := s.getAsset(ctx, profile, id)
		if err != nil {
			s.logger.Debug("Skipping staked asset without metadata", "assetId", id, "error", err)
			continue
		}
		assets = append(assets, *meta)
	}
	return assets
}

// FetchUnstaked lists the actor's owned assets page by page and splits them into bees and
// hives, leaving out anything referenced by a staked position.
func (s *GameStateService) FetchUnstaked(ctx context.Context, profile entity.NetworkProfile, actor string, positions []entity.StakedPosition) ([]entity.UnstakedAsset, []entity.UnstakedAsset, error) {
	staked := make(map[entity.AssetID]struct{})
	for _, p := range positions {
		staked[p.HiveID] = struct{}{}
		for _, id := range p.Occupants() {
			staked[id] = struct{}{}
		}
	}

	bees := make([]entity.UnstakedAsset, 0)
	hives := make([]entity.UnstakedAsset, 0)
	var listErr error

	for page := 1; page <= s.maxPages; page++ {
		query := wire.AssetListQuery{
			Owner:          actor,
			CollectionName: profile.CollectionName,
			Page:           page,
			Limit:          s.pageSize,
		}
		assets, err := fallback.Run(ctx, s.executor.WithEndpoints(profile.NFTAPIBases()), "list_assets",
			func(ctx context.Context, base string) ([]entity.AssetMetadata, error) {
				return s.metadata.ListAssets(ctx, base, query)
			})
		if err != nil {
			listErr = fmt.Errorf("failed to list owned assets (page %d): %w", page, err)
			s.logger.Warn("Owned asset listing incomplete", "actor", actor, "page", page, "error", err)
			break
		}

		for _, meta := range assets {
			if _, isStaked := staked[meta.AssetID]; isStaked {
				continue
			}
			switch kind := ClassifyAsset(meta); kind {
			case entity.AssetKindBee:
				bees = append(bees, entity.UnstakedAsset{AssetID: meta.AssetID, Kind: kind, Metadata: meta})
			case entity.AssetKindHive:
				hives = append(hives, entity.UnstakedAsset{AssetID: meta.AssetID, Kind: kind, Metadata: meta})
			default:
				s.logger.Debug("Owned asset is neither bee nor hive", "assetId", meta.AssetID, "schema", meta.SchemaName)
			}
		}

		if len(assets) < s.pageSize {
			break
		}
		if page == s.maxPages {
			listErr = fmt.Errorf("%w after %d pages", ErrListingTruncated, s.maxPages)
			s.logger.Warn("Owned asset listing truncated", "actor", actor, "pages", s.maxPages, "pageSize", s.pageSize)
		}
	}
	return bees, hives, listErr
}

// WalletBalances reads the actor's token balances concurrently. A token whose balance
// cannot be read is reported as zero.
func (s *GameStateService) WalletBalances(ctx context.Context, profile entity.NetworkProfile, actor string) []entity.WalletBalance {
	out := make([]entity.WalletBalance, len(WalletTokenSymbols))
	exec := s.executor.WithEndpoints(profile.Endpoints())

	var eg errgroup.Group
	for i, symbol := range WalletTokenSymbols {
		out[i] = entity.WalletBalance{Symbol: symbol, Contract: profile.TokenContract, Amount: decimal.Zero}
		eg.Go(func() error {
			raw, err := fallback.Run(ctx, exec, "get_currency_balance:"+symbol,
				func(ctx context.Context, endpoint string) ([]string, error) {
					client, err := s.chains.GetClient(endpoint)
					if err != nil {
						return nil, err
					}
					return client.GetCurrencyBalance(ctx, wire.CurrencyBalanceRequest{
						Code:    profile.TokenContract,
						Account: actor,
						Symbol:  symbol,
					})
				})
			if err != nil {
				s.logger.Warn("Wallet balance unavailable, reporting zero", "symbol", symbol, "error", err)
				return nil
			}
			if len(raw) == 0 {
				return nil
			}
			amount, _, err := utils.ParseQuantity(raw[0])
			if err != nil {
				s.logger.Warn("Unparsable wallet balance, reporting zero", "symbol", symbol, "raw", raw[0], "error", err)
				return nil
			}
			out[i].Amount = amount
			return nil
		})
	}
	_ = eg.Wait()
	return out
}

func (s *GameStateService) getAsset(ctx context.Context, profile entity.NetworkProfile, id entity.AssetID) (*entity.AssetMetadata, error) {
	return fallback.Run(ctx, s.executor.WithEndpoints(profile.NFTAPIBases()), "get_asset",
		func(ctx context.Context, base string) (*entity.AssetMetadata, error) {
			return s.metadata.GetAsset(ctx, base, id)
		})
}
