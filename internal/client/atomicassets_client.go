package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"honeyfarmers/internal/app/port"
	"honeyfarmers/internal/domain/entity"
	wire "honeyfarmers/internal/entity"
	"honeyfarmers/internal/pkg/utils"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrAssetNotFound is returned when the indexing API does not know an asset.
var ErrAssetNotFound = errors.New("asset not found")

// atomicAssetsClientImpl is the implementation of port.AssetMetadataClient for the AtomicAssets API.
type atomicAssetsClientImpl struct {
	client  *fasthttp.Client
	timeout time.Duration
	logger  *zap.Logger
	limiter *rate.Limiter
}

// NewAtomicAssetsClient creates a client; limit and burst throttle requests across all API bases.
func NewAtomicAssetsClient(timeout time.Duration, logger *zap.Logger, limit float64, burst int) port.AssetMetadataClient {
	var limiter *rate.Limiter
	if limit > 0 {
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}
	return &atomicAssetsClientImpl{
		client:  &fasthttp.Client{Name: "honeyfarmers"},
		timeout: timeout,
		logger:  logger.Named("AtomicAssetsClient"),
		limiter: limiter,
	}
}

// GetAsset implements port.AssetMetadataClient.
func (c *atomicAssetsClientImpl) GetAsset(ctx context.Context, baseURL string, assetID entity.AssetID) (*entity.AssetMetadata, error) {
	if assetID.IsZero() {
		return nil, fmt.Errorf("empty asset id")
	}
	requestURL := fmt.Sprintf("%s/assets/%s", strings.TrimRight(baseURL, "/"), assetID)

	var envelope wire.AssetResponse
	status, err := c.get(ctx, requestURL, nil, &envelope)
	if status == fasthttp.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, assetID)
	}
	if err != nil {
		return nil, err
	}
	if !envelope.Success || envelope.Data == nil {
		return nil, fmt.Errorf("%w: %s (%s)", ErrAssetNotFound, assetID, envelope.Message)
	}

	meta := toMetadata(*envelope.Data)
	return &meta, nil
}

// ListAssets implements port.AssetMetadataClient.
func (c *atomicAssetsClientImpl) ListAssets(ctx context.Context, baseURL string, query wire.AssetListQuery) ([]entity.AssetMetadata, error) {
	if query.Owner == "" {
		return nil, fmt.Errorf("owner cannot be empty")
	}
	requestURL := strings.TrimRight(baseURL, "/") + "/assets"

	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)
	args.Set("owner", query.Owner)
	if query.CollectionName != "" {
		args.Set("collection_name", query.CollectionName)
	}
	if query.SchemaName != "" {
		args.Set("schema_name", query.SchemaName)
	}
	if query.Page > 0 {
		args.SetUint("page", query.Page)
	}
	if query.Limit > 0 {
		args.SetUint("limit", query.Limit)
	}
	args.Set("order", "asc")
	args.Set("sort", "asset_id")

	var envelope wire.AssetListResponse
	if _, err := c.get(ctx, requestURL, args, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Success {
		return nil, fmt.Errorf("asset listing for %s failed: %s", query.Owner, envelope.Message)
	}

	out := make([]entity.AssetMetadata, 0, len(envelope.Data))
	for _, a := range envelope.Data {
		out = append(out, toMetadata(a))
	}
	c.logger.Debug("Listed assets",
		zap.String("owner", query.Owner),
		zap.Int("page", query.Page),
		zap.Int("count", len(out)))
	return out, nil
}

func (c *atomicAssetsClientImpl) get(ctx context.Context, requestURL string, args *fasthttp.Args, out any) (int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	if args != nil {
		req.URI().SetQueryStringBytes(args.QueryString())
	}
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	c.logger.Debug("Requesting AtomicAssets API", zap.String("url", req.URI().String()))

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			c.logger.Warn("Failed to execute request to AtomicAssets API", zap.String("url", requestURL), zap.Error(err))
			return 0, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			c.logger.Warn("Failed to execute request to AtomicAssets API (with default timeout)", zap.String("url", requestURL), zap.Error(err))
			return 0, fmt.Errorf("failed to execute request to %s with default timeout: %w", requestURL, err)
		}
	}

	rawBody := resp.Body()
	status := resp.StatusCode()
	if status != fasthttp.StatusOK {
		c.logger.Warn("AtomicAssets API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", status),
			zap.ByteString("responseBody", rawBody),
		)
		return status, fmt.Errorf("AtomicAssets API request to %s failed with status %d", requestURL, status)
	}

	if err := json.Unmarshal(rawBody, out); err != nil {
		c.logger.Error("Failed to unmarshal AtomicAssets response",
			zap.String("url", requestURL),
			zap.ByteString("responseBody", rawBody),
			zap.Error(err),
		)
		return status, fmt.Errorf("failed to unmarshal AtomicAssets response from %s: %w", requestURL, err)
	}
	return status, nil
}

// toMetadata flattens an API asset. Asset-level immutable data wins over template data.
func toMetadata(a wire.AssetData) entity.AssetMetadata {
	meta := entity.AssetMetadata{
		AssetID:   entity.AssetID(a.AssetID.String()),
		Name:      a.Name,
		Immutable: map[string]any{},
		Mutable:   map[string]any{},
	}
	if a.Schema != nil {
		meta.SchemaName = a.Schema.SchemaName
	}
	if a.Template != nil {
		if id, err := strconv.ParseInt(a.Template.TemplateID.String(), 10, 64); err == nil {
			meta.TemplateID = id
		}
		for k, v := range a.Template.ImmutableData {
			meta.Immutable[k] = v
		}
	}
	for k, v := range a.ImmutableData {
		meta.Immutable[k] = v
	}
	for k, v := range a.MutableData {
		meta.Mutable[k] = v
	}

	if meta.Name == "" {
		if name, ok := utils.AttrString(a.Data, "name"); ok {
			meta.Name = name
		} else if name, ok := utils.AttrString(meta.Immutable, "name"); ok {
			meta.Name = name
		}
	}
	if img, ok := utils.AttrString(a.Data, "img", "image"); ok {
		meta.Image = img
	} else if img, ok := utils.AttrString(meta.Immutable, "img", "image"); ok {
		meta.Image = img
	}
	return meta
}
