package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"honeyfarmers/internal/app/port"
	wire "honeyfarmers/internal/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// AntelopeClient implements port.ChainClient against one node's /v1/chain API.
type AntelopeClient struct {
	http           *fasthttp.Client
	endpoint       string
	rpcCallTimeout time.Duration
}

// NewAntelopeClient creates a client bound to endpoint.
func NewAntelopeClient(httpClient *fasthttp.Client, endpoint string, rpcCallTimeout time.Duration) *AntelopeClient {
	if httpClient == nil {
		httpClient = &fasthttp.Client{}
	}
	return &AntelopeClient{
		http:           httpClient,
		endpoint:       strings.TrimRight(endpoint, "/"),
		rpcCallTimeout: rpcCallTimeout,
	}
}

// Endpoint returns the node base URL.
func (c *AntelopeClient) Endpoint() string {
	return c.endpoint
}

// GetInfo calls /v1/chain/get_info.
func (c *AntelopeClient) GetInfo(ctx context.Context) (*wire.ChainInfo, error) {
	var info wire.ChainInfo
	if err := c.post(ctx, "/v1/chain/get_info", struct{}{}, &info); err != nil {
		return nil, err
	}
	if info.ChainID == "" {
		return nil, fmt.Errorf("get_info from %s returned no chain_id", c.endpoint)
	}
	return &info, nil
}

// GetTableRows calls /v1/chain/get_table_rows with json=true and decodes the rows into out.
func (c *AntelopeClient) GetTableRows(ctx context.Context, req wire.TableRowsRequest, out any) (bool, error) {
	req.JSON = true
	var resp struct {
		Rows jsoniter.RawMessage `json:"rows"`
		More jsoniter.RawMessage `json:"more"`
	}
	if err := c.post(ctx, "/v1/chain/get_table_rows", req, &resp); err != nil {
		return false, err
	}
	if len(resp.Rows) == 0 || string(resp.Rows) == "null" {
		resp.Rows = jsoniter.RawMessage("[]")
	}
	if err := json.Unmarshal(resp.Rows, out); err != nil {
		return false, fmt.Errorf("failed to decode %s rows from %s: %w", req.Table, c.endpoint, err)
	}
	return moreRows(resp.More), nil
}

// moreRows accepts both the boolean and the next-key string forms of "more".
func moreRows(raw jsoniter.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	switch s {
	case "", "false", "null", `""`:
		return false
	default:
		return true
	}
}

// GetCurrencyBalance calls /v1/chain/get_currency_balance.
func (c *AntelopeClient) GetCurrencyBalance(ctx context.Context, req wire.CurrencyBalanceRequest) ([]string, error) {
	var balances []string
	if err := c.post(ctx, "/v1/chain/get_currency_balance", req, &balances); err != nil {
		return nil, err
	}
	return balances, nil
}

func (c *AntelopeClient) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request for %s: %w", path, err)
	}

	requestURL := c.endpoint + path

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.SetBody(payload)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := ctx.Err(); err != nil {
		return err
	}
	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.http.DoDeadline(req, resp, deadline); err != nil {
			return fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
		}
	} else {
		if err := c.http.DoTimeout(req, resp, c.rpcCallTimeout); err != nil {
			return fmt.Errorf("failed to execute request to %s with default timeout: %w", requestURL, err)
		}
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("request to %s failed with status %d: %s", requestURL, resp.StatusCode(), describeAPIError(rawBody))
	}

	if err := json.Unmarshal(rawBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response from %s: %w", requestURL, err)
	}
	return nil
}

func describeAPIError(body []byte) string {
	var apiErr wire.APIError
	if err := json.Unmarshal(body, &apiErr); err != nil || (apiErr.Message == "" && apiErr.Error.What == "") {
		if len(body) > 256 {
			return string(body[:256])
		}
		return string(body)
	}
	msg := apiErr.Error.What
	if msg == "" {
		msg = apiErr.Message
	}
	if len(apiErr.Error.Details) > 0 && apiErr.Error.Details[0].Message != "" {
		msg += ": " + apiErr.Error.Details[0].Message
	}
	return msg
}

var _ port.ChainClient = (*AntelopeClient)(nil)
