package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	wire "honeyfarmers/internal/entity"
	"honeyfarmers/internal/infrastructure/configloader"
	"honeyfarmers/internal/pkg/logger"
)

func newNode(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestAntelopeClient_GetInfo(t *testing.T) {
	srv := newNode(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/chain/get_info" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		io.WriteString(w, `{"server_version":"abc","chain_id":"f16b1833c747c43682f4386fca9cbb327929334a762755ebec17f6f23c9b8a12","head_block_num":42}`)
	})

	c := NewAntelopeClient(nil, srv.URL+"/", time.Second)
	info, err := c.GetInfo(context.Background())
	if err != nil {
		t.Fatalf("GetInfo: %v", err)
	}
	if !strings.HasPrefix(info.ChainID, "f16b18") || info.HeadBlockNum != 42 {
		t.Fatalf("unexpected info %+v", info)
	}
	if c.Endpoint() != srv.URL {
		t.Fatalf("expected trailing slash trimmed, got %q", c.Endpoint())
	}
}

func TestAntelopeClient_GetTableRows(t *testing.T) {
	srv := newNode(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req["code"] != "farmforhoney" || req["scope"] != "farmer.wam" || req["table"] != "resources" || req["json"] != true {
			t.Errorf("unexpected body %v", req)
		}
		io.WriteString(w, `{"rows":[{"key_id":1,"amount":"10.0000 HNY","resource_name":"HNY"},{"key_id":"2","amount":3.5,"resource_name":"PLN"}],"more":false}`)
	})

	c := NewAntelopeClient(nil, srv.URL, time.Second)
	var rows []wire.ResourceRow
	more, err := c.GetTableRows(context.Background(), wire.TableRowsRequest{
		Code: "farmforhoney", Scope: "farmer.wam", Table: "resources", Limit: 100,
	}, &rows)
	if err != nil {
		t.Fatalf("GetTableRows: %v", err)
	}
	if more {
		t.Fatalf("expected more=false")
	}
	if len(rows) != 2 || rows[0].KeyID != "1" || rows[0].Amount != "10.0000 HNY" || rows[1].Amount != "3.5" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestAntelopeClient_MoreAsNextKey(t *testing.T) {
	srv := newNode(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"rows":[],"more":true,"next_key":"7"}`)
	})
	c := NewAntelopeClient(nil, srv.URL, time.Second)
	var rows []wire.StakedRow
	more, err := c.GetTableRows(context.Background(), wire.TableRowsRequest{Table: "staked"}, &rows)
	if err != nil {
		t.Fatalf("GetTableRows: %v", err)
	}
	if !more || len(rows) != 0 {
		t.Fatalf("unexpected result more=%v rows=%v", more, rows)
	}
}

func TestAntelopeClient_ErrorEnvelope(t *testing.T) {
	srv := newNode(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"code":500,"message":"Internal Service Error","error":{"code":3060003,"name":"contract_table_query_exception","what":"Contract Table Query Exception","details":[{"message":"Table staked is not specified in the ABI"}]}}`)
	})
	c := NewAntelopeClient(nil, srv.URL, time.Second)
	var rows []wire.StakedRow
	_, err := c.GetTableRows(context.Background(), wire.TableRowsRequest{Table: "staked"}, &rows)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "Table staked is not specified") {
		t.Fatalf("expected node message in error, got %v", err)
	}
}

func TestAntelopeClient_GetCurrencyBalance(t *testing.T) {
	srv := newNode(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `["12.5000 HUNY"]`)
	})
	c := NewAntelopeClient(nil, srv.URL, time.Second)
	got, err := c.GetCurrencyBalance(context.Background(), wire.CurrencyBalanceRequest{Code: "farminghoney", Account: "farmer.wam", Symbol: "HUNY"})
	if err != nil {
		t.Fatalf("GetCurrencyBalance: %v", err)
	}
	if len(got) != 1 || got[0] != "12.5000 HUNY" {
		t.Fatalf("unexpected balances %v", got)
	}
}

func TestAntelopeClientProvider_CachesPerEndpoint(t *testing.T) {
	cfg := &configloader.Config{}
	cfg.Chain.RequestTimeoutMs = 1000
	p := NewAntelopeClientProvider(cfg, logger.NewNopLogger())

	a, err := p.GetClient("https://wax.greymass.com/")
	if err != nil {
		t.Fatalf("GetClient: %v", err)
	}
	b, _ := p.GetClient("https://wax.greymass.com")
	if a != b {
		t.Fatalf("expected cached client for the same endpoint")
	}
	if _, err := p.GetClient("wax.greymass.com"); err == nil {
		t.Fatalf("expected error for endpoint without scheme")
	}
}
