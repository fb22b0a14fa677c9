package adapters

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	requestgovernor "github.com/opengovern/request-governor"
)

func testGovernor(t *testing.T) *requestgovernor.Governor {
	t.Helper()
	cfg := requestgovernor.DefaultConfig()
	cfg.RequestInterval = time.Millisecond
	cfg.SlidingWindow = 20 * time.Millisecond
	cfg.MaxRequestsPerWindow = 5
	cfg.BackoffBase = 5 * time.Millisecond
	cfg.BackoffJitter = 0
	g, err := requestgovernor.New(cfg)
	require.NoError(t, err)
	t.Cleanup(g.Close)
	return g
}

func TestExplorerAdapter_TxListRetriesThrottledEnvelope(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "account", r.URL.Query().Get("module"))
		assert.Equal(t, "txlist", r.URL.Query().Get("action"))
		assert.Equal(t, "secret", r.URL.Query().Get("apikey"))
		if hits.Add(1) == 1 {
			fmt.Fprint(w, `{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`)
			return
		}
		fmt.Fprint(w, `{"status":"1","message":"OK","result":[{"hash":"0xabc","from":"0x1","to":"0x2","value":"10"}]}`)
	}))
	defer srv.Close()

	g := testGovernor(t)
	explorer := &ExplorerAdapter{BaseURL: srv.URL, APIKey: "secret", HTTPClient: srv.Client()}

	txs, err := explorer.TxList(context.Background(), g, "0x1")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "0xabc", txs[0].Hash)
	assert.Equal(t, int32(2), hits.Load())

	// The second lookup is served from the governor's cache.
	_, err = explorer.TxList(context.Background(), g, "0x1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, uint64(1), g.GetMetrics().CacheHits)
}

func TestExplorerAdapter_TxListNoTransactions(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"0","message":"No transactions found","result":[]}`)
	}))
	defer srv.Close()

	g := testGovernor(t)
	explorer := &ExplorerAdapter{BaseURL: srv.URL, HTTPClient: srv.Client()}
	txs, err := explorer.TxList(context.Background(), g, "0xdead")
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Equal(t, uint64(1), g.GetMetrics().EmptyResults)
}

func TestExplorerAdapter_HTTP429IsRateLimited(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	explorer := &ExplorerAdapter{BaseURL: srv.URL, HTTPClient: srv.Client()}
	_, err := explorer.Query(context.Background(), url.Values{"module": {"account"}})
	assert.True(t, errors.Is(err, requestgovernor.ErrRateLimited), "got %v", err)
}

func TestExplorerAdapter_BalanceAndErrors(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("address") {
		case "0xgood":
			fmt.Fprint(w, `{"status":"1","message":"OK","result":"1000000000000000000"}`)
		case "0xbad":
			fmt.Fprint(w, `{"status":"0","message":"NOTOK","result":"Error! Invalid address format"}`)
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	g := testGovernor(t)
	explorer := &ExplorerAdapter{BaseURL: srv.URL, HTTPClient: srv.Client(), Limiter: rate.NewLimiter(rate.Inf, 1)}

	balance, err := explorer.Balance(context.Background(), g, "0xgood")
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", balance)

	_, err = explorer.Balance(context.Background(), g, "0xbad")
	assert.ErrorContains(t, err, "Invalid address format")
	_, hasStack := err.(interface{ StackTrace() errors.StackTrace })
	assert.True(t, hasStack)

	_, err = explorer.Balance(context.Background(), g, "0xboom")
	assert.ErrorContains(t, err, "status 500")
	_, hasStack = err.(interface{ StackTrace() errors.StackTrace })
	assert.True(t, hasStack, "adapter errors should carry a stack trace")
	assert.Equal(t, uint64(1), g.GetMetrics().FailedRequests)
}

func TestExplorerAdapter_Options(t *testing.T) {
	t.Parallel()
	explorer := NewBSCScanAdapter("key")
	opts := explorer.Options(url.Values{"module": {"account"}, "address": {"0x1"}})
	assert.Equal(t, map[string]string{"endpoint": BSCScanBaseURL, "module": "account", "address": "0x1"}, opts.Params)
	assert.False(t, opts.SkipCache)
}
