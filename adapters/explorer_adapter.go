// explorer_adapter.go
// -------------------
// This adapter integrates with BSCScan/Etherscan style blockchain explorer APIs.
//
// Key Points:
// - Free keys are limited to a few requests per second; the limit is enforced by a Governor
//   shared by every caller, not by this adapter.
// - Throttling is reported as HTTP 200 with {"status":"0","result":"Max rate limit reached"}.
//   The Governor's ExplorerClassifier recognises that envelope, so Operation returns the decoded
//   envelope untouched. A genuine HTTP 429 is returned as an error wrapping ErrRateLimited.
// - An optional x/time/rate limiter paces this adapter's own calls, e.g. when several adapters
//   with different keys share one governor.
package adapters

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	requestgovernor "github.com/opengovern/request-governor"
	"github.com/opengovern/request-governor/internal/timeparse"
)

const (
	BSCScanBaseURL   = "https://api.bscscan.com/api"
	EtherscanBaseURL = "https://api.etherscan.io/api"

	explorerDefaultTimeout = 30 * time.Second
)

// Scheduler is the part of a Governor the adapters need.
type Scheduler interface {
	Schedule(ctx context.Context, op requestgovernor.Operation, opts requestgovernor.Options) (any, error)
}

type ExplorerAdapter struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Limiter    *rate.Limiter // Optional client-side pacing
}

// Transaction is one entry of an account txlist result.
type Transaction struct {
	BlockNumber string `json:"blockNumber"`
	TimeStamp   string `json:"timeStamp"`
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	IsError     string `json:"isError"`
}

func NewBSCScanAdapter(apiKey string) *ExplorerAdapter {
	return &ExplorerAdapter{
		BaseURL:    BSCScanBaseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: explorerDefaultTimeout},
	}
}

// Query performs a single GET against the explorer and decodes its envelope.
func (e *ExplorerAdapter) Query(ctx context.Context, params url.Values) (*requestgovernor.ExplorerResponse, error) {
	if e.Limiter != nil {
		if err := e.Limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "waiting for explorer client limiter")
		}
	}

	q := url.Values{}
	for k, vals := range params {
		q[k] = append([]string(nil), vals...)
	}
	if e.APIKey != "" {
		q.Set("apikey", e.APIKey)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, e.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")

	client := e.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading explorer response")
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.Wrapf(requestgovernor.ErrRateLimited, "explorer returned 429 (retry-after %v)",
			timeparse.SecondsToDuration(resp.Header.Get("Retry-After")))
	}
	if resp.StatusCode >= 400 {
		return nil, errors.Errorf("explorer returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var env requestgovernor.ExplorerResponse
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(err, "decoding explorer response")
	}
	return &env, nil
}

// Operation wraps Query for submission to a Governor.
func (e *ExplorerAdapter) Operation(params url.Values) requestgovernor.Operation {
	return func(ctx context.Context) (any, error) {
		return e.Query(ctx, params)
	}
}

// Options derives governor options from the query, keyed by endpoint and parameters.
func (e *ExplorerAdapter) Options(params url.Values) requestgovernor.Options {
	flat := map[string]string{"endpoint": e.BaseURL}
	for k := range params {
		flat[k] = params.Get(k)
	}
	return requestgovernor.Options{Params: flat}
}

// TxList returns the normal transactions of an address. An address with no history yields an
// empty slice and no error.
func (e *ExplorerAdapter) TxList(ctx context.Context, s Scheduler, address string) ([]Transaction, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "txlist")
	params.Set("address", address)
	params.Set("sort", "asc")

	env, err := e.schedule(ctx, s, params)
	if err != nil {
		return nil, err
	}
	if env.ResultLen() <= 0 {
		if env.Status == "0" && !isEmptyMessage(env) {
			return nil, errors.Errorf("explorer txlist for %s: %s %s", address, env.Message, env.ResultText())
		}
		return []Transaction{}, nil
	}

	var txs []Transaction
	if err := json.Unmarshal(env.Result, &txs); err != nil {
		return nil, errors.Wrap(err, "decoding txlist result")
	}
	return txs, nil
}

// Balance returns the native-coin balance of an address in wei, as the decimal string the explorer sends.
func (e *ExplorerAdapter) Balance(ctx context.Context, s Scheduler, address string) (string, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "balance")
	params.Set("address", address)
	params.Set("tag", "latest")

	env, err := e.schedule(ctx, s, params)
	if err != nil {
		return "", err
	}
	if env.Status != "1" {
		return "", errors.Errorf("explorer balance for %s: %s %s", address, env.Message, env.ResultText())
	}
	return env.ResultText(), nil
}

func (e *ExplorerAdapter) schedule(ctx context.Context, s Scheduler, params url.Values) (*requestgovernor.ExplorerResponse, error) {
	value, err := s.Schedule(ctx, e.Operation(params), e.Options(params))
	if err != nil {
		return nil, err
	}
	env, ok := value.(*requestgovernor.ExplorerResponse)
	if !ok || env == nil {
		return nil, errors.Errorf("unexpected explorer result type %T", value)
	}
	return env, nil
}

func isEmptyMessage(env *requestgovernor.ExplorerResponse) bool {
	return requestgovernor.ExplorerClassifier.Classify(env) == requestgovernor.OutcomeEmpty
}
