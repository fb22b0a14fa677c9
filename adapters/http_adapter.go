// http_adapter.go
// ---------------
// HTTPAdapter is a provider-neutral adapter for JSON APIs that signal throttling with a real
// HTTP 429. It returns NormalizedResponse values; the governor's ExplorerClassifier treats a
// 429 as rate limited and a 204 as an empty result.
//
// Authentication is delegated to an optional oauth2.TokenSource, which covers static bearer
// tokens (oauth2.StaticTokenSource) as well as refreshing client-credential flows.
package adapters

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	requestgovernor "github.com/opengovern/request-governor"
)

type HTTPAdapter struct {
	BaseURL     string
	TokenSource oauth2.TokenSource
	HTTPClient  *http.Client
}

func (h *HTTPAdapter) client() *http.Client {
	base := h.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: explorerDefaultTimeout}
	}
	if h.TokenSource == nil {
		return base
	}
	return &http.Client{
		Transport: &oauth2.Transport{Source: h.TokenSource, Base: base.Transport},
		Timeout:   base.Timeout,
	}
}

func (h *HTTPAdapter) ExecuteRequest(ctx context.Context, req *requestgovernor.NormalizedRequest) (*requestgovernor.NormalizedResponse, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, h.BaseURL+req.Endpoint, bytes.NewReader(req.Body))
	if err != nil {
		return nil, err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if httpReq.Header.Get("Content-Type") == "" && len(req.Body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client().Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	headers := make(map[string]string)
	for k, vals := range resp.Header {
		if len(vals) > 0 {
			headers[strings.ToLower(k)] = vals[0]
		}
	}

	return &requestgovernor.NormalizedResponse{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Data:       data,
	}, nil
}

// Operation wraps ExecuteRequest for submission to a Governor.
func (h *HTTPAdapter) Operation(req *requestgovernor.NormalizedRequest) requestgovernor.Operation {
	return func(ctx context.Context) (any, error) {
		return h.ExecuteRequest(ctx, req)
	}
}

// Options keys the cache by method and endpoint. Requests with a body are never cached.
func (h *HTTPAdapter) Options(req *requestgovernor.NormalizedRequest) requestgovernor.Options {
	if len(req.Body) > 0 {
		return requestgovernor.Options{SkipCache: true}
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	return requestgovernor.Options{CacheKey: method + " " + h.BaseURL + req.Endpoint}
}
