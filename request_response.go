package requestgovernor

import "encoding/json"

// NormalizedRequest is the provider-neutral description of an HTTP call.
type NormalizedRequest struct {
	Method   string
	Endpoint string
	Headers  map[string]string
	Body     []byte
}

// NormalizedResponse is the provider-neutral result of an HTTP call.
type NormalizedResponse struct {
	StatusCode int
	Headers    map[string]string
	Data       []byte
}

// ExplorerResponse is the envelope returned by BSCScan/Etherscan style explorer APIs. Errors,
// including throttling, come back with HTTP 200 and Status "0".
type ExplorerResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// ResultText returns Result when the explorer sent a plain string instead of an array,
// which is how it reports most errors.
func (r *ExplorerResponse) ResultText() string {
	var s string
	if len(r.Result) > 0 && json.Unmarshal(r.Result, &s) == nil {
		return s
	}
	return ""
}

// ResultLen returns the number of elements when Result is an array, or -1 otherwise.
func (r *ExplorerResponse) ResultLen() int {
	var items []json.RawMessage
	if len(r.Result) > 0 && json.Unmarshal(r.Result, &items) == nil {
		return len(items)
	}
	return -1
}
