// classifier.go
// -------------
// ExplorerClassifier recognises the conventions of BSCScan/Etherscan style explorer APIs, which
// report throttling as an HTTP 200 response carrying status "0" and a "rate limit" message, and
// report empty lookups as either an empty result array or a "No transactions found" message.
//
// It understands plain strings, raw JSON bodies, ExplorerResponse values, decoded JSON maps and
// NormalizedResponse values. Anything else is treated as a success.
package requestgovernor

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
)

var (
	rateLimitMarkers = []string{"rate limit", "too many requests"}
	emptyMarkers     = []string{"no records found", "no transactions found"}
)

// ExplorerClassifier is the classifier used when neither the request nor the governor supplies one.
var ExplorerClassifier Classifier = ClassifierFunc(classifyExplorer)

func classifyExplorer(value any) Outcome {
	switch v := value.(type) {
	case nil:
		return OutcomeSuccess
	case string:
		if containsAny(v, rateLimitMarkers) {
			return OutcomeRateLimited
		}
		return OutcomeSuccess
	case []byte:
		return classifyBody(v)
	case json.RawMessage:
		return classifyBody(v)
	case ExplorerResponse:
		return classifyEnvelope(v.Status, v.Message+" "+v.ResultText(), v.ResultLen())
	case *ExplorerResponse:
		if v == nil {
			return OutcomeSuccess
		}
		return classifyEnvelope(v.Status, v.Message+" "+v.ResultText(), v.ResultLen())
	case map[string]any:
		return classifyMap(v)
	case *NormalizedResponse:
		if v == nil {
			return OutcomeSuccess
		}
		switch v.StatusCode {
		case http.StatusTooManyRequests:
			return OutcomeRateLimited
		case http.StatusNoContent:
			return OutcomeEmpty
		}
		return classifyBody(v.Data)
	}
	return OutcomeSuccess
}

func classifyBody(body []byte) Outcome {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return OutcomeSuccess
	}
	if trimmed[0] == '{' {
		var env ExplorerResponse
		if err := json.Unmarshal(trimmed, &env); err == nil && env.Status != "" {
			return classifyEnvelope(env.Status, env.Message+" "+env.ResultText(), env.ResultLen())
		}
	}
	return classifyExplorer(string(trimmed))
}

func classifyMap(m map[string]any) Outcome {
	status, _ := m["status"].(string)
	text, _ := m["message"].(string)
	resultLen := -1
	switch r := m["result"].(type) {
	case string:
		text += " " + r
	case []any:
		resultLen = len(r)
	}
	return classifyEnvelope(status, text, resultLen)
}

// classifyEnvelope applies the explorer rules to an already extracted status, message text and
// result length (-1 when the result is not an array).
func classifyEnvelope(status, text string, resultLen int) Outcome {
	switch status {
	case "0":
		if containsAny(text, rateLimitMarkers) {
			return OutcomeRateLimited
		}
		if containsAny(text, emptyMarkers) {
			return OutcomeEmpty
		}
	case "1":
		if resultLen == 0 {
			return OutcomeEmpty
		}
	}
	return OutcomeSuccess
}

func containsAny(s string, markers []string) bool {
	s = strings.ToLower(s)
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
