package mock

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	requestgovernor "github.com/opengovern/request-governor"
)

// Canned explorer envelopes returned by ScriptedOperation.
var (
	RateLimitedResponse = &requestgovernor.ExplorerResponse{
		Status:  "0",
		Message: "NOTOK",
		Result:  json.RawMessage(`"Max rate limit reached, please use API Key for higher rate limit"`),
	}
	EmptyResponse = &requestgovernor.ExplorerResponse{
		Status:  "1",
		Message: "OK",
		Result:  json.RawMessage(`[]`),
	}
	SuccessResponse = &requestgovernor.ExplorerResponse{
		Status:  "1",
		Message: "OK",
		Result:  json.RawMessage(`[{"tx":1}]`),
	}
)

// ScriptedOperation simulates an explorer endpoint: it answers with rate-limit envelopes for the
// first RequestsUntilSuccess calls (or forever), then with Success or Empty.
type ScriptedOperation struct {
	RequestsUntilSuccess  int  // How many calls are rate limited before a normal answer
	ShouldRateLimitAlways bool // If true, every call is rate limited
	ReturnEmpty           bool // Answer with an empty result instead of SuccessResponse
	Err                   error

	// OnCall, when set, runs at the start of every call with the 1-based call number.
	// Tests use it to block or to observe dispatch order.
	OnCall func(call int)

	mu        sync.Mutex
	callTimes []time.Time
}

// Operation returns the function to hand to a Governor.
func (m *ScriptedOperation) Operation() requestgovernor.Operation {
	return func(ctx context.Context) (any, error) {
		m.mu.Lock()
		m.callTimes = append(m.callTimes, time.Now())
		call := len(m.callTimes)
		m.mu.Unlock()

		if m.OnCall != nil {
			m.OnCall(call)
		}
		if m.Err != nil {
			return nil, m.Err
		}
		if m.ShouldRateLimitAlways || call <= m.RequestsUntilSuccess {
			return RateLimitedResponse, nil
		}
		if m.ReturnEmpty {
			return EmptyResponse, nil
		}
		return SuccessResponse, nil
	}
}

// Calls returns how many times the operation has been invoked.
func (m *ScriptedOperation) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.callTimes)
}

// CallTimes returns the start time of every invocation, in order.
func (m *ScriptedOperation) CallTimes() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Time(nil), m.callTimes...)
}
