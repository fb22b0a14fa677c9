package requestgovernor

import "github.com/pkg/errors"

var (
	// ErrRateLimited marks a request the upstream API throttled. Operations may return an error
	// wrapping it when their transport sees a real 429; the governor returns it (wrapped) once the
	// attempt budget is spent.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrGovernorClosed is returned for requests submitted to, or still queued in, a closed governor.
	ErrGovernorClosed = errors.New("request governor is closed")

	// ErrInvalidConfig wraps every Config validation failure.
	ErrInvalidConfig = errors.New("invalid governor config")
)
