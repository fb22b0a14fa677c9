package requestgovernor

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Options tune a single submission.
type Options struct {
	// CacheKey names the result for memoization. When empty the key is derived from Params.
	CacheKey string
	// SkipCache bypasses both the cache lookup and storing the result.
	SkipCache bool
	// Params are the request parameters (e.g. module, action, address). They only feed the
	// derived cache key; the governor never inspects them otherwise.
	Params map[string]string
	// Classifier overrides the governor's classifier for this request.
	Classifier Classifier
}

// effectiveCacheKey returns CacheKey, or the JSON form of Params. An empty result disables caching.
func (o Options) effectiveCacheKey() string {
	if o.CacheKey != "" {
		return o.CacheKey
	}
	if len(o.Params) == 0 {
		return ""
	}
	// encoding/json sorts map keys, so equal Params always derive the same key.
	data, err := json.Marshal(o.Params)
	if err != nil {
		return ""
	}
	return "params:" + string(data)
}

// request is one unit of work owned by the governor until its Pending settles.
type request struct {
	id          string
	ctx         context.Context
	operation   Operation
	cacheKey    string
	skipCache   bool
	classifier  Classifier
	submittedAt time.Time
	attempts    int
	pending     *Pending
}

// Pending is the caller's handle on a submitted request. It settles exactly once.
type Pending struct {
	id    string
	done  chan struct{}
	once  sync.Once
	value any
	err   error
}

func newPending(id string) *Pending {
	return &Pending{id: id, done: make(chan struct{})}
}

func (p *Pending) settle(value any, err error) {
	p.once.Do(func() {
		p.value, p.err = value, err
		close(p.done)
	})
}

// ID returns the identifier assigned at submission.
func (p *Pending) ID() string {
	return p.id
}

// Done is closed once the request has a final value or error.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Result blocks until the request settles.
func (p *Pending) Result() (any, error) {
	<-p.done
	return p.value, p.err
}

// Wait blocks until the request settles or ctx ends. Giving up on the wait does not cancel
// the request.
func (p *Pending) Wait(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		return p.value, p.err
	default:
	}
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
