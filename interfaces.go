package requestgovernor

import "context"

// Operation performs the actual upstream call. The context carries the submitter's values but is
// never cancelled by the governor.
type Operation func(ctx context.Context) (any, error)

// Outcome is the classification of a value returned by an Operation.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRateLimited
	OutcomeEmpty
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeEmpty:
		return "empty"
	default:
		return "success"
	}
}

// Classifier inspects a resolved value and decides whether it is a success, an empty result,
// or a rate-limit signal disguised as a normal response.
type Classifier interface {
	Classify(value any) Outcome
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(value any) Outcome

func (f ClassifierFunc) Classify(value any) Outcome {
	return f(value)
}
