package oracle

import (
	"context"
	"errors"
	"fmt"

	apperrors "restaurant-agent/internal/common/errors"
)

// FailureKind is the error taxonomy of a failed oracle call.
type FailureKind string

const (
	FailureClassification FailureKind = "classification"
	FailureUpstream       FailureKind = "upstream"
	FailureUnexpected     FailureKind = "unexpected"
)

// Failure describes why no label was produced. For upstream failures Reason
// holds the provider's human-readable message when one could be extracted.
type Failure struct {
	Kind   FailureKind
	Reason string
	Err    error
}

// Result is either a label from the closed vocabulary or a failure.
type Result struct {
	Label   string
	Failure *Failure
}

func (r Result) OK() bool { return r.Failure == nil }

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s failure: %v", f.Kind, f.Err)
	}
	return fmt.Sprintf("%s failure: %s", f.Kind, f.Reason)
}

func (f *Failure) Unwrap() error { return f.Err }

func labelResult(label string) Result {
	return Result{Label: label}
}

func failureResult(kind FailureKind, reason string, err error) Result {
	return Result{Failure: &Failure{Kind: kind, Reason: reason, Err: err}}
}

// FailureOf sorts an error into the taxonomy. Provider message parsing
// happens here and nowhere else.
func FailureOf(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	switch {
	case errors.Is(err, ErrEmptyCompletion):
		return &Failure{Kind: FailureClassification, Err: err}
	case errors.Is(err, ErrUpstream), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		msg, _ := apperrors.ExtractUpstreamMessage(err.Error())
		return &Failure{Kind: FailureUpstream, Reason: msg, Err: err}
	default:
		return &Failure{Kind: FailureUnexpected, Err: err}
	}
}
