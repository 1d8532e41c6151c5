package domain

import "errors"

// ErrorKind classifies a failure along the taxonomy the estimator uses to
// decide whether a failure is request-scope or provider-scope.
type ErrorKind string

const (
	// KindRequestInvalid marks malformed input; caller error, no retries.
	KindRequestInvalid ErrorKind = "request_invalid"
	// KindMemberNotFound marks an Accumulator source lookup miss; fails the
	// whole request since every provider depends on the member's accumulators.
	KindMemberNotFound ErrorKind = "member_not_found"
	// KindBenefitsNotFound marks a Benefit source miss for one provider query.
	KindBenefitsNotFound ErrorKind = "benefits_not_found"
	// KindRateMissing marks NegotiatedRate.Found == false for one provider.
	KindRateMissing ErrorKind = "rate_missing"
	// KindSourceUnavailable marks a transport/5xx/circuit-open failure.
	KindSourceUnavailable ErrorKind = "source_unavailable"
	// KindAuthExpired marks a 401 from a source that the single-shot
	// refresh+retry did not clear.
	KindAuthExpired ErrorKind = "auth_expired"
	// KindEngineConfig marks an invariant violation inside the engine
	// (e.g. an unknown limit type): provider-level, request proceeds.
	KindEngineConfig ErrorKind = "engine_config"
	// KindCancelled marks a request deadline exceeded.
	KindCancelled ErrorKind = "cancelled"
)

// EstimateError is the sum-typed result the estimator uses in place of bare
// errors, so callers can branch on Kind instead of string-matching messages.
type EstimateError struct {
	Kind ErrorKind
	// Node is set when the error originated inside the calculation engine.
	Node string
	// Source is set when the error originated in an external adapter.
	Source string
	Err    error
}

func (e *EstimateError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *EstimateError) Unwrap() error { return e.Err }

// NewEngineError builds a KindEngineConfig error attributed to a node.
func NewEngineError(node string, err error) *EstimateError {
	return &EstimateError{Kind: KindEngineConfig, Node: node, Err: err}
}

// NewSourceError builds a source-scoped error of the given kind.
func NewSourceError(kind ErrorKind, source string, err error) *EstimateError {
	return &EstimateError{Kind: kind, Source: source, Err: err}
}

// Sentinel errors kept for simple equality checks (errors.Is) where no
// extra attribution is needed.
var (
	// ErrMemberNotFound is returned when the Accumulator source has no
	// record for the requested member.
	ErrMemberNotFound = errors.New("member not found")

	// ErrBenefitsNotFound is returned when the Benefit source has no plan
	// benefits for the requested member/service combination.
	ErrBenefitsNotFound = errors.New("no benefits found for provider")

	// ErrRateMissing is returned when the Rate source has no negotiated
	// rate for a provider/service combination.
	ErrRateMissing = errors.New("no negotiated rate found for provider")

	// ErrNoMatchingBenefit is returned by the Matcher when none of a
	// member's benefits satisfy a provider's network/tier/designation.
	ErrNoMatchingBenefit = errors.New("no benefit matched provider characteristics")

	// ErrUnknownLimitType is returned by N2 when a benefit's limit type is
	// neither dollar nor counter based.
	ErrUnknownLimitType = errors.New("unknown limit type")

	// ErrRequestInvalid is returned when the inbound estimate request
	// fails validation.
	ErrRequestInvalid = errors.New("invalid estimate request")

	// ErrSourceUnavailable is returned by adapters after retries and an
	// open circuit breaker are exhausted.
	ErrSourceUnavailable = errors.New("external source unavailable")

	// ErrAuthExpired is returned by adapters on a 401 that survives the
	// single-shot refresh-and-retry.
	ErrAuthExpired = errors.New("bearer token expired")
)
