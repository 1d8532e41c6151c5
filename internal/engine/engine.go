package engine

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"

	"github.com/DuckDHD/costshare/internal/domain"
)

// Engine runs Calculation Records through the fixed node graph described in
// §4.1.3 and selects the worst-case candidate for a provider.
type Engine struct {
	// CandidateConcurrency bounds how many of a single HighestMemberPay
	// call's candidates are evaluated in parallel. Zero means unbounded.
	CandidateConcurrency int
}

// New returns an Engine with the given per-call candidate concurrency.
func New(candidateConcurrency int) *Engine {
	return &Engine{CandidateConcurrency: candidateConcurrency}
}

// Evaluate runs one candidate benefit through the graph, starting at N1,
// and returns the terminal Record.
func (e *Engine) Evaluate(rate domain.NegotiatedRate, billed decimal.Decimal, sel domain.SelectedBenefit) (*domain.Record, error) {
	effective := rate.EffectiveAmount(billed)
	r := BuildRecord(effective, sel)
	return n1Coverage(r)
}

// candidateResult pairs an evaluated Record with the index of its source
// candidate, so HighestMemberPay can break ties by lowest index.
type candidateResult struct {
	index  int
	record *domain.Record
	err    error
}

// BestCandidate is the winning Record from a HighestMemberPay call, paired
// with the index (and benefit) of the candidate that produced it, so a
// caller can attribute coverage/accumulator fields to the same candidate
// the settled numbers came from.
type BestCandidate struct {
	Index     int
	Selected  domain.SelectedBenefit
	Record    *domain.Record
}

// HighestMemberPay runs each candidate independently — in parallel, bounded
// by CandidateConcurrency — and returns the candidate with the maximum
// member_pays. Ties are broken by lowest index. A node-level error on one
// candidate excludes only that candidate from the maximum; it is recorded
// but does not fail the others.
func (e *Engine) HighestMemberPay(ctx context.Context, rate domain.NegotiatedRate, billed decimal.Decimal, candidates []domain.SelectedBenefit) (BestCandidate, error) {
	if len(candidates) == 0 {
		return BestCandidate{}, domain.NewEngineError("HighestMemberPay", domain.ErrNoMatchingBenefit)
	}

	results := make([]candidateResult, len(candidates))
	limit := e.CandidateConcurrency
	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}
	sem := semaphore.NewWeighted(int64(limit))

	done := make(chan struct{}, len(candidates))
	for i, c := range candidates {
		i, c := i, c
		go func() {
			defer func() { done <- struct{}{} }()
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = candidateResult{index: i, err: err}
				return
			}
			defer sem.Release(1)
			rec, err := e.Evaluate(rate, billed, c)
			results[i] = candidateResult{index: i, record: rec, err: err}
		}()
	}
	for range candidates {
		<-done
	}

	var best *candidateResult
	for i := range results {
		res := &results[i]
		if res.err != nil || res.record == nil {
			continue
		}
		if best == nil || res.record.MemberPays.GreaterThan(best.record.MemberPays) {
			best = res
		}
	}
	if best == nil {
		return BestCandidate{}, domain.NewEngineError("HighestMemberPay", domain.ErrNoMatchingBenefit)
	}
	return BestCandidate{Index: best.index, Selected: candidates[best.index], Record: best.record}, nil
}
