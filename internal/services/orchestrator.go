package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/DuckDHD/costshare/internal/domain"
	"github.com/DuckDHD/costshare/internal/engine"
	"github.com/DuckDHD/costshare/internal/matcher"
)

// ProviderOutcome is one provider's result from a single Estimate call:
// either a successful engine run or a provider-scoped error, never both.
type ProviderOutcome struct {
	Provider      domain.Provider
	Index         int
	Selected      domain.SelectedBenefit
	EffectiveRate decimal.Decimal
	Record        *domain.Record
	Err           *domain.EstimateError
}

// EstimateResult is the orchestrator's output: the original request's
// providers, mirrored index-for-index by Outcomes (P8).
type EstimateResult struct {
	Request  domain.EstimateRequest
	Outcomes []ProviderOutcome
}

// Orchestrator fans out to the Benefit, Accumulator, and Rate sources,
// then for each provider runs the Matcher and the Calculation Engine,
// assembling results back in the request's original provider order.
type Orchestrator struct {
	Benefit     BenefitAdapter
	Accumulator AccumulatorAdapter
	Rate        RateAdapter
	PCPSet      PCPSpecialtySetProvider
	Engine      *engine.Engine

	// ProviderWorkerPoolSize bounds Tier 2 CPU fan-out (default 12 per
	// spec.md §5/§6.4).
	ProviderWorkerPoolSize int
}

// providerHash is the deterministic key (zip, specialty, network,
// provider_id) the orchestrator uses to correlate per-provider Rate
// results gathered during Tier 1 fan-out (spec.md §4.3 step 2).
func providerHash(zip string, p domain.Provider) string {
	return fmt.Sprintf("%s|%s|%s|%s", zip, p.SpecialtyCode, p.NetworkID, p.ID)
}

// Estimate runs the full per-request algorithm of spec.md §4.3.
func (o *Orchestrator) Estimate(ctx context.Context, req domain.EstimateRequest) (*EstimateResult, error) {
	var (
		benefits []domain.Benefit
		bundle   domain.AccumulatorBundle
		rates    = make(map[string]domain.NegotiatedRate, len(req.Providers))
	)

	// Tier 1: I/O fan-out to Benefit, Accumulator, and one Rate call per
	// provider, all concurrent, first-error cancels the rest.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		bs, err := o.Benefit.GetBenefits(gctx, domain.BenefitQuery{
			MembershipID:       req.MembershipID,
			ZipCode:            req.ZipCode,
			BenefitProductType: req.BenefitProductType,
			ServiceCode:        req.ServiceCode,
			ServiceType:        req.ServiceType,
			PlaceOfServiceCode: req.PlaceOfServiceCode,
		})
		if err != nil {
			return domain.NewSourceError(domain.KindBenefitsNotFound, "benefit", err)
		}
		benefits = bs
		return nil
	})

	g.Go(func() error {
		b, err := o.Accumulator.GetAccumulators(gctx, req.MembershipID)
		if err != nil {
			// Accumulator failure fails the whole request: every provider
			// depends on the member's accumulators (spec.md §4.3 failure
			// isolation, the one request-scope exception).
			return domain.NewSourceError(domain.KindMemberNotFound, "accumulator", err)
		}
		bundle = b
		return nil
	})

	rateResults := make([]domain.NegotiatedRate, len(req.Providers))
	rateErrs := make([]error, len(req.Providers))
	for i, p := range req.Providers {
		i, p := i, p
		g.Go(func() error {
			rate, err := o.Rate.GetRate(gctx, domain.RateCriteria{
				ProviderID:  p.ID,
				ServiceCode: req.ServiceCode,
				NetworkID:   p.NetworkID,
				Zip:         req.ZipCode,
			})
			if err != nil {
				rateErrs[i] = err
				return nil // rate failure is provider-scoped, never cancels the group
			}
			rateResults[i] = rate
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var estErr *domain.EstimateError
		if e, ok := err.(*domain.EstimateError); ok {
			estErr = e
		} else {
			estErr = domain.NewSourceError(domain.KindSourceUnavailable, "unknown", err)
		}
		return nil, estErr
	}

	for i, p := range req.Providers {
		rates[providerHash(req.ZipCode, p)] = rateResults[i]
	}

	// Tier 2: CPU fan-out, Matcher + Engine per provider, bounded worker
	// pool, response order restored via a pre-sized indexed slice (P8).
	poolSize := o.ProviderWorkerPoolSize
	if poolSize <= 0 {
		poolSize = 12
	}
	sem := semaphore.NewWeighted(int64(poolSize))
	outcomes := make([]ProviderOutcome, len(req.Providers))

	var wg errgroup.Group
	for i, p := range req.Providers {
		i, p := i, p
		wg.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				outcomes[i] = ProviderOutcome{Provider: p, Index: i, Err: domain.NewSourceError(domain.KindCancelled, "pool", err)}
				return nil
			}
			defer sem.Release(1)
			outcomes[i] = o.runProvider(ctx, req, p, i, benefits, bundle, rateErrs[i], rates[providerHash(req.ZipCode, p)])
			return nil
		})
	}
	_ = wg.Wait()

	return &EstimateResult{Request: req, Outcomes: outcomes}, nil
}

// runProvider handles the per-provider steps of §4.3 step 3: benefit/rate
// lookup, Matcher invocation, and HighestMemberPay, recovering any failure
// into a provider-scoped outcome rather than propagating it.
func (o *Orchestrator) runProvider(ctx context.Context, req domain.EstimateRequest, p domain.Provider, index int, benefits []domain.Benefit, bundle domain.AccumulatorBundle, rateErr error, rate domain.NegotiatedRate) ProviderOutcome {
	if rateErr != nil {
		return ProviderOutcome{Provider: p, Index: index, Err: domain.NewSourceError(domain.KindRateMissing, "rate", rateErr)}
	}
	if !rate.Found {
		return ProviderOutcome{Provider: p, Index: index, Err: domain.NewSourceError(domain.KindRateMissing, "rate", domain.ErrRateMissing)}
	}

	var pcpSet map[string]bool
	if o.PCPSet != nil {
		pcpSet = o.PCPSet.PCPSpecialtySet()
	}
	candidates := matcher.Match(benefits, bundle, p, p.OutOfNetwork, pcpSet)
	if len(candidates) == 0 {
		return ProviderOutcome{Provider: p, Index: index, Err: domain.NewSourceError(domain.KindBenefitsNotFound, "matcher", domain.ErrNoMatchingBenefit)}
	}

	effective := rate.EffectiveAmount(rate.Amount)
	best, err := o.Engine.HighestMemberPay(ctx, rate, rate.Amount, candidates)
	if err != nil {
		if ee, ok := err.(*domain.EstimateError); ok {
			return ProviderOutcome{Provider: p, Index: index, Err: ee}
		}
		return ProviderOutcome{Provider: p, Index: index, Err: domain.NewEngineError("engine", err)}
	}

	return ProviderOutcome{
		Provider:      p,
		Index:         index,
		Selected:      best.Selected,
		EffectiveRate: effective,
		Record:        best.Record,
	}
}
