package adapters

import (
	"context"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DuckDHD/costshare/internal/cache"
	"github.com/DuckDHD/costshare/internal/domain"
)

// benefitWire is the Benefit source's JSON shape. Wire format and field
// mapping are this adapter's concern; the spec treats them as out of scope
// beyond the entity shape in §3.2.
type benefitWire struct {
	NetworkCategory             string   `json:"networkCategory"`
	Tier                        string   `json:"tier"`
	ProviderDesignation         string   `json:"providerDesignation"`
	ServiceProviderDesignation  string   `json:"serviceProviderDesignation"`
	IsServiceCovered            bool     `json:"isServiceCovered"`
	IsDeductibleBeforeCopay     bool     `json:"isDeductibleBeforeCopay"`
	CostShareCopay              string   `json:"costShareCopay"`
	CostShareCoinsurance        int      `json:"costShareCoinsurance"`
	CopayAppliesOOP             bool     `json:"copayAppliesOop"`
	CoinsAppliesOOP             bool     `json:"coinsAppliesOop"`
	DeductibleAppliesOOP        bool     `json:"deductibleAppliesOop"`
	CopayCountToDeductible      bool     `json:"copayCountToDeductible"`
	CopayContinueWhenDedMet     bool     `json:"copayContinueWhenDeductibleMet"`
	CopayContinueWhenOOPMet     bool     `json:"copayContinueWhenOopMet"`
	LimitType                   string   `json:"limitType"`
	AccumCode                   []string `json:"accumCode"`
	AccumLevel                  []string `json:"accumLevel"`
	IndividualsMet              *int     `json:"individualsMet"`
	IndividualsNeeded           *int     `json:"individualsNeeded"`
	RelatedAccumulators         []relatedAccumulatorWire `json:"relatedAccumulators"`
}

type relatedAccumulatorWire struct {
	Code                 string `json:"code"`
	Level                string `json:"level"`
	DeductibleCode       string `json:"deductibleCode"`
	AccumExCode          string `json:"accumExCode"`
	NetworkIndicatorCode string `json:"networkIndicatorCode"`
}

// BenefitClient implements services.BenefitAdapter over HTTP.
type BenefitClient struct {
	client *resilientClient
}

// NewBenefitClient builds a BenefitClient against baseURL, sharing bearer
// with the Accumulator client per spec.md §4.3's "Benefit and Accumulator
// adapters" bearer refresh note.
func NewBenefitClient(baseURL string, bearer *cache.BearerCache, timeout time.Duration) *BenefitClient {
	return &BenefitClient{client: newResilientClient("benefit", baseURL, bearer, timeout)}
}

// GetBenefits fetches the member's benefit catalog for the given query.
func (c *BenefitClient) GetBenefits(ctx context.Context, query domain.BenefitQuery) ([]domain.Benefit, error) {
	path := "/benefits?" + url.Values{
		"membershipId":       {query.MembershipID},
		"zipCode":            {query.ZipCode},
		"benefitProductType": {query.BenefitProductType},
		"serviceCode":        {query.ServiceCode},
		"serviceType":        {query.ServiceType},
		"placeOfServiceCode": {query.PlaceOfServiceCode},
	}.Encode()

	var wire []benefitWire
	if err := c.client.doJSON(ctx, "GET", path, nil, &wire); err != nil {
		return nil, err
	}

	benefits := make([]domain.Benefit, 0, len(wire))
	for _, w := range wire {
		benefits = append(benefits, w.toDomain())
	}
	return benefits, nil
}

func (w benefitWire) toDomain() domain.Benefit {
	copay, _ := decimal.NewFromString(w.CostShareCopay)

	accumCode := make([]domain.AccumKind, 0, len(w.AccumCode))
	for _, a := range w.AccumCode {
		accumCode = append(accumCode, domain.AccumKind(a))
	}
	accumLevel := make([]domain.AccumLevel, 0, len(w.AccumLevel))
	for _, a := range w.AccumLevel {
		accumLevel = append(accumLevel, domain.AccumLevel(a))
	}
	refs := make([]domain.RelatedAccumulatorRef, 0, len(w.RelatedAccumulators))
	for _, r := range w.RelatedAccumulators {
		refs = append(refs, domain.RelatedAccumulatorRef{
			Code:                 r.Code,
			Level:                r.Level,
			DeductibleCode:       r.DeductibleCode,
			AccumExCode:          r.AccumExCode,
			NetworkIndicatorCode: r.NetworkIndicatorCode,
		})
	}

	return domain.Benefit{
		NetworkCategory:                domain.NetworkCategory(w.NetworkCategory),
		Tier:                           w.Tier,
		ProviderDesignation:            w.ProviderDesignation,
		ServiceProviderDesignation:     w.ServiceProviderDesignation,
		IsServiceCovered:               w.IsServiceCovered,
		IsDeductibleBeforeCopay:        w.IsDeductibleBeforeCopay,
		CostShareCopay:                 copay,
		CostShareCoinsurance:           w.CostShareCoinsurance,
		CopayAppliesOOP:                w.CopayAppliesOOP,
		CoinsAppliesOOP:                w.CoinsAppliesOOP,
		DeductibleAppliesOOP:           w.DeductibleAppliesOOP,
		CopayCountToDeductible:         w.CopayCountToDeductible,
		CopayContinueWhenDeductibleMet: w.CopayContinueWhenDedMet,
		CopayContinueWhenOOPMet:        w.CopayContinueWhenOOPMet,
		LimitType:                      domain.LimitType(w.LimitType),
		AccumCode:                      accumCode,
		AccumLevel:                     accumLevel,
		IndividualsMet:                 w.IndividualsMet,
		IndividualsNeeded:              w.IndividualsNeeded,
		RelatedAccumulators:            refs,
	}
}
