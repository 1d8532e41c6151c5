package dtos

import (
	"github.com/shopspring/decimal"

	"github.com/DuckDHD/costshare/internal/domain"
)

// ServiceDTO is the service echoed back unchanged on the response per
// spec.md §6.2.
type ServiceDTO struct {
	Code           string             `json:"code" binding:"required"`
	Type           string             `json:"type"`
	Description    string             `json:"description,omitempty"`
	PlaceOfService PlaceOfServiceDTO  `json:"placeOfService"`
}

// PlaceOfServiceDTO carries the service's place-of-service code.
type PlaceOfServiceDTO struct {
	Code string `json:"code"`
}

// SpecialtyDTO carries a provider's specialty code, used by the Matcher to
// derive PCP designation.
type SpecialtyDTO struct {
	Code string `json:"code"`
}

// ProviderNetworksDTO carries a provider's network id.
type ProviderNetworksDTO struct {
	NetworkID string `json:"networkID"`
}

// ProviderNetworkParticipationDTO carries a provider's optional tier.
type ProviderNetworkParticipationDTO struct {
	ProviderTier string `json:"providerTier,omitempty"`
}

// ProviderInfoDTO is one candidate provider from the inbound request,
// per spec.md §6.1.
type ProviderInfoDTO struct {
	ServiceLocation              string                          `json:"serviceLocation"`
	ProviderType                 string                          `json:"providerType"`
	Specialty                    SpecialtyDTO                    `json:"specialty"`
	ProviderNetworks             ProviderNetworksDTO             `json:"providerNetworks"`
	ProviderIdentificationNumber string                          `json:"providerIdentificationNumber" binding:"required"`
	ProviderNetworkParticipation ProviderNetworkParticipationDTO `json:"providerNetworkParticipation"`
}

// EstimateRequestDTO is the inbound estimate request, per spec.md §6.1.
type EstimateRequestDTO struct {
	MembershipID       string            `json:"membershipId" binding:"required"`
	ZipCode            string            `json:"zipCode" binding:"required"`
	BenefitProductType string            `json:"benefitProductType" binding:"required"`
	LanguageCode       string            `json:"languageCode,omitempty"`
	Service            ServiceDTO        `json:"service" binding:"required"`
	ProviderInfo       []ProviderInfoDTO `json:"providerInfo" binding:"required,min=1,dive"`
}

// ToBenefitQuery projects the request into the query the Benefit adapter
// consumes.
func (d EstimateRequestDTO) ToBenefitQuery() domain.BenefitQuery {
	return domain.BenefitQuery{
		MembershipID:       d.MembershipID,
		ZipCode:            d.ZipCode,
		BenefitProductType: d.BenefitProductType,
		ServiceCode:        d.Service.Code,
		ServiceType:        d.Service.Type,
		PlaceOfServiceCode: d.Service.PlaceOfService.Code,
	}
}

// ToEstimateRequest converts the wire DTO into the orchestrator's decoded
// domain.EstimateRequest.
func (d EstimateRequestDTO) ToEstimateRequest() domain.EstimateRequest {
	providers := make([]domain.Provider, 0, len(d.ProviderInfo))
	for _, p := range d.ProviderInfo {
		providers = append(providers, p.ToProvider())
	}
	return domain.EstimateRequest{
		MembershipID:       d.MembershipID,
		ZipCode:            d.ZipCode,
		BenefitProductType: d.BenefitProductType,
		LanguageCode:       d.LanguageCode,
		ServiceCode:        d.Service.Code,
		ServiceType:        d.Service.Type,
		PlaceOfServiceCode: d.Service.PlaceOfService.Code,
		Providers:          providers,
	}
}

// ToProvider converts one request provider entry into a domain.Provider.
func (p ProviderInfoDTO) ToProvider() domain.Provider {
	return domain.Provider{
		ID:              p.ProviderIdentificationNumber,
		SpecialtyCode:   p.Specialty.Code,
		Tier:            p.ProviderNetworkParticipation.ProviderTier,
		NetworkID:       p.ProviderNetworks.NetworkID,
		ServiceLocation: p.ServiceLocation,
		// A provider request entry with no network id does not participate
		// in any plan network, per spec.md §3.2's Provider definition.
		OutOfNetwork: p.ProviderNetworks.NetworkID == "",
	}
}

// ToRateCriteria converts one request provider entry into the criteria the
// Rate adapter consumes.
func (p ProviderInfoDTO) ToRateCriteria(serviceCode, zip string) domain.RateCriteria {
	return domain.RateCriteria{
		ProviderID:  p.ProviderIdentificationNumber,
		ServiceCode: serviceCode,
		NetworkID:   p.ProviderNetworks.NetworkID,
		Zip:         zip,
	}
}

// CoverageDTO mirrors the matched benefit's coverage characteristics.
type CoverageDTO struct {
	IsServiceCovered     bool `json:"isServiceCovered"`
	CostShareCopay       string `json:"costShareCopay"`
	CostShareCoinsurance int  `json:"costShareCoinsurance"`
}

// CostDTO carries the negotiated rate used for the estimate.
type CostDTO struct {
	InNetworkCosts     string `json:"inNetworkCosts"`
	InNetworkCostsType string `json:"inNetworkCostsType"`
}

// HealthClaimLineDTO is the settled member-cost breakdown, per spec.md
// §6.2: amountPayable = rate - amountResponsibility, percentResponsibility
// = amountResponsibility / rate * 100 rounded to one decimal.
type HealthClaimLineDTO struct {
	AmountCopay           string `json:"amountCopay"`
	AmountCoinsurance     string `json:"amountCoinsurance"`
	AmountResponsibility  string `json:"amountResponsibility"`
	PercentResponsibility string `json:"percentResponsibility"`
	AmountPayable         string `json:"amountPayable"`
}

// AccumulatorEntryDTO projects one matched accumulator plus its
// post-calculation remaining/applied values.
type AccumulatorEntryDTO struct {
	Accumulator           AccumulatorDTO           `json:"accumulator"`
	AccumulatorCalculation AccumulatorCalculationDTO `json:"accumulatorCalculation"`
}

// AccumulatorDTO echoes the identifying fields of a matched accumulator.
type AccumulatorDTO struct {
	Code  string `json:"code"`
	Level string `json:"level"`
}

// AccumulatorCalculationDTO carries the remaining value after settlement and
// the value this run applied against it.
type AccumulatorCalculationDTO struct {
	RemainingValue string `json:"remainingValue"`
	AppliedValue   string `json:"appliedValue"`
}

// ExceptionDTO is the error shape for a failed provider entry.
type ExceptionDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CostEstimateEntryDTO is one entry of the response's costEstimate[] array,
// aligned index-for-index with the request's providerInfo[] (P8). Exactly
// one of (Coverage/Cost/HealthClaimLine/Accumulators) or Exception is set.
type CostEstimateEntryDTO struct {
	ProviderInfo    ProviderInfoDTO       `json:"providerInfo"`
	Coverage        *CoverageDTO          `json:"coverage,omitempty"`
	Cost            *CostDTO              `json:"cost,omitempty"`
	HealthClaimLine *HealthClaimLineDTO   `json:"healthClaimLine,omitempty"`
	Accumulators    []AccumulatorEntryDTO `json:"accumulators,omitempty"`
	Exception       *ExceptionDTO         `json:"exception,omitempty"`
}

// EstimateResponseDTO is the outbound response, per spec.md §6.2.
type EstimateResponseDTO struct {
	Service      ServiceDTO             `json:"service"`
	CostEstimate []CostEstimateEntryDTO `json:"costEstimate"`
}

// moneyString formats a decimal for the wire without binary-float
// rounding surprises.
func moneyString(d decimal.Decimal) string {
	return d.StringFixed(2)
}
