package domain

// BenefitQuery identifies the member/service combination a Benefit source
// resolves to a catalog of candidate benefits (spec.md §6.3).
type BenefitQuery struct {
	MembershipID       string
	ZipCode            string
	BenefitProductType string
	ServiceCode        string
	ServiceType        string
	PlaceOfServiceCode string
}

// EstimateRequest is the orchestrator's decoded view of an inbound
// estimate request (spec.md §6.1), independent of wire format.
type EstimateRequest struct {
	MembershipID       string
	ZipCode            string
	BenefitProductType string
	LanguageCode       string
	ServiceCode        string
	ServiceType        string
	PlaceOfServiceCode string
	Providers          []Provider
}
