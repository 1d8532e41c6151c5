package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DuckDHD/costshare/internal/domain"
	"github.com/DuckDHD/costshare/internal/dtos"
	"github.com/DuckDHD/costshare/internal/engine"
	"github.com/DuckDHD/costshare/internal/services"
)

type fakeBenefitAdapter struct{ benefits []domain.Benefit }

func (f *fakeBenefitAdapter) GetBenefits(ctx context.Context, q domain.BenefitQuery) ([]domain.Benefit, error) {
	return f.benefits, nil
}

type fakeAccumulatorAdapter struct{}

func (f *fakeAccumulatorAdapter) GetAccumulators(ctx context.Context, membershipID string) (domain.AccumulatorBundle, error) {
	return domain.AccumulatorBundle{}, nil
}

type fakeRateAdapter struct{ rate domain.NegotiatedRate }

func (f *fakeRateAdapter) GetRate(ctx context.Context, c domain.RateCriteria) (domain.NegotiatedRate, error) {
	return f.rate, nil
}

// setupEstimateTestRouter wires the estimate endpoint behind a bare gin
// router, the way the teacher's own handler tests drive requests through
// ServeHTTP rather than calling handler methods directly.
func setupEstimateTestRouter(benefits []domain.Benefit, rate domain.NegotiatedRate) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	o := &services.Orchestrator{
		Benefit:     &fakeBenefitAdapter{benefits: benefits},
		Accumulator: &fakeAccumulatorAdapter{},
		Rate:        &fakeRateAdapter{rate: rate},
		Engine:      engine.New(4),
	}
	h := NewEstimateHandler(o)

	router.POST("/api/v1/estimates", h.Estimate)
	router.GET("/health", Health)
	return router
}

func sampleRequestBody() dtos.EstimateRequestDTO {
	return dtos.EstimateRequestDTO{
		MembershipID:       "M1",
		ZipCode:            "10001",
		BenefitProductType: "Medical",
		Service: dtos.ServiceDTO{
			Code: "99213",
			Type: "Office Visit",
		},
		ProviderInfo: []dtos.ProviderInfoDTO{
			{
				ProviderIdentificationNumber: "P1",
				ProviderNetworks:             dtos.ProviderNetworksDTO{NetworkID: "N1"},
			},
		},
	}
}

func postEstimate(router *gin.Engine, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/estimates", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestEstimate_MalformedRequestBodyReturns400(t *testing.T) {
	router := setupEstimateTestRouter(nil, domain.NegotiatedRate{})

	w := postEstimate(router, []byte("not json"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEstimate_SuccessReturnsOneEntryPerProviderInOrder(t *testing.T) {
	router := setupEstimateTestRouter(
		[]domain.Benefit{{NetworkCategory: domain.NetworkCategoryInNetwork, IsServiceCovered: true, CostShareCoinsurance: 20}},
		domain.NegotiatedRate{Amount: decimal.NewFromInt(100), RateType: domain.RateTypeAmount, Found: true},
	)
	body, _ := json.Marshal(sampleRequestBody())

	w := postEstimate(router, body)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dtos.EstimateResponseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.CostEstimate, 1)
	assert.Equal(t, "P1", resp.CostEstimate[0].ProviderInfo.ProviderIdentificationNumber)
	assert.Nil(t, resp.CostEstimate[0].Exception)
	require.NotNil(t, resp.CostEstimate[0].HealthClaimLine)
	assert.Equal(t, "20.00", resp.CostEstimate[0].HealthClaimLine.AmountResponsibility)
}

func TestEstimate_NoMatchingBenefitRendersExceptionEntryWith200(t *testing.T) {
	router := setupEstimateTestRouter(
		[]domain.Benefit{{NetworkCategory: domain.NetworkCategoryOutOfNetwork}},
		domain.NegotiatedRate{Amount: decimal.NewFromInt(100), RateType: domain.RateTypeAmount, Found: true},
	)
	body, _ := json.Marshal(sampleRequestBody())

	w := postEstimate(router, body)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dtos.EstimateResponseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.CostEstimate, 1)
	require.NotNil(t, resp.CostEstimate[0].Exception)
	assert.Equal(t, string(domain.KindBenefitsNotFound), resp.CostEstimate[0].Exception.Code)
}

func TestRenderRequestError_MapsEachKindToExpectedStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewEstimateHandler(&services.Orchestrator{Engine: engine.New(4)})

	cases := []struct {
		kind   domain.ErrorKind
		status int
	}{
		{domain.KindRequestInvalid, http.StatusBadRequest},
		{domain.KindMemberNotFound, http.StatusNotFound},
		{domain.KindAuthExpired, http.StatusUnauthorized},
		{domain.KindSourceUnavailable, http.StatusServiceUnavailable},
		{domain.KindCancelled, http.StatusGatewayTimeout},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		h.renderRequestError(ctx, domain.NewSourceError(tc.kind, "test", errBoom))
		assert.Equal(t, tc.status, w.Code, "kind %s", tc.kind)
	}
}

func TestHealth_ReturnsOKStatus(t *testing.T) {
	router := gin.New()
	router.GET("/health", Health)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

var errBoom = boomError{}

type boomError struct{}

func (boomError) Error() string { return "boom" }
