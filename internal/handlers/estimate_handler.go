package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DuckDHD/costshare/internal/domain"
	"github.com/DuckDHD/costshare/internal/dtos"
	"github.com/DuckDHD/costshare/internal/logging"
	"github.com/DuckDHD/costshare/internal/services"
)

// EstimateHandler handles cost-share estimate HTTP requests.
type EstimateHandler struct {
	orchestrator *services.Orchestrator
}

// NewEstimateHandler creates a new estimate handler instance.
func NewEstimateHandler(orchestrator *services.Orchestrator) *EstimateHandler {
	return &EstimateHandler{orchestrator: orchestrator}
}

// Estimate handles POST /api/v1/estimates: binds the request, runs the
// orchestrator, and renders one costEstimate[] entry per provider, success
// or exception, in request order (P8).
func (h *EstimateHandler) Estimate(c *gin.Context) {
	var requestDTO dtos.EstimateRequestDTO
	if err := c.ShouldBindJSON(&requestDTO); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	req := requestDTO.ToEstimateRequest()

	ctx := c.Request.Context()
	result, err := h.orchestrator.Estimate(ctx, req)
	if err != nil {
		h.renderRequestError(c, err)
		return
	}

	entries := make([]dtos.CostEstimateEntryDTO, len(result.Outcomes))
	for i, outcome := range result.Outcomes {
		providerInfo := requestDTO.ProviderInfo[i]
		if outcome.Err != nil {
			entries[i] = dtos.BuildErrorEntry(providerInfo, outcome.Err.Kind, outcome.Err.Error())
			continue
		}
		entries[i] = dtos.BuildSuccessEntry(providerInfo, outcome.Selected, outcome.EffectiveRate, outcome.Record)
	}

	c.JSON(http.StatusOK, dtos.EstimateResponseDTO{
		Service:      requestDTO.Service,
		CostEstimate: entries,
	})
}

// renderRequestError maps a request-scope failure (spec.md §4.3's one
// exception to per-provider failure isolation) onto an HTTP status.
func (h *EstimateHandler) renderRequestError(c *gin.Context, err error) {
	logger := logging.OrchestratorLogger()
	if logger != nil {
		logger.Error("estimate request failed", logging.WithError(err))
	}

	ee, ok := err.(*domain.EstimateError)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	switch ee.Kind {
	case domain.KindRequestInvalid:
		c.JSON(http.StatusBadRequest, gin.H{"error": ee.Error()})
	case domain.KindMemberNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": ee.Error()})
	case domain.KindAuthExpired:
		c.JSON(http.StatusUnauthorized, gin.H{"error": ee.Error()})
	case domain.KindSourceUnavailable:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ee.Error()})
	case domain.KindCancelled:
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": ee.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": ee.Error()})
	}
}

// Health handles GET /health.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "costshare API is running"})
}
