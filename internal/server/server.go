package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/DuckDHD/costshare/internal/adapters"
	"github.com/DuckDHD/costshare/internal/cache"
	"github.com/DuckDHD/costshare/internal/config"
	"github.com/DuckDHD/costshare/internal/engine"
	"github.com/DuckDHD/costshare/internal/handlers"
	"github.com/DuckDHD/costshare/internal/router"
	"github.com/DuckDHD/costshare/internal/services"
)

// NewServerWithConfig wires the full dependency graph — caches, external
// source adapters, the calculation engine, the orchestrator, the HTTP
// handler, and the router — into a ready-to-serve *http.Server.
func NewServerWithConfig(ctx context.Context, cfg *config.Config) (*http.Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	bearer := cache.NewBearerCache(
		adapters.NewClientCredentialsLoader(cfg.Sources.TokenEndpointURL, cfg.Sources.ClientID, cfg.Sources.ClientSecret, cfg.Timeout.SourceTimeout),
		cfg.Cache.BearerRefresh,
	)

	benefitClient := adapters.NewBenefitClient(cfg.Sources.BenefitBaseURL, bearer, cfg.Timeout.SourceTimeout)
	accumulatorClient := adapters.NewAccumulatorClient(cfg.Sources.AccumulatorBaseURL, bearer, cfg.Timeout.SourceTimeout)
	rateClient := adapters.NewRateClient(cfg.Sources.RateBaseURL, nil, cfg.Timeout.SourceTimeout, nil)

	pcpCache := cache.NewPCPSpecialtySetCache(
		adapters.NewPCPSpecialtySetLoader(benefitClient, cfg.Timeout.SourceTimeout),
		cfg.Cache.PCPSpecialtyRefresh,
	)
	paymentMethodCache := cache.NewPaymentMethodHierarchyCache(
		adapters.NewPaymentMethodHierarchyLoader(rateClient, cfg.Timeout.SourceTimeout),
		cfg.Cache.PaymentMethodRefresh,
	)
	rateClient.SetHierarchyFunc(paymentMethodCache.Hierarchy)

	go bearer.Run(ctx)
	go pcpCache.Run(ctx)
	go paymentMethodCache.Run(ctx)

	orchestrator := &services.Orchestrator{
		Benefit:                benefitClient,
		Accumulator:            accumulatorClient,
		Rate:                   rateClient,
		PCPSet:                 pcpCache,
		Engine:                 engine.New(cfg.Pool.ProviderWorkerPoolSize),
		ProviderWorkerPoolSize: cfg.Pool.ProviderWorkerPoolSize,
	}

	estimateHandler := handlers.NewEstimateHandler(orchestrator)
	appRouter := router.NewRouter(estimateHandler)

	serverService := config.NewServerService(&cfg.Server)
	return serverService.CreateServer(appRouter.SetupRoutes()), nil
}
