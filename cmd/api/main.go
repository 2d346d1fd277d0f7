package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alawneh/eway-backoffice/api"
	"github.com/alawneh/eway-backoffice/internal/compliance"
	"github.com/alawneh/eway-backoffice/internal/config"
	"github.com/alawneh/eway-backoffice/internal/domain"
	"github.com/alawneh/eway-backoffice/internal/fees"
	"github.com/alawneh/eway-backoffice/internal/handler"
	"github.com/alawneh/eway-backoffice/internal/ledger"
	"github.com/alawneh/eway-backoffice/internal/logging"
	"github.com/alawneh/eway-backoffice/internal/middleware"
	"github.com/alawneh/eway-backoffice/internal/repository"
	"github.com/alawneh/eway-backoffice/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("eway-api", cfg.LogLevel, cfg.AppEnv)

	db, err := connectDB(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Repositories
	cashiers := repository.NewCashierRepository(db)
	parties := repository.NewPartyRepository(db)
	remittances := repository.NewRemittanceRepository(db)
	requests := repository.NewChangeRequestRepository(db)
	feeTiers := repository.NewFeeTierRepository(db)
	exchanges := repository.NewExchangeRepository(db)
	fxRates := repository.NewFxRateRepository(db)

	// Core components
	till := ledger.New(cashiers)
	resolver := fees.NewResolver(feeTiers, fees.FlatBands{
		Band1Max: decimal.NewFromFloat(cfg.FlatBand1MaxJOD),
		Band1Fee: decimal.NewFromFloat(cfg.FlatBand1Fee),
		Band2Max: decimal.NewFromFloat(cfg.FlatBand2MaxJOD),
		Band2Fee: decimal.NewFromFloat(cfg.FlatBand2Fee),
		TopFee:   decimal.NewFromFloat(cfg.FlatBandTopFee),
	})
	evaluator := compliance.NewEvaluator(remittances, compliance.Thresholds{
		Outgoing: decimal.NewFromFloat(cfg.OutgoingThresholdJOD),
		Incoming: decimal.NewFromFloat(cfg.IncomingThresholdJOD),
	})

	// Services
	remittanceSvc := service.NewRemittanceService(db, remittances, requests, parties, cashiers, resolver, evaluator, till)
	requestSvc := service.NewChangeRequestService(db, requests, remittances, resolver, till)
	exchangeSvc := service.NewExchangeService(db, exchanges, cashiers, till)
	cashierSvc := service.NewCashierService(db, cashiers, remittances, cfg.SeedAdminUsername)
	partySvc := service.NewPartyService(parties, remittances)
	feeTierSvc := service.NewFeeTierService(feeTiers)
	fxRateSvc := service.NewFxRateService(fxRates)

	service.NewMaintenance(feeTiers, cashiers, cfg.SeedAdminUsername, cfg.SeedAdminPassword).
		Run(context.Background())

	// Handlers
	healthHandler := handler.NewHealthHandler(db)
	authHandler := handler.NewAuthHandler(cashierSvc, cfg.JWTSecret, time.Duration(cfg.JWTExpiryH)*time.Hour)
	remittanceHandler := handler.NewRemittanceHandler(remittanceSvc)
	complianceHandler := handler.NewComplianceHandler(remittanceSvc)
	requestHandler := handler.NewChangeRequestHandler(requestSvc)
	exchangeHandler := handler.NewExchangeHandler(exchangeSvc)
	cashierHandler := handler.NewCashierHandler(cashierSvc)
	partyHandler := handler.NewPartyHandler(partySvc)
	feeTierHandler := handler.NewFeeTierHandler(feeTierSvc, resolver)
	fxRateHandler := handler.NewFxRateHandler(fxRateSvc)

	authed := middleware.Auth(cfg.JWTSecret)
	adminOnly := middleware.RequireRole()
	complianceOnly := middleware.RequireRole(domain.RoleCompliance)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health/live", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)

	mux.HandleFunc("GET /docs", handler.ServeDocs())
	mux.HandleFunc("GET /docs/openapi.yaml", handler.ServeSpec(api.OpenAPISpec))

	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	protected := func(pattern string, h http.HandlerFunc, extra ...func(http.Handler) http.Handler) {
		var wrapped http.Handler = h
		for i := len(extra) - 1; i >= 0; i-- {
			wrapped = extra[i](wrapped)
		}
		mux.Handle(pattern, authed(wrapped))
	}

	// Remittances
	protected("POST /api/remittances", remittanceHandler.Create)
	protected("GET /api/remittances", remittanceHandler.List)
	protected("GET /api/remittances/{id}", remittanceHandler.Get)
	protected("GET /api/remittances/reference/{reference}", remittanceHandler.GetByReference)
	protected("PUT /api/remittances/{id}", remittanceHandler.Update)
	protected("DELETE /api/remittances/{id}", remittanceHandler.Delete)
	protected("POST /api/remittances/{id}/pay", remittanceHandler.MarkPaid)
	protected("POST /api/remittances/{id}/return", remittanceHandler.ReturnToPending, complianceOnly)
	protected("GET /api/remittances/{id}/change-requests", requestHandler.ListByRemittance)

	// Change requests
	protected("POST /api/change-requests", requestHandler.File)
	protected("GET /api/change-requests", requestHandler.ListPending)
	protected("POST /api/change-requests/{id}/approve", requestHandler.Approve, complianceOnly)
	protected("POST /api/change-requests/{id}/reject", requestHandler.Reject, complianceOnly)

	// Compliance
	protected("GET /api/compliance/holds", complianceHandler.ListHolds, complianceOnly)
	protected("POST /api/compliance/holds/{id}/release", complianceHandler.Release, complianceOnly)
	protected("POST /api/compliance/holds/{id}/force-pay", complianceHandler.ForcePay, complianceOnly)

	// Parties
	protected("POST /api/parties", partyHandler.Create)
	protected("GET /api/parties", partyHandler.Search)
	protected("GET /api/parties/{id}", partyHandler.Get)
	protected("PUT /api/parties/{id}", partyHandler.Update)
	protected("DELETE /api/parties/{id}", partyHandler.Delete, adminOnly)
	protected("GET /api/parties/{id}/remittances", remittanceHandler.ListByParty)

	// Fee tiers
	protected("GET /api/fee-tiers", feeTierHandler.List)
	protected("GET /api/fee-tiers/quote", feeTierHandler.Quote)
	protected("POST /api/fee-tiers", feeTierHandler.Create, adminOnly)
	protected("PUT /api/fee-tiers/{id}", feeTierHandler.Update, adminOnly)
	protected("DELETE /api/fee-tiers/{id}", feeTierHandler.Delete, adminOnly)

	// FX rates and currency exchanges
	protected("GET /api/fx-rates", fxRateHandler.List)
	protected("POST /api/fx-rates", fxRateHandler.Create, adminOnly)
	protected("PUT /api/fx-rates/{id}", fxRateHandler.Update, adminOnly)
	protected("DELETE /api/fx-rates/{id}", fxRateHandler.Delete, adminOnly)
	protected("POST /api/exchanges", exchangeHandler.Create)
	protected("GET /api/exchanges", exchangeHandler.List)
	protected("GET /api/exchanges/statistics", exchangeHandler.Statistics)
	protected("GET /api/exchanges/{id}", exchangeHandler.Get)
	protected("DELETE /api/exchanges/{id}", exchangeHandler.Delete, adminOnly)

	// Cashier administration
	protected("POST /api/cashiers", cashierHandler.Create, adminOnly)
	protected("GET /api/cashiers", cashierHandler.List)
	protected("GET /api/cashiers/{id}", cashierHandler.Get)
	protected("POST /api/cashiers/{id}/balance/add", cashierHandler.AddBalance, adminOnly)
	protected("POST /api/cashiers/{id}/balance/initial", cashierHandler.SetInitialBalance, adminOnly)
	protected("POST /api/cashiers/{id}/password", cashierHandler.ChangePassword, adminOnly)
	protected("POST /api/cashiers/{id}/role", cashierHandler.UpdateRole, adminOnly)
	protected("POST /api/cashiers/{id}/active", cashierHandler.SetActive, adminOnly)
	protected("DELETE /api/cashiers/{id}", cashierHandler.Delete, adminOnly)

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func connectDB(cfg *config.Config) (*sql.DB, error) {
	pool := repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}

	var lastErr error
	for i := range 30 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, pool)
		cancel()
		if err == nil {
			return db, nil
		}
		lastErr = err
		slog.Info("waiting for database", "attempt", i+1)
		time.Sleep(time.Second)
	}
	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", lastErr)
}
