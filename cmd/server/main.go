package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/deepugami/mini-crm/internal/api"
	"github.com/deepugami/mini-crm/internal/api/handlers"
	"github.com/deepugami/mini-crm/internal/api/middleware"
	"github.com/deepugami/mini-crm/internal/engine/automation"
	"github.com/deepugami/mini-crm/internal/pkg/logger"
	"github.com/deepugami/mini-crm/internal/platform/auth"
	"github.com/deepugami/mini-crm/internal/platform/config"
	"github.com/deepugami/mini-crm/internal/platform/database"
	"github.com/deepugami/mini-crm/internal/platform/repositories"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	// Repositories
	contactRepo := repositories.NewContactRepository(db)
	leadRepo := repositories.NewLeadRepository(db)
	dealRepo := repositories.NewDealRepository(db)
	activityRepo := repositories.NewActivityRepository(db)
	ruleRepo := repositories.NewRuleRepository(db)

	// Automation engine + time-wait scanner
	engine := automation.NewEngine(ruleRepo, leadRepo, dealRepo, activityRepo, cfg.Automation.WebhookTimeout)
	scanner := automation.NewScanner(ruleRepo, leadRepo, engine, cfg.Automation.ScanInterval)
	scanner.Start()
	defer scanner.Stop()

	// Services
	tokenSvc := auth.NewTokenService(cfg.Auth)

	// Handlers
	deps := &api.Dependencies{
		AuthHandler:       handlers.NewAuthHandler(tokenSvc),
		ContactHandler:    handlers.NewContactHandler(contactRepo),
		LeadHandler:       handlers.NewLeadHandler(leadRepo, contactRepo, activityRepo, engine),
		DealHandler:       handlers.NewDealHandler(dealRepo, leadRepo),
		AutomationHandler: handlers.NewAutomationHandler(ruleRepo, engine),
		HealthHandler:     handlers.NewHealthHandler(db),
		AuthMiddleware:    middleware.NewAuthMiddleware(tokenSvc),
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
