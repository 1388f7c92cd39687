package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "github.com/deepugami/mini-crm/internal/api/context"
	"github.com/deepugami/mini-crm/internal/api/handlers"
	"github.com/deepugami/mini-crm/internal/api/middleware"
)

type Dependencies struct {
	AuthHandler       *handlers.AuthHandler
	ContactHandler    *handlers.ContactHandler
	LeadHandler       *handlers.LeadHandler
	DealHandler       *handlers.DealHandler
	AutomationHandler *handlers.AutomationHandler
	HealthHandler     *handlers.HealthHandler
	AuthMiddleware    *middleware.AuthMiddleware
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	router.GET("/", wrap(handlers.Root))
	router.GET("/health", wrap(deps.HealthHandler.Check))

	// Token issuance is the only unauthenticated API route.
	router.POST("/api/v1/auth/token", wrap(deps.AuthHandler.Token))

	authMid := deps.AuthMiddleware

	// Contacts
	router.POST("/api/v1/contacts", chain(deps.ContactHandler.Create, authMid.Handle))
	router.GET("/api/v1/contacts", chain(deps.ContactHandler.List, authMid.Handle))
	router.GET("/api/v1/contacts/:contact_id", chain(deps.ContactHandler.Get, authMid.Handle))
	router.PATCH("/api/v1/contacts/:contact_id", chain(deps.ContactHandler.Update, authMid.Handle))
	router.DELETE("/api/v1/contacts/:contact_id", chain(deps.ContactHandler.Delete, authMid.Handle))

	// Leads
	router.POST("/api/v1/leads", chain(deps.LeadHandler.Create, authMid.Handle))
	router.GET("/api/v1/leads", chain(deps.LeadHandler.List, authMid.Handle))
	router.PATCH("/api/v1/leads/:lead_id", chain(deps.LeadHandler.Update, authMid.Handle))
	router.POST("/api/v1/leads/:lead_id/activity", chain(deps.LeadHandler.CreateActivity, authMid.Handle))
	router.GET("/api/v1/leads/:lead_id/activity", chain(deps.LeadHandler.ListActivities, authMid.Handle))

	// Deals
	router.POST("/api/v1/deals", chain(deps.DealHandler.Create, authMid.Handle))
	router.GET("/api/v1/deals", chain(deps.DealHandler.List, authMid.Handle))

	// Automation rules
	router.POST("/api/v1/automation/rules", chain(deps.AutomationHandler.CreateRule, authMid.Handle))
	router.GET("/api/v1/automation/rules", chain(deps.AutomationHandler.ListRules, authMid.Handle))
	router.PATCH("/api/v1/automation/rules/:rule_id", chain(deps.AutomationHandler.UpdateRule, authMid.Handle))
	router.DELETE("/api/v1/automation/rules/:rule_id", chain(deps.AutomationHandler.DeleteRule, authMid.Handle))
	router.POST("/api/v1/automation/rules/:rule_id/execute", chain(deps.AutomationHandler.ExecuteRule, authMid.Handle))
	router.GET("/api/v1/automation/rules/:rule_id/logs", chain(deps.AutomationHandler.ListLogs, authMid.Handle))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
