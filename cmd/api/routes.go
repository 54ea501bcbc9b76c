package main

import (
	"net/http"

	"github.com/taskmandi/backend/internal/admin"
	"github.com/taskmandi/backend/internal/middleware"
)

// RegisterAdminRoutes adds the /api/admin endpoints to the given mux.
// Middleware chain: AdminKeyAuth -> handler. Admin callers authenticate with a
// hashed API key, not a user JWT.
func RegisterAdminRoutes(mux *http.ServeMux, adminRepo *admin.Repository, adminHandler *admin.Handler) {
	keyAuth := middleware.AdminKeyAuth(adminRepo)

	mux.Handle("POST /api/admin/wallet/add-balance", keyAuth(http.HandlerFunc(adminHandler.AddBalance)))
}
