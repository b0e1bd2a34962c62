// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"membership_backend/platform/config"
	"membership_backend/platform/httpkit"
	"membership_backend/platform/logger"
)

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration (HTTP settings only).
	Config config.HTTPConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness checks (store ping).
	Health HealthChecker
	// Tokens verifies bearer tokens for the protected group.
	Tokens httpkit.TokenVerifier
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
