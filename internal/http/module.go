// Package http provides HTTP server infrastructure including the Module interface
// that all domain modules must implement for route registration.
package http

import (
	"github.com/gin-gonic/gin"
)

// Module represents a bounded context that can register its HTTP routes.
// Each domain module implements this interface to encapsulate its own
// route setup, keeping the main router decoupled from specific endpoints.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	// RegisterRoutes mounts the module's routes on the provided router groups.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext provides the router groups modules mount their routes on.
type RouterContext struct {
	// Public is the unauthenticated root group (for example /auth).
	Public *gin.RouterGroup
	// Protected is the /api group behind bearer authentication.
	Protected *gin.RouterGroup
}
