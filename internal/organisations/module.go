// Package organisations provides the organisations bounded context module.
// Organisations group users; every read and write is gated by membership.
package organisations

import (
	apphttp "membership_backend/internal/http"
	"membership_backend/internal/organisations/handler"
	"membership_backend/internal/organisations/repository"
	"membership_backend/internal/organisations/service"
	"membership_backend/platform/db"
	"membership_backend/platform/logger"
	"membership_backend/platform/validator"
)

// Module is the organisations bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the organisations module.
func NewModule(repo repository.Repository, tx db.Transactor, users service.UserDirectory, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repo, tx, users, val, log)

	return &Module{
		handler: handler.New(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "organisations"
}

// Service returns the service layer; registration uses it to provision the
// personal organisation of a new user.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts organisation routes on the protected group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/organisations")
	group.GET("", m.handler.List)
	group.POST("", m.handler.Create)
	group.GET("/:orgId", m.handler.Get)
	group.POST("/:orgId/users", m.handler.AddUser)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
