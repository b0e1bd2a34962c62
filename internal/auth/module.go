// Package auth provides the authentication bounded context module.
// This file defines the module that encapsulates all auth setup and route registration.
package auth

import (
	"fmt"

	"membership_backend/internal/auth/handler"
	"membership_backend/internal/auth/repository"
	"membership_backend/internal/auth/service"
	authvalidator "membership_backend/internal/auth/validator"
	apphttp "membership_backend/internal/http"
	"membership_backend/platform/db"
	"membership_backend/platform/logger"
	"membership_backend/platform/phone"
	"membership_backend/platform/validator"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the auth module with all its dependencies.
func NewModule(
	repo repository.AuthRepository,
	tx db.Transactor,
	orgs service.OrganisationProvisioner,
	tokens service.TokenIssuer,
	val *validator.Validator,
	phoneNormalizer *phone.Normalizer,
	log *logger.Logger,
) (*Module, error) {
	if err := authvalidator.RegisterRules(val); err != nil {
		return nil, fmt.Errorf("register auth validation rules: %w", err)
	}

	svc := service.New(repo, tx, orgs, tokens, val, phoneNormalizer, log)

	return &Module{
		handler: handler.New(svc),
		service: svc,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Service returns the auth service.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Public.Group("/auth"))

	ctx.Protected.GET("/users/:userId", m.handler.GetUser)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
