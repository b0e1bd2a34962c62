package handler

import (
	"membership_backend/internal/organisations/repository"
	"membership_backend/internal/organisations/service"
	"membership_backend/internal/organisations/transport"
	"membership_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const (
	msgListed    = "Organisations retrieved successfully"
	msgRetrieved = "Organisation retrieved successfully"
	msgCreated   = "Organisation created successfully"
	msgUserAdded = "User added to organisation successfully"
)

// Handler handles HTTP requests for organisations.
type Handler struct {
	svc *service.Service
}

// New creates a new organisations handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// List returns the caller's organisations.
// GET /api/organisations
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	orgs, err := h.svc.List(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.OrganisationResponse, 0, len(orgs))
	for _, org := range orgs {
		items = append(items, toResponse(org))
	}
	httpkit.OK(c, msgListed, transport.OrganisationListResponse{Organisations: items})
}

// Get returns one organisation the caller belongs to.
// GET /api/organisations/:orgId
func (h *Handler) Get(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	org, err := h.svc.Get(c.Request.Context(), identity.UserID(), c.Param("orgId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, msgRetrieved, toResponse(org))
}

// Create creates an organisation owned by the caller.
// POST /api/organisations
func (h *Handler) Create(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.CreateOrganisationRequest
	if !httpkit.BindJSON(c, &req) {
		return
	}

	org, err := h.svc.Create(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, msgCreated, toResponse(org))
}

// AddUser adds a user to an organisation the caller belongs to.
// POST /api/organisations/:orgId/users
func (h *Handler) AddUser(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	_, err := h.svc.RequireMember(c.Request.Context(), identity.UserID(), c.Param("orgId"))
	if httpkit.HandleError(c, err) {
		return
	}

	var req transport.AddUserRequest
	if !httpkit.BindJSON(c, &req) {
		return
	}

	err = h.svc.AddUser(c.Request.Context(), identity.UserID(), c.Param("orgId"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, msgUserAdded, nil)
}

func toResponse(org repository.Organisation) transport.OrganisationResponse {
	return transport.OrganisationResponse{
		OrgID:       org.ID,
		Name:        org.Name,
		Description: org.Description,
	}
}
