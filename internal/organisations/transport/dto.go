package transport

import "github.com/google/uuid"

// CreateOrganisationRequest contains data for creating an organisation.
type CreateOrganisationRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// AddUserRequest names the user to add to an organisation.
type AddUserRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// OrganisationResponse represents an organisation in API responses.
type OrganisationResponse struct {
	OrgID       uuid.UUID `json:"orgId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

// OrganisationListResponse wraps the caller's organisations.
type OrganisationListResponse struct {
	Organisations []OrganisationResponse `json:"organisations"`
}
