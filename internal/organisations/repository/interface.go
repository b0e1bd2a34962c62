package repository

import (
	"context"
	"errors"
	"time"

	"membership_backend/platform/db"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an organisation does not exist or the user
// is not one of its members.
var ErrNotFound = errors.New("organisation not found")

// Organisation is a group of users.
type Organisation struct {
	ID          uuid.UUID
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateParams contains parameters for creating an organisation.
type CreateParams struct {
	Name        string
	Description string
}

// Repository defines the organisation store. Writes take a db.DBTX so they
// can join the caller's transaction.
type Repository interface {
	// ListForMember returns the organisations userID belongs to, in the order
	// the memberships were created.
	ListForMember(ctx context.Context, userID uuid.UUID) ([]Organisation, error)
	// GetForMember returns the organisation only if userID is a member.
	GetForMember(ctx context.Context, orgID, userID uuid.UUID) (Organisation, error)
	IsMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error)

	Create(ctx context.Context, q db.DBTX, p CreateParams) (Organisation, error)
	// AddMember links userID to orgID. Adding an existing member is a no-op.
	AddMember(ctx context.Context, q db.DBTX, orgID, userID uuid.UUID) error
}
