package repository

import (
	"context"

	"membership_backend/platform/db"

	"github.com/google/uuid"
)

// UserReader is the read side of the user store, used by adapters that
// expose user information to other modules.
type UserReader interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (User, error)
}

// AuthRepository defines the interface for authentication data operations.
// This allows services to depend on an abstraction rather than concrete implementation,
// improving testability and modularity.
type AuthRepository interface {
	UserReader

	// CreateUser writes through q so registration can join a transaction.
	CreateUser(ctx context.Context, q db.DBTX, p CreateUserParams) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	SharesOrganisation(ctx context.Context, userID, otherUserID uuid.UUID) (bool, error)
}

// Ensure Repository implements AuthRepository
var _ AuthRepository = (*Repository)(nil)
