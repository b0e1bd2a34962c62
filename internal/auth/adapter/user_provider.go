// Package adapter provides implementations of external interfaces that other domains need.
// The auth domain provides adapters that satisfy consumer-driven interfaces
// defined by other domains.
package adapter

import (
	"context"
	"errors"

	"membership_backend/internal/auth/repository"
	orgservice "membership_backend/internal/organisations/service"

	"github.com/google/uuid"
)

// UserDirectoryAdapter implements organisations/service.UserDirectory.
type UserDirectoryAdapter struct {
	repo repository.UserReader
}

// NewUserDirectoryAdapter creates a new adapter for checking user existence.
func NewUserDirectoryAdapter(repo repository.UserReader) *UserDirectoryAdapter {
	return &UserDirectoryAdapter{repo: repo}
}

// UserExists implements orgservice.UserDirectory.
func (a *UserDirectoryAdapter) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	_, err := a.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Ensure UserDirectoryAdapter implements orgservice.UserDirectory
var _ orgservice.UserDirectory = (*UserDirectoryAdapter)(nil)
