package service

import (
	"context"
	"errors"

	"membership_backend/internal/organisations/repository"
	"membership_backend/internal/organisations/transport"
	"membership_backend/platform/apperr"
	"membership_backend/platform/db"
	"membership_backend/platform/logger"
	"membership_backend/platform/sanitize"
	"membership_backend/platform/validator"

	"github.com/google/uuid"
)

const (
	MsgUserNotFound = "User not found"
	MsgNotFound     = "Organisation not found or access denied"
	MsgNameRequired = "Name is required"
	MsgWriteFailed  = "Client error"
)

var messages = validator.Messages{
	"name.required": MsgNameRequired,
}

// UserDirectory answers user existence questions for this module. It is
// implemented outside the module so organisations never import auth.
type UserDirectory interface {
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Service provides business logic for organisations and their members.
type Service struct {
	repo      repository.Repository
	tx        db.Transactor
	users     UserDirectory
	validator *validator.Validator
	log       *logger.Logger
}

// New creates a new organisations service.
func New(repo repository.Repository, tx db.Transactor, users UserDirectory, val *validator.Validator, log *logger.Logger) *Service {
	return &Service{repo: repo, tx: tx, users: users, validator: val, log: log}
}

// ValidateOrganisation checks the create request. An empty result means the
// request is acceptable.
func (s *Service) ValidateOrganisation(req transport.CreateOrganisationRequest) []apperr.FieldError {
	return s.validator.Check(req, messages)
}

// ValidateAddUser checks the add user request.
func (s *Service) ValidateAddUser(req transport.AddUserRequest) []apperr.FieldError {
	return s.validator.Check(req, messages)
}

// List returns every organisation the caller belongs to.
func (s *Service) List(ctx context.Context, callerID uuid.UUID) ([]repository.Organisation, error) {
	if err := s.requireUser(ctx, callerID); err != nil {
		return nil, err
	}

	orgs, err := s.repo.ListForMember(ctx, callerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list organisations", err).WithOp("organisations.List")
	}
	return orgs, nil
}

// Get returns one organisation if the caller is a member of it. Missing
// organisations, foreign organisations and malformed ids are reported the
// same way.
func (s *Service) Get(ctx context.Context, callerID uuid.UUID, orgID string) (repository.Organisation, error) {
	if err := s.requireUser(ctx, callerID); err != nil {
		return repository.Organisation{}, err
	}

	id, err := uuid.Parse(orgID)
	if err != nil {
		return repository.Organisation{}, apperr.Forbidden(MsgNotFound)
	}

	org, err := s.repo.GetForMember(ctx, id, callerID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Organisation{}, apperr.Forbidden(MsgNotFound)
	}
	if err != nil {
		return repository.Organisation{}, apperr.Wrap(apperr.KindInternal, "get organisation", err).WithOp("organisations.Get")
	}
	return org, nil
}

// Create creates an organisation with the caller as its only member.
func (s *Service) Create(ctx context.Context, callerID uuid.UUID, req transport.CreateOrganisationRequest) (repository.Organisation, error) {
	if err := s.requireUser(ctx, callerID); err != nil {
		return repository.Organisation{}, err
	}

	req.Name = sanitize.Text(req.Name)
	req.Description = sanitize.Text(req.Description)
	if fields := s.ValidateOrganisation(req); len(fields) > 0 {
		return repository.Organisation{}, apperr.Validation(fields...)
	}

	var org repository.Organisation
	err := s.tx.WithinTx(ctx, func(q db.DBTX) error {
		var err error
		org, err = s.create(ctx, q, callerID, req.Name, req.Description)
		return err
	})
	if err != nil {
		s.log.WithContext(ctx).DatabaseError("create_organisation", err)
		return repository.Organisation{}, apperr.Persistence(MsgWriteFailed, err).WithOp("organisations.Create")
	}

	s.log.WithContext(ctx).Info("organisation_created", "org_id", org.ID.String())
	return org, nil
}

// CreateForUser creates an organisation and links userID inside the
// caller's transaction.
func (s *Service) CreateForUser(ctx context.Context, q db.DBTX, userID uuid.UUID, name, description string) (uuid.UUID, error) {
	org, err := s.create(ctx, q, userID, sanitize.Text(name), sanitize.Text(description))
	if err != nil {
		return uuid.UUID{}, err
	}
	return org.ID, nil
}

// RequireMember resolves orgID and checks that the caller belongs to it.
// Non-members and unknown organisations get the same error.
func (s *Service) RequireMember(ctx context.Context, callerID uuid.UUID, orgID string) (uuid.UUID, error) {
	if err := s.requireUser(ctx, callerID); err != nil {
		return uuid.UUID{}, err
	}

	id, err := uuid.Parse(orgID)
	if err != nil {
		return uuid.UUID{}, apperr.Forbidden(MsgNotFound)
	}

	member, err := s.repo.IsMember(ctx, id, callerID)
	if err != nil {
		return uuid.UUID{}, apperr.Wrap(apperr.KindInternal, "check membership", err).WithOp("organisations.RequireMember")
	}
	if !member {
		return uuid.UUID{}, apperr.Forbidden(MsgNotFound)
	}
	return id, nil
}

// AddUser adds an existing user to an organisation the caller belongs to.
// Adding a user who is already a member succeeds without changes.
func (s *Service) AddUser(ctx context.Context, callerID uuid.UUID, orgID string, req transport.AddUserRequest) error {
	id, err := s.RequireMember(ctx, callerID, orgID)
	if err != nil {
		return err
	}

	if fields := s.ValidateAddUser(req); len(fields) > 0 {
		return apperr.Validation(fields...)
	}

	targetID, err := uuid.Parse(req.UserID)
	if err != nil {
		return apperr.NotFound(MsgUserNotFound)
	}
	if err := s.requireUser(ctx, targetID); err != nil {
		return err
	}

	err = s.tx.WithinTx(ctx, func(q db.DBTX) error {
		return s.repo.AddMember(ctx, q, id, targetID)
	})
	if err != nil {
		s.log.WithContext(ctx).DatabaseError("add_organisation_member", err)
		return apperr.Persistence(MsgWriteFailed, err).WithOp("organisations.AddUser")
	}

	s.log.WithContext(ctx).Info("organisation_member_added",
		"org_id", id.String(),
		"member_id", targetID.String(),
	)
	return nil
}

func (s *Service) create(ctx context.Context, q db.DBTX, userID uuid.UUID, name, description string) (repository.Organisation, error) {
	org, err := s.repo.Create(ctx, q, repository.CreateParams{Name: name, Description: description})
	if err != nil {
		return repository.Organisation{}, err
	}
	if err := s.repo.AddMember(ctx, q, org.ID, userID); err != nil {
		return repository.Organisation{}, err
	}
	return org, nil
}

func (s *Service) requireUser(ctx context.Context, userID uuid.UUID) error {
	exists, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "load user", err)
	}
	if !exists {
		return apperr.NotFound(MsgUserNotFound)
	}
	return nil
}
