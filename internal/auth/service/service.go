package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"membership_backend/internal/auth/password"
	"membership_backend/internal/auth/repository"
	"membership_backend/internal/auth/transport"
	authvalidator "membership_backend/internal/auth/validator"
	"membership_backend/platform/apperr"
	"membership_backend/platform/db"
	"membership_backend/platform/logger"
	"membership_backend/platform/phone"
	"membership_backend/platform/sanitize"
	"membership_backend/platform/validator"

	"github.com/google/uuid"
)

const (
	MsgRegistrationFailed = "Registration unsuccessful"
	MsgAuthFailed         = "Authentication failed"
	MsgUserNotFound       = "User not found"
	MsgEmailTaken         = "Email already exists"
	MsgPasswordTooLong    = "password must be at most 72 bytes"
)

// OrganisationProvisioner creates the default organisation of a new user
// inside the registration transaction.
type OrganisationProvisioner interface {
	CreateForUser(ctx context.Context, q db.DBTX, userID uuid.UUID, name, description string) (uuid.UUID, error)
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	AccessToken string
	User        repository.User
}

type Service struct {
	repo      repository.AuthRepository
	tx        db.Transactor
	orgs      OrganisationProvisioner
	tokens    TokenIssuer
	validator *validator.Validator
	phone     *phone.Normalizer
	log       *logger.Logger
}

func New(
	repo repository.AuthRepository,
	tx db.Transactor,
	orgs OrganisationProvisioner,
	tokens TokenIssuer,
	val *validator.Validator,
	phoneNormalizer *phone.Normalizer,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		tx:        tx,
		orgs:      orgs,
		tokens:    tokens,
		validator: val,
		phone:     phoneNormalizer,
		log:       log,
	}
}

// Register creates a user together with a personal organisation and returns
// a signed access token. The user, the organisation and the membership are
// written in one transaction.
func (s *Service) Register(ctx context.Context, req transport.RegisterRequest) (AuthResult, error) {
	req.FirstName = sanitize.Text(req.FirstName)
	req.LastName = sanitize.Text(req.LastName)
	req.Email = normalizeEmail(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)

	if fields := authvalidator.ValidateRegistration(s.validator, req); len(fields) > 0 {
		return AuthResult{}, apperr.Validation(fields...)
	}

	log := s.log.WithContext(ctx)

	_, err := s.repo.GetUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		log.AuthEvent("register", req.Email, false, "email taken")
		return AuthResult{}, apperr.Field("email", MsgEmailTaken)
	case !errors.Is(err, repository.ErrNotFound):
		log.DatabaseError("get_user_by_email", err)
		return AuthResult{}, apperr.Persistence(MsgRegistrationFailed, err).WithOp("auth.Register")
	}

	hash, err := password.Hash(req.Password)
	if errors.Is(err, password.ErrTooLong) {
		return AuthResult{}, apperr.Field("password", MsgPasswordTooLong)
	}
	if err != nil {
		return AuthResult{}, apperr.Wrap(apperr.KindInternal, "hash password", err)
	}

	var result AuthResult
	err = s.tx.WithinTx(ctx, func(q db.DBTX) error {
		user, err := s.repo.CreateUser(ctx, q, repository.CreateUserParams{
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Email:        req.Email,
			PasswordHash: hash,
			Phone:        s.normalizePhone(req.Phone),
		})
		if err != nil {
			return err
		}

		orgName := fmt.Sprintf("%s's Organisation", user.FirstName)
		if _, err := s.orgs.CreateForUser(ctx, q, user.ID, orgName, ""); err != nil {
			return err
		}

		accessToken, err := s.tokens.Issue(user.ID)
		if err != nil {
			return err
		}

		result = AuthResult{AccessToken: accessToken, User: user}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			log.AuthEvent("register", req.Email, false, "email taken")
			return AuthResult{}, apperr.Field("email", MsgEmailTaken)
		}
		log.DatabaseError("register_user", err)
		return AuthResult{}, apperr.Persistence(MsgRegistrationFailed, err).WithOp("auth.Register")
	}

	log.AuthEvent("register", req.Email, true, "")
	return result, nil
}

// Login checks credentials and returns a signed access token. An unknown
// email and a wrong password produce the same error.
func (s *Service) Login(ctx context.Context, req transport.LoginRequest) (AuthResult, error) {
	req.Email = normalizeEmail(req.Email)

	if fields := authvalidator.ValidateLogin(s.validator, req); len(fields) > 0 {
		return AuthResult{}, apperr.Validation(fields...)
	}

	log := s.log.WithContext(ctx)

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return AuthResult{}, apperr.Wrap(apperr.KindInternal, "load user", err).WithOp("auth.Login")
		}
		password.CompareDummy(req.Password)
		log.AuthEvent("login", req.Email, false, "invalid credentials")
		return AuthResult{}, apperr.Unauthorized(MsgAuthFailed)
	}

	if err := password.Compare(user.PasswordHash, req.Password); err != nil {
		log.AuthEvent("login", req.Email, false, "invalid credentials")
		return AuthResult{}, apperr.Unauthorized(MsgAuthFailed)
	}

	accessToken, err := s.tokens.Issue(user.ID)
	if err != nil {
		return AuthResult{}, apperr.Wrap(apperr.KindInternal, "issue token", err).WithOp("auth.Login")
	}

	log.AuthEvent("login", req.Email, true, "")
	return AuthResult{AccessToken: accessToken, User: user}, nil
}

// GetUser returns userID as seen by callerID. A user is visible to
// themselves and to anyone sharing an organisation with them; every other
// case is reported as not found.
func (s *Service) GetUser(ctx context.Context, callerID, userID uuid.UUID) (repository.User, error) {
	caller, err := s.loadUser(ctx, callerID)
	if err != nil {
		return repository.User{}, err
	}
	if callerID == userID {
		return caller, nil
	}

	target, err := s.loadUser(ctx, userID)
	if err != nil {
		return repository.User{}, err
	}

	shared, err := s.repo.SharesOrganisation(ctx, callerID, userID)
	if err != nil {
		return repository.User{}, apperr.Wrap(apperr.KindInternal, "check shared organisation", err).WithOp("auth.GetUser")
	}
	if !shared {
		return repository.User{}, apperr.NotFound(MsgUserNotFound)
	}
	return target, nil
}

func (s *Service) loadUser(ctx context.Context, userID uuid.UUID) (repository.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.User{}, apperr.NotFound(MsgUserNotFound)
	}
	if err != nil {
		return repository.User{}, apperr.Wrap(apperr.KindInternal, "load user", err).WithOp("auth.GetUser")
	}
	return user, nil
}

func (s *Service) normalizePhone(raw string) *string {
	if raw == "" {
		return nil
	}
	normalized := s.phone.NormalizeE164(raw)
	return &normalized
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
