package repository

import (
	"context"
	"errors"
	"time"

	"membership_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("not found")
var ErrEmailTaken = errors.New("email already exists")

// emailUniqueConstraint is the unique constraint on users.email.
const emailUniqueConstraint = "users_email_key"

const userColumns = `id, first_name, last_name, email, password_hash, phone, created_at, updated_at`

const (
	createUserQuery = `
		INSERT INTO users (first_name, last_name, email, password_hash, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	getUserByEmailQuery = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	getUserByIDQuery = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	sharesOrganisationQuery = `
		SELECT EXISTS (
			SELECT 1
			FROM organisation_members a
			JOIN organisation_members b ON b.organisation_id = a.organisation_id
			WHERE a.user_id = $1 AND b.user_id = $2
		)`
)

type Repository struct {
	pool db.DBTX
}

func New(pool db.DBTX) *Repository {
	return &Repository{pool: pool}
}

type User struct {
	ID           uuid.UUID
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Phone        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CreateUserParams struct {
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Phone        *string
}

// CreateUser inserts a user through q so it can take part in the caller's
// transaction. A duplicate email yields ErrEmailTaken.
func (r *Repository) CreateUser(ctx context.Context, q db.DBTX, p CreateUserParams) (User, error) {
	user, err := scanUser(q.QueryRow(ctx, createUserQuery,
		p.FirstName, p.LastName, p.Email, p.PasswordHash, p.Phone,
	))
	if db.IsUniqueViolation(err, emailUniqueConstraint) {
		return User{}, ErrEmailTaken
	}
	return user, err
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, getUserByEmailQuery, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return user, err
}

func (r *Repository) GetUserByID(ctx context.Context, userID uuid.UUID) (User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, getUserByIDQuery, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return user, err
}

// SharesOrganisation reports whether both users are members of at least one
// common organisation.
func (r *Repository) SharesOrganisation(ctx context.Context, userID, otherUserID uuid.UUID) (bool, error) {
	var shared bool
	err := r.pool.QueryRow(ctx, sharesOrganisationQuery, userID, otherUserID).Scan(&shared)
	return shared, err
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.Phone,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}
