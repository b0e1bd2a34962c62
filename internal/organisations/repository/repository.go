package repository

import (
	"context"
	"errors"
	"fmt"

	"membership_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const organisationColumns = `o.id, o.name, o.description, o.created_at, o.updated_at`

const (
	listForMemberQuery = `
		SELECT ` + organisationColumns + `
		FROM organisation_members m
		JOIN organisations o ON o.id = m.organisation_id
		WHERE m.user_id = $1
		ORDER BY m.created_at ASC, o.id ASC`

	getForMemberQuery = `
		SELECT ` + organisationColumns + `
		FROM organisation_members m
		JOIN organisations o ON o.id = m.organisation_id
		WHERE m.organisation_id = $1 AND m.user_id = $2`

	isMemberQuery = `
		SELECT EXISTS (
			SELECT 1 FROM organisation_members
			WHERE organisation_id = $1 AND user_id = $2
		)`

	createQuery = `
		INSERT INTO organisations AS o (name, description)
		VALUES ($1, $2)
		RETURNING ` + organisationColumns

	addMemberQuery = `
		INSERT INTO organisation_members (organisation_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (organisation_id, user_id) DO NOTHING`
)

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool db.DBTX
}

// New creates a new organisations repository.
func New(pool db.DBTX) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// ListForMember retrieves every organisation the user belongs to.
func (r *Repo) ListForMember(ctx context.Context, userID uuid.UUID) ([]Organisation, error) {
	rows, err := r.pool.Query(ctx, listForMemberQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list organisations: %w", err)
	}
	defer rows.Close()

	orgs := make([]Organisation, 0)
	for rows.Next() {
		org, err := scanOrganisation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan organisation: %w", err)
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list organisations: %w", err)
	}
	return orgs, nil
}

// GetForMember retrieves an organisation scoped to one of its members.
func (r *Repo) GetForMember(ctx context.Context, orgID, userID uuid.UUID) (Organisation, error) {
	org, err := scanOrganisation(r.pool.QueryRow(ctx, getForMemberQuery, orgID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Organisation{}, ErrNotFound
		}
		return Organisation{}, fmt.Errorf("get organisation: %w", err)
	}
	return org, nil
}

// IsMember reports whether the user belongs to the organisation.
func (r *Repo) IsMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	var member bool
	if err := r.pool.QueryRow(ctx, isMemberQuery, orgID, userID).Scan(&member); err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return member, nil
}

// Create inserts an organisation.
func (r *Repo) Create(ctx context.Context, q db.DBTX, p CreateParams) (Organisation, error) {
	org, err := scanOrganisation(q.QueryRow(ctx, createQuery, p.Name, p.Description))
	if err != nil {
		return Organisation{}, fmt.Errorf("create organisation: %w", err)
	}
	return org, nil
}

// AddMember links a user to an organisation.
func (r *Repo) AddMember(ctx context.Context, q db.DBTX, orgID, userID uuid.UUID) error {
	if _, err := q.Exec(ctx, addMemberQuery, orgID, userID); err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func scanOrganisation(row pgx.Row) (Organisation, error) {
	var org Organisation
	err := row.Scan(&org.ID, &org.Name, &org.Description, &org.CreatedAt, &org.UpdatedAt)
	return org, err
}
