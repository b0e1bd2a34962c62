// Package memory implements the user and organisation stores in process
// memory. It backs tests and local runs with STORE_DRIVER=memory; data is
// lost on restart.
package memory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	authrepo "membership_backend/internal/auth/repository"
	orgrepo "membership_backend/internal/organisations/repository"
	"membership_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNoSQL is returned by the handle passed to WithinTx callbacks if a
// caller tries to run SQL against the memory store.
var ErrNoSQL = errors.New("memory store does not execute SQL")

type membership struct {
	orgID     uuid.UUID
	userID    uuid.UUID
	createdAt time.Time
}

type state struct {
	users       map[uuid.UUID]authrepo.User
	usersByMail map[string]uuid.UUID
	orgs        map[uuid.UUID]orgrepo.Organisation
	members     []membership
}

func (s state) clone() state {
	return state{
		users:       maps.Clone(s.users),
		usersByMail: maps.Clone(s.usersByMail),
		orgs:        maps.Clone(s.orgs),
		members:     slices.Clone(s.members),
	}
}

// Store implements the auth and organisation repositories plus
// db.Transactor. Writers are serialized and stage their changes in a private
// copy of the committed state; readers only ever see committed state.
type Store struct {
	txMu sync.Mutex

	mu        sync.RWMutex
	committed state
	now       func() time.Time
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		committed: state{
			users:       make(map[uuid.UUID]authrepo.User),
			usersByMail: make(map[string]uuid.UUID),
			orgs:        make(map[uuid.UUID]orgrepo.Organisation),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

var (
	_ authrepo.AuthRepository = (*Store)(nil)
	_ orgrepo.Repository      = (*Store)(nil)
	_ db.Transactor           = (*Store)(nil)
)

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// WithinTx runs fn as a single unit of work. Writes made through q are
// published together when fn returns nil and dropped otherwise.
func (s *Store) WithinTx(ctx context.Context, fn func(q db.DBTX) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	t := &tx{owner: s, state: s.committed.clone()}
	s.mu.RUnlock()

	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.committed = t.state
	s.mu.Unlock()
	return nil
}

// write applies fn to the staged state of q's transaction. A q that is not
// one of this store's transactions gets a transaction of its own.
func (s *Store) write(ctx context.Context, q db.DBTX, fn func(st *state) error) error {
	if t, ok := q.(*tx); ok && t.owner == s {
		return fn(&t.state)
	}
	return s.WithinTx(ctx, func(q db.DBTX) error {
		return fn(&q.(*tx).state)
	})
}

func (s *Store) read() (state, func()) {
	s.mu.RLock()
	return s.committed, s.mu.RUnlock
}

// CreateUser stores a new user. A duplicate email yields
// authrepo.ErrEmailTaken.
func (s *Store) CreateUser(ctx context.Context, q db.DBTX, p authrepo.CreateUserParams) (authrepo.User, error) {
	var user authrepo.User
	err := s.write(ctx, q, func(st *state) error {
		if _, exists := st.usersByMail[p.Email]; exists {
			return authrepo.ErrEmailTaken
		}

		now := s.now()
		user = authrepo.User{
			ID:           uuid.New(),
			FirstName:    p.FirstName,
			LastName:     p.LastName,
			Email:        p.Email,
			PasswordHash: p.PasswordHash,
			Phone:        clonePtr(p.Phone),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		st.users[user.ID] = user
		st.usersByMail[user.Email] = user.ID
		return nil
	})
	if err != nil {
		return authrepo.User{}, err
	}
	return copyUser(user), nil
}

// GetUserByEmail retrieves a user by exact email.
func (s *Store) GetUserByEmail(_ context.Context, email string) (authrepo.User, error) {
	st, done := s.read()
	defer done()

	id, exists := st.usersByMail[email]
	if !exists {
		return authrepo.User{}, authrepo.ErrNotFound
	}
	return copyUser(st.users[id]), nil
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(_ context.Context, userID uuid.UUID) (authrepo.User, error) {
	st, done := s.read()
	defer done()

	user, exists := st.users[userID]
	if !exists {
		return authrepo.User{}, authrepo.ErrNotFound
	}
	return copyUser(user), nil
}

// SharesOrganisation reports whether both users belong to a common
// organisation.
func (s *Store) SharesOrganisation(_ context.Context, userID, otherUserID uuid.UUID) (bool, error) {
	st, done := s.read()
	defer done()

	orgs := make(map[uuid.UUID]struct{})
	for _, m := range st.members {
		if m.userID == userID {
			orgs[m.orgID] = struct{}{}
		}
	}
	for _, m := range st.members {
		if _, ok := orgs[m.orgID]; ok && m.userID == otherUserID {
			return true, nil
		}
	}
	return false, nil
}

// ListForMember returns the user's organisations in membership order.
func (s *Store) ListForMember(_ context.Context, userID uuid.UUID) ([]orgrepo.Organisation, error) {
	st, done := s.read()
	defer done()

	orgs := make([]orgrepo.Organisation, 0)
	for _, m := range st.members {
		if m.userID == userID {
			orgs = append(orgs, st.orgs[m.orgID])
		}
	}
	return orgs, nil
}

// GetForMember returns the organisation if userID is one of its members.
func (s *Store) GetForMember(_ context.Context, orgID, userID uuid.UUID) (orgrepo.Organisation, error) {
	st, done := s.read()
	defer done()

	if !st.isMember(orgID, userID) {
		return orgrepo.Organisation{}, orgrepo.ErrNotFound
	}
	return st.orgs[orgID], nil
}

// IsMember reports whether userID belongs to orgID.
func (s *Store) IsMember(_ context.Context, orgID, userID uuid.UUID) (bool, error) {
	st, done := s.read()
	defer done()

	return st.isMember(orgID, userID), nil
}

// Create stores a new organisation.
func (s *Store) Create(ctx context.Context, q db.DBTX, p orgrepo.CreateParams) (orgrepo.Organisation, error) {
	var org orgrepo.Organisation
	err := s.write(ctx, q, func(st *state) error {
		now := s.now()
		org = orgrepo.Organisation{
			ID:          uuid.New(),
			Name:        p.Name,
			Description: p.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		st.orgs[org.ID] = org
		return nil
	})
	if err != nil {
		return orgrepo.Organisation{}, err
	}
	return org, nil
}

// AddMember links userID to orgID. Existing memberships are left untouched.
func (s *Store) AddMember(ctx context.Context, q db.DBTX, orgID, userID uuid.UUID) error {
	return s.write(ctx, q, func(st *state) error {
		if _, exists := st.orgs[orgID]; !exists {
			return orgrepo.ErrNotFound
		}
		if _, exists := st.users[userID]; !exists {
			return orgrepo.ErrNotFound
		}
		if st.isMember(orgID, userID) {
			return nil
		}

		st.members = append(st.members, membership{
			orgID:     orgID,
			userID:    userID,
			createdAt: s.now(),
		})
		return nil
	})
}

func (st state) isMember(orgID, userID uuid.UUID) bool {
	return slices.ContainsFunc(st.members, func(m membership) bool {
		return m.orgID == orgID && m.userID == userID
	})
}

func copyUser(user authrepo.User) authrepo.User {
	user.Phone = clonePtr(user.Phone)
	return user
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// tx is the db.DBTX given to transaction callbacks. It carries the staged
// state and runs no SQL.
type tx struct {
	owner *Store
	state state
}

func (*tx) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, ErrNoSQL
}

func (*tx) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, ErrNoSQL
}

func (*tx) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return errRow{}
}

type errRow struct{}

func (errRow) Scan(...any) error {
	return ErrNoSQL
}
