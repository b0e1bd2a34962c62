package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"membership_backend/internal/auth"
	"membership_backend/internal/auth/adapter"
	authrepo "membership_backend/internal/auth/repository"
	"membership_backend/internal/auth/token"
	apphttp "membership_backend/internal/http"
	"membership_backend/internal/http/router"
	"membership_backend/internal/organisations"
	orgrepo "membership_backend/internal/organisations/repository"
	"membership_backend/internal/store/memory"
	"membership_backend/platform/db"
	"membership_backend/platform/logger"
	"membership_backend/platform/phone"
	"membership_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testConfig struct{}

func (testConfig) GetHTTPAddr() string               { return ":0" }
func (testConfig) GetCORSAllowAll() bool             { return true }
func (testConfig) GetCORSOrigins() []string          { return nil }
func (testConfig) GetCORSAllowCreds() bool           { return false }
func (testConfig) GetShutdownTimeout() time.Duration { return time.Second }
func (testConfig) GetJWTAccessSecret() string        { return "router-test-secret" }
func (testConfig) GetAccessTokenTTL() time.Duration  { return 15 * time.Minute }

type envelope struct {
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Errors     []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

type authData struct {
	AccessToken string `json:"accessToken"`
	User        struct {
		UserID    string  `json:"userId"`
		FirstName string  `json:"firstName"`
		Email     string  `json:"email"`
		Phone     *string `json:"phone"`
	} `json:"user"`
}

type orgData struct {
	OrgID       string `json:"orgId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type server struct {
	t      *testing.T
	engine *gin.Engine
	tokens *token.Manager
	users  authrepo.AuthRepository
}

func newServer(t *testing.T) *server {
	t.Helper()
	st := memory.New()
	return newServerWith(t, st, st, st, st)
}

func newServerWith(t *testing.T, users authrepo.AuthRepository, orgs orgrepo.Repository, tx db.Transactor, health apphttp.HealthChecker) *server {
	t.Helper()

	log := logger.Discard()
	val := validator.New()
	tokens := token.NewManager(testConfig{})

	orgModule := organisations.NewModule(orgs, tx, adapter.NewUserDirectoryAdapter(users), val, log)
	authModule, err := auth.NewModule(users, tx, orgModule.Service(), tokens, val, phone.NewNormalizer("NL"), log)
	require.NoError(t, err)

	engine := router.New(&apphttp.App{
		Config:  testConfig{},
		Logger:  log,
		Health:  health,
		Tokens:  tokens,
		Modules: []apphttp.Module{authModule, orgModule},
	})
	return &server{t: t, engine: engine, tokens: tokens, users: users}
}

func (s *server) do(method, path, accessToken string, body any) (int, envelope) {
	s.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var env envelope
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func (s *server) register(email, firstName string) authData {
	s.t.Helper()
	status, env := s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"firstName": firstName,
		"lastName":  "Doe",
		"email":     email,
		"password":  "s3cret",
		"phone":     "0612345678",
	})
	require.Equal(s.t, http.StatusCreated, status, env.Message)

	var data authData
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	return data
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestRegisterAndLogin(t *testing.T) {
	s := newServer(t)

	registered := s.register("jane@example.com", "Jane")
	require.NotEmpty(t, registered.AccessToken)
	require.Equal(t, "Jane", registered.User.FirstName)
	require.NotNil(t, registered.User.Phone)

	subject, err := s.tokens.Verify(registered.AccessToken)
	require.NoError(t, err)
	require.Equal(t, registered.User.UserID, subject.String())

	status, env := s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "jane@example.com", "password": "s3cret",
	})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "success", env.Status)
	require.Equal(t, "Login successful", env.Message)
	loggedIn := decode[authData](t, env.Data)
	subject, err = s.tokens.Verify(loggedIn.AccessToken)
	require.NoError(t, err)
	require.Equal(t, registered.User.UserID, subject.String())
}

func TestRegisterDefaultOrganisation(t *testing.T) {
	s := newServer(t)
	jane := s.register("jane@example.com", "Jane")

	status, env := s.do(http.MethodGet, "/api/organisations", jane.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[struct {
		Organisations []orgData `json:"organisations"`
	}](t, env.Data)
	require.Len(t, list.Organisations, 1)
	require.Equal(t, "Jane's Organisation", list.Organisations[0].Name)
	janeOrg := list.Organisations[0].OrgID

	john := s.register("john@example.com", "John")

	status, env = s.do(http.MethodGet, "/api/organisations/"+janeOrg, john.AccessToken, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "Organisation not found or access denied", env.Message)

	status, env = s.do(http.MethodGet, "/api/organisations", john.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	johnOrgs := decode[struct {
		Organisations []orgData `json:"organisations"`
	}](t, env.Data).Organisations
	require.Len(t, johnOrgs, 1)
	require.NotEqual(t, janeOrg, johnOrgs[0].OrgID)

	shared, err := s.users.SharesOrganisation(context.Background(),
		uuid.MustParse(jane.User.UserID), uuid.MustParse(john.User.UserID))
	require.NoError(t, err)
	require.False(t, shared)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newServer(t)
	s.register("jane@example.com", "Jane")

	status, env := s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"firstName": "Other", "lastName": "Doe", "email": "jane@example.com", "password": "x", "phone": "1",
	})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	require.Len(t, env.Errors, 1)
	require.Equal(t, "email", env.Errors[0].Field)
	require.Equal(t, "Email already exists", env.Errors[0].Message)
}

func TestRegisterMissingFields(t *testing.T) {
	s := newServer(t)

	for _, field := range []string{"firstName", "lastName", "email", "password", "phone"} {
		t.Run(field, func(t *testing.T) {
			body := map[string]string{
				"firstName": "Jane", "lastName": "Doe", "email": "jane@example.com", "password": "x", "phone": "1",
			}
			delete(body, field)

			status, env := s.do(http.MethodPost, "/auth/register", "", body)
			require.Equal(t, http.StatusUnprocessableEntity, status)
			require.Equal(t, http.StatusUnprocessableEntity, env.StatusCode)

			var fields []string
			for _, fe := range env.Errors {
				fields = append(fields, fe.Field)
			}
			require.Contains(t, fields, field)
		})
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	s := newServer(t)
	s.register("jane@example.com", "Jane")

	wrongStatus, wrong := s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "jane@example.com", "password": "wrong",
	})
	unknownStatus, unknown := s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "nobody@example.com", "password": "s3cret",
	})

	require.Equal(t, http.StatusUnauthorized, wrongStatus)
	require.Equal(t, wrongStatus, unknownStatus)
	require.Equal(t, wrong, unknown)
	require.Equal(t, "Authentication failed", wrong.Message)

	status, env := s.do(http.MethodPost, "/auth/login", "", map[string]string{})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	require.Len(t, env.Errors, 2)
}

func TestOrganisationsRequireBearerToken(t *testing.T) {
	s := newServer(t)

	status, _ := s.do(http.MethodGet, "/api/organisations", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(http.MethodGet, "/api/organisations", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestOrganisationAccessIsGatedByMembership(t *testing.T) {
	s := newServer(t)
	jane := s.register("jane@example.com", "Jane")
	john := s.register("john@example.com", "John")

	status, env := s.do(http.MethodPost, "/api/organisations", jane.AccessToken, map[string]string{
		"name": "Acme", "description": "Widgets",
	})
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "Organisation created successfully", env.Message)
	acme := decode[orgData](t, env.Data)
	require.Equal(t, "Widgets", acme.Description)

	status, env = s.do(http.MethodGet, "/api/organisations/"+acme.OrgID, john.AccessToken, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "Organisation not found or access denied", env.Message)

	status, _ = s.do(http.MethodGet, "/api/organisations/"+uuid.NewString(), jane.AccessToken, nil)
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(http.MethodGet, "/api/organisations/not-a-uuid", jane.AccessToken, nil)
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(http.MethodPost, "/api/organisations/"+acme.OrgID+"/users", john.AccessToken,
		map[string]string{"userId": john.User.UserID})
	require.Equal(t, http.StatusBadRequest, status)

	status, env = s.do(http.MethodPost, "/api/organisations/"+acme.OrgID+"/users", jane.AccessToken,
		map[string]string{"userId": john.User.UserID})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "User added to organisation successfully", env.Message)

	status, env = s.do(http.MethodGet, "/api/organisations/"+acme.OrgID, john.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Acme", decode[orgData](t, env.Data).Name)

	status, _ = s.do(http.MethodGet, "/api/users/"+jane.User.UserID, john.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
}

func TestAddUserChecksMembershipBeforeBody(t *testing.T) {
	s := newServer(t)
	jane := s.register("jane@example.com", "Jane")
	john := s.register("john@example.com", "John")

	_, env := s.do(http.MethodGet, "/api/organisations", jane.AccessToken, nil)
	orgID := decode[struct {
		Organisations []orgData `json:"organisations"`
	}](t, env.Data).Organisations[0].OrgID

	status, env := s.do(http.MethodPost, "/api/organisations/"+orgID+"/users", john.AccessToken, "{not json")
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "Organisation not found or access denied", env.Message)

	status, env = s.do(http.MethodPost, "/api/organisations/"+uuid.NewString()+"/users", john.AccessToken, "{not json")
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "Organisation not found or access denied", env.Message)

	status, env = s.do(http.MethodPost, "/api/organisations/"+orgID+"/users", jane.AccessToken, "{not json")
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "invalid request", env.Message)
}

func TestCreateOrganisationValidation(t *testing.T) {
	s := newServer(t)
	jane := s.register("jane@example.com", "Jane")

	status, env := s.do(http.MethodPost, "/api/organisations", jane.AccessToken, map[string]string{"description": "x"})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	require.Equal(t, "name", env.Errors[0].Field)
	require.Equal(t, "Name is required", env.Errors[0].Message)

	status, env = s.do(http.MethodPost, "/api/organisations", jane.AccessToken, "{not json")
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "invalid request", env.Message)
}

func TestAddUserValidation(t *testing.T) {
	s := newServer(t)
	jane := s.register("jane@example.com", "Jane")

	_, env := s.do(http.MethodGet, "/api/organisations", jane.AccessToken, nil)
	orgID := decode[struct {
		Organisations []orgData `json:"organisations"`
	}](t, env.Data).Organisations[0].OrgID

	status, env := s.do(http.MethodPost, "/api/organisations/"+orgID+"/users", jane.AccessToken, map[string]string{})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	require.Equal(t, "userId", env.Errors[0].Field)

	status, env = s.do(http.MethodPost, "/api/organisations/"+orgID+"/users", jane.AccessToken,
		map[string]string{"userId": uuid.NewString()})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "User not found", env.Message)
}

func TestGetUserVisibility(t *testing.T) {
	s := newServer(t)
	jane := s.register("jane@example.com", "Jane")
	john := s.register("john@example.com", "John")

	status, env := s.do(http.MethodGet, "/api/users/"+jane.User.UserID, jane.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "User retrieved successfully", env.Message)

	status, env = s.do(http.MethodGet, "/api/users/"+jane.User.UserID, john.AccessToken, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "User not found", env.Message)

	status, _ = s.do(http.MethodGet, "/api/users/not-a-uuid", john.AccessToken, nil)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	s := newServer(t)

	status, _ := s.do(http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(http.MethodGet, "/api/health/ready", "", nil)
	require.Equal(t, http.StatusOK, status)

	status, env := s.do(http.MethodGet, "/api/nope", "", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "Not found", env.Status)
}

func TestTrailingSlashIsNotRedirected(t *testing.T) {
	s := newServer(t)
	jane := s.register("jane@example.com", "Jane")

	for _, path := range []string{"/api/organisations/", "/auth/login/", "/api/health/"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.Header.Set("Authorization", "Bearer "+jane.AccessToken)
			s.engine.ServeHTTP(rec, req)

			require.Equal(t, http.StatusNotFound, rec.Code)
			require.Empty(t, rec.Header().Get("Location"))
			require.Contains(t, rec.Header().Get("Content-Type"), "application/json")

			var env envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
			require.Equal(t, "Not found", env.Status)
			require.Equal(t, http.StatusNotFound, env.StatusCode)
		})
	}
}

func TestResponsesCarryRequestID(t *testing.T) {
	s := newServer(t)

	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", strings.NewReader("")))
	_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
	require.NoError(t, err)
}
