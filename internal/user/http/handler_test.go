package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/venue-booking-backend/internal/auth"
	"github.com/nekogravitycat/venue-booking-backend/internal/user"
)

const (
	guestID = "6f1c2a5e-0b7d-4c1e-9a43-2d7f8e9b1c10"
	adminID = "9e8d7c6b-5a4f-4e3d-8c2b-1a0f9e8d7c6b"
)

type stubService struct {
	user.Service
	users   map[string]*user.User
	updated user.UpdateRequest
	err     error
}

func (s *stubService) Register(_ context.Context, email, _, _ string) (*user.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &user.User{ID: guestID, Email: email, Role: auth.RoleUser, IsActive: true}, nil
}

func (s *stubService) Login(_ context.Context, email, password string) (*user.User, error) {
	for _, u := range s.users {
		if u.Email == email && password == "password123" {
			return u, nil
		}
	}
	return nil, user.ErrInvalidCredentials
}

func (s *stubService) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (s *stubService) Update(_ context.Context, id string, req user.UpdateRequest) (*user.User, error) {
	s.updated = req
	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	return u, nil
}

func newStub() *stubService {
	return &stubService{users: map[string]*user.User{
		guestID: {ID: guestID, Email: "guest@example.com", Role: auth.RoleUser, IsActive: true},
		adminID: {ID: adminID, Email: "admin@example.com", Role: auth.RoleAdmin, IsActive: true},
	}}
}

func setup(t *testing.T, svc user.Service) (*gin.Engine, *auth.JWTManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	r := gin.New()
	RegisterRoutes(r.Group("/api"), NewHandler(svc, jwtManager), auth.AuthRequired(jwtManager), auth.RequireAdmin())
	return r, jwtManager
}

func bearer(t *testing.T, m *auth.JWTManager, id, email string, role auth.Role) string {
	t.Helper()
	token, err := m.GenerateAccessToken(id, email, role)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegister(t *testing.T) {
	r, _ := setup(t, newStub())

	w := do(r, http.MethodPost, "/api/auth/register", "", `{"email":"new@example.com","password":"password123"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp MeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "new@example.com", resp.User.Email)
	assert.Equal(t, "user", resp.User.Role)

	w = do(r, http.MethodPost, "/api/auth/register", "", `{"email":"new@example.com","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc := newStub()
	svc.err = user.ErrEmailAlreadyUsed
	r, _ = setup(t, svc)
	w = do(r, http.MethodPost, "/api/auth/register", "", `{"email":"guest@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"duplicate"`)
}

func TestLoginIssuesTokenForMe(t *testing.T) {
	r, _ := setup(t, newStub())

	w := do(r, http.MethodPost, "/api/auth/login", "", `{"email":"guest@example.com","password":"wrong-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/auth/login", "", `{"email":"guest@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.AccessToken)

	w = do(r, http.MethodGet, "/api/me", "Bearer "+login.AccessToken, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"email":"guest@example.com"`)

	w = do(r, http.MethodGet, "/api/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserAdministrationIsAdminOnly(t *testing.T) {
	svc := newStub()
	r, m := setup(t, svc)
	guest := bearer(t, m, guestID, "guest@example.com", auth.RoleUser)
	admin := bearer(t, m, adminID, "admin@example.com", auth.RoleAdmin)

	w := do(r, http.MethodPatch, "/api/users/"+guestID, guest, `{"role":"admin"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Nil(t, svc.updated.Role, "a refused request never reaches the service")

	w = do(r, http.MethodGet, "/api/users/"+guestID, guest, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPatch, "/api/users/"+guestID, admin, `{"role":"superuser"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPatch, "/api/users/"+guestID, admin, `{"role":"admin"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, svc.updated.Role)
	assert.Equal(t, auth.RoleAdmin, *svc.updated.Role)
	assert.Nil(t, svc.updated.DisplayName)

	w = do(r, http.MethodGet, "/api/users/"+guestID, admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"admin"`)
}
