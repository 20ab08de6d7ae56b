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
	"github.com/nekogravitycat/venue-booking-backend/internal/resource"
)

const hallID = "0d9b8f3e-1a2b-4c5d-8e7f-9a0b1c2d3e4f"

type stubService struct {
	resource.Service
	created resource.CreateRequest
	updated resource.UpdateRequest
	filter  resource.Filter
	deleted string
	result  *resource.Resource
	err     error
}

func (s *stubService) Create(_ context.Context, req resource.CreateRequest) (*resource.Resource, error) {
	s.created = req
	return s.result, s.err
}

func (s *stubService) List(_ context.Context, filter resource.Filter) ([]*resource.Resource, int, error) {
	s.filter = filter
	if s.result == nil {
		return nil, 0, s.err
	}
	return []*resource.Resource{s.result}, 1, s.err
}

func (s *stubService) Update(_ context.Context, _ string, req resource.UpdateRequest) (*resource.Resource, error) {
	s.updated = req
	return s.result, s.err
}

func (s *stubService) Delete(_ context.Context, id string) error {
	s.deleted = id
	return s.err
}

type tokens struct {
	user  string
	admin string
}

func setup(t *testing.T, svc resource.Service) (*gin.Engine, tokens) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	user, err := jwtManager.GenerateAccessToken("u-1", "guest@example.com", auth.RoleUser)
	require.NoError(t, err)
	admin, err := jwtManager.GenerateAccessToken("u-2", "admin@example.com", auth.RoleAdmin)
	require.NoError(t, err)

	r := gin.New()
	RegisterRoutes(r.Group("/api"), NewHandler(svc),
		auth.OptionalAuth(jwtManager), auth.AuthRequired(jwtManager), auth.RequireAdmin())
	return r, tokens{user: "Bearer " + user, admin: "Bearer " + admin}
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

func grandHall() *resource.Resource {
	return &resource.Resource{
		ID: hallID, Kind: resource.KindHall, Hall: &resource.Hall{Name: "Grand Hall"},
		Capacity: 300, RateCents: 50000, IsBookable: true,
	}
}

func TestWritesAreAdminOnly(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{name: "create", method: http.MethodPost, path: "/api/resources", body: `{"kind":"hall","hall_name":"Annex","capacity":50,"rate_cents":1000}`},
		{name: "update", method: http.MethodPatch, path: "/api/resources/" + hallID, body: `{"capacity":10}`},
		{name: "toggle", method: http.MethodPost, path: "/api/resources/" + hallID + "/toggle-availability"},
		{name: "delete", method: http.MethodDelete, path: "/api/resources/" + hallID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{result: grandHall()}
			r, tok := setup(t, svc)

			w := do(r, tt.method, tt.path, "", tt.body)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			w = do(r, tt.method, tt.path, tok.user, tt.body)
			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Empty(t, svc.deleted)
		})
	}
}

func TestCreateResource(t *testing.T) {
	svc := &stubService{result: grandHall()}
	r, tok := setup(t, svc)

	w := do(r, http.MethodPost, "/api/resources", tok.admin,
		`{"kind":"hall","hall_name":"Grand Hall","capacity":300,"rate_cents":50000}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, resource.KindHall, svc.created.Kind)
	assert.Equal(t, "Grand Hall", svc.created.HallName)

	var resp ResourceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "hour", resp.RateUnit)
	assert.Equal(t, "Grand Hall", resp.Name)

	w = do(r, http.MethodPost, "/api/resources", tok.admin, `{"kind":"room","capacity":2,"rate_cents":100}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "room_number is required for rooms")
}

func TestUpdateCapacityBelowBookedIsConflict(t *testing.T) {
	svc := &stubService{err: resource.ErrCapacityBelowBooked}
	r, tok := setup(t, svc)

	w := do(r, http.MethodPatch, "/api/resources/"+hallID, tok.admin, `{"capacity":40}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"resource_in_use"`)
	require.NotNil(t, svc.updated.Capacity)
	assert.Equal(t, 40, *svc.updated.Capacity)
	assert.Nil(t, svc.updated.Name)
}

func TestDeleteResource(t *testing.T) {
	t.Run("refused while booked", func(t *testing.T) {
		svc := &stubService{err: resource.ErrInUse}
		r, tok := setup(t, svc)

		w := do(r, http.MethodDelete, "/api/resources/"+hallID, tok.admin, "")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), `"kind":"resource_in_use"`)
	})

	t.Run("idle", func(t *testing.T) {
		svc := &stubService{}
		r, tok := setup(t, svc)

		w := do(r, http.MethodDelete, "/api/resources/"+hallID, tok.admin, "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, hallID, svc.deleted)
	})

	t.Run("malformed id", func(t *testing.T) {
		svc := &stubService{}
		r, tok := setup(t, svc)

		w := do(r, http.MethodDelete, "/api/resources/not-a-uuid", tok.admin, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, svc.deleted)
	})
}

func TestListHidesUnbookableFromNonAdmins(t *testing.T) {
	svc := &stubService{result: grandHall()}
	r, tok := setup(t, svc)

	w := do(r, http.MethodGet, "/api/resources?all=true", tok.user, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, svc.filter.OnlyBookable)

	w = do(r, http.MethodGet, "/api/resources?all=true&kind=hall", tok.admin, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, svc.filter.OnlyBookable)
	assert.Equal(t, resource.KindHall, svc.filter.Kind)
}
