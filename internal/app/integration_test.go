package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/venue-booking-backend/internal/auth"
	"github.com/nekogravitycat/venue-booking-backend/internal/booking"
	"github.com/nekogravitycat/venue-booking-backend/internal/db"
	"github.com/nekogravitycat/venue-booking-backend/internal/interval"
	"github.com/nekogravitycat/venue-booking-backend/internal/pkg/validation"
	"github.com/nekogravitycat/venue-booking-backend/internal/resource"
	"github.com/nekogravitycat/venue-booking-backend/internal/user"
)

// testEnv runs the full router against a real Postgres named by TEST_DB_DSN.
type testEnv struct {
	pool      *pgxpool.Pool
	container *Container
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	_ = godotenv.Load("../../.env")

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN is not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, db.EnsureSchema(ctx, pool))

	_, err = pool.Exec(ctx, "TRUNCATE TABLE public.bookings, public.resources, public.users CASCADE")
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	require.NoError(t, validation.RegisterWithGin())

	c, err := NewContainer(Config{
		DBPool:     pool,
		JWTSecret:  "integration-secret",
		JWTTTL:     30 * time.Minute,
		BcryptCost: 4, // Lower cost for testing purposes
		Policy:     booking.DefaultPolicy(),
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	return &testEnv{pool: pool, container: c}
}

func (e *testEnv) createUser(t *testing.T, email string, role auth.Role) string {
	t.Helper()
	hash, err := auth.NewBcryptPasswordHasher(4).Hash("password123")
	require.NoError(t, err)

	u := &user.User{Email: email, PasswordHash: hash, Role: role, IsActive: true}
	require.NoError(t, user.NewPgxRepository(e.pool).Create(context.Background(), u))

	token, err := e.container.JWTManager.GenerateAccessToken(u.ID, email, role)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.container.Router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createResource(t *testing.T, adminToken string, body map[string]any) string {
	t.Helper()
	w := e.do(http.MethodPost, "/v1/resources", body, adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.ID
}

func daysFromToday(n int) string {
	return interval.FormatDate(interval.Date(time.Now().UTC()).AddDate(0, 0, n))
}

func TestConcurrentRoomBookingsOnlyOneWins(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createUser(t, "admin@example.com", auth.RoleAdmin)
	roomID := e.createResource(t, admin, map[string]any{
		"kind": "room", "room_number": "A-101", "room_type": "double", "capacity": 2, "rate_cents": 10000,
	})

	const guests = 8
	tokens := make([]string, guests)
	for i := range tokens {
		tokens[i] = e.createUser(t, "guest"+string(rune('a'+i))+"@example.com", auth.RoleUser)
	}

	body := map[string]any{
		"resource_id": roomID, "check_in": daysFromToday(5), "check_out": daysFromToday(7), "occupants": 1,
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = map[int]int{}
	)
	for _, token := range tokens {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			w := e.do(http.MethodPost, "/v1/bookings", body, token)
			mu.Lock()
			codes[w.Code]++
			mu.Unlock()
		}(token)
	}
	wg.Wait()

	assert.Equal(t, 1, codes[http.StatusCreated])
	assert.Equal(t, guests-1, codes[http.StatusConflict])
}

func TestExclusionConstraintBacksTheLock(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createUser(t, "admin@example.com", auth.RoleAdmin)
	e.createUser(t, "guest@example.com", auth.RoleUser)
	roomID := e.createResource(t, admin, map[string]any{
		"kind": "room", "room_number": "B-201", "capacity": 2, "rate_cents": 10000,
	})

	var guestID string
	require.NoError(t, e.pool.QueryRow(context.Background(),
		"SELECT id FROM public.users WHERE email = 'guest@example.com'").Scan(&guestID))

	repo := booking.NewPgxRepository(e.pool)
	insert := func(from, to int) error {
		return repo.WithResourceLock(context.Background(), roomID, func(res *resource.Resource, tx booking.Tx) error {
			in, _ := interval.ParseDate(daysFromToday(from))
			out, _ := interval.ParseDate(daysFromToday(to))
			return tx.Create(context.Background(), &booking.Booking{
				ResourceID: res.ID, ResourceKind: res.Kind, UserID: guestID,
				Stay: interval.NewDateRange(in, out), Occupants: 1, TotalPriceCents: 10000, Status: booking.StatusConfirmed,
			})
		})
	}

	require.NoError(t, insert(3, 5))
	assert.NoError(t, insert(5, 6), "adjacent stays do not overlap")
	assert.ErrorIs(t, insert(4, 6), booking.ErrSchedulingConflict)
}

func TestHallBufferAndCancellation(t *testing.T) {
	e := newTestEnv(t)
	admin := e.createUser(t, "admin@example.com", auth.RoleAdmin)
	guest := e.createUser(t, "guest@example.com", auth.RoleUser)
	hallID := e.createResource(t, admin, map[string]any{
		"kind": "hall", "hall_name": "Grand Hall", "capacity": 200, "rate_cents": 50000,
	})

	day := daysFromToday(4)
	slot := func(start, end string) map[string]any {
		return map[string]any{
			"resource_id": hallID, "event_date": day, "start_time": start, "end_time": end,
			"occupants": 50, "event_type": "Conference",
		}
	}

	w := e.do(http.MethodPost, "/v1/bookings", slot("12:00", "14:00"), guest)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var first struct {
		ID              string `json:"id"`
		TotalPriceCents int64  `json:"total_price_cents"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.Equal(t, int64(100000), first.TotalPriceCents)

	w = e.do(http.MethodPost, "/v1/bookings", slot("14:15", "15:15"), guest)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = e.do(http.MethodPost, "/v1/bookings", slot("14:30", "15:30"), guest)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(http.MethodGet, "/v1/resources/"+hallID+"/availability", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"start_time":"09:00","end_time":"12:00"`)

	w = e.do(http.MethodPost, "/v1/bookings/"+first.ID+"/cancel", nil, guest)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"cancelled"`)

	w = e.do(http.MethodPatch, "/v1/resources/"+hallID, map[string]any{"capacity": 40}, admin)
	assert.Equal(t, http.StatusConflict, w.Code, "a confirmed booking holds 50 occupants")

	w = e.do(http.MethodDelete, "/v1/resources/"+hallID, nil, admin)
	assert.Equal(t, http.StatusConflict, w.Code, "the 14:30 booking is still confirmed")
}
