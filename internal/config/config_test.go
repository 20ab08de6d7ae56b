package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/venue-booking-backend/internal/booking"
	"github.com/nekogravitycat/venue-booking-backend/internal/interval"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DSN", "postgres://localhost/venue")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.False(t, cfg.IsProduction)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, booking.DefaultPolicy(), cfg.Policy())
}

func TestLoadRequired(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_SECRET", "secret")
	_, err := Load()
	assert.ErrorContains(t, err, "DB_DSN")

	t.Setenv("DB_DSN", "postgres://localhost/venue")
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadPolicyOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("BOOKING_HORIZON_DAYS", "60")
	t.Setenv("BOOKING_CANCEL_LEAD", "48h")
	t.Setenv("HALL_OPEN", "08:00")
	t.Setenv("HALL_CLOSE", "23:00")
	t.Setenv("HALL_BUFFER", "1h")
	t.Setenv("BOOKING_TIMEZONE", "Asia/Tokyo")

	cfg, err := Load()
	require.NoError(t, err)

	p := cfg.Policy()
	assert.Equal(t, 60, p.HorizonDays)
	assert.Equal(t, 48*time.Hour, p.CancelLead)
	assert.Equal(t, interval.TimeRange{Start: interval.Clock(8, 0), End: interval.Clock(23, 0)}, p.HallWindow)
	assert.Equal(t, time.Hour, p.HallBuffer)
	assert.Equal(t, "Asia/Tokyo", p.Location.String())
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"BCRYPT_COST":          "twelve",
		"BOOKING_HORIZON_DAYS": "0",
		"BOOKING_CANCEL_LEAD":  "a day",
		"HALL_OPEN":            "9am",
		"HALL_CLOSE":           "08:00",
		"BOOKING_TIMEZONE":     "Mars/Olympus",
		"DB_AUTO_MIGRATE":      "maybe",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsHallWindowOffTheHour(t *testing.T) {
	for _, env := range [][2]string{{"HALL_OPEN", "09:30"}, {"HALL_CLOSE", "22:30"}} {
		t.Run(env[0], func(t *testing.T) {
			setRequired(t)
			t.Setenv(env[0], env[1])
			_, err := Load()
			assert.ErrorContains(t, err, "on the hour")
		})
	}
}
