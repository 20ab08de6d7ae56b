package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/nekogravitycat/venue-booking-backend/internal/booking"
	"github.com/nekogravitycat/venue-booking-backend/internal/interval"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	HTTPAddr          string
	DBDSN             string
	DBAutoMigrate     bool
	JWTSecret         string
	JWTAccessTokenTTL time.Duration
	BcryptCost        int

	LogLevel  string
	LogFormat string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	AMQPURL      string
	AMQPExchange string

	HorizonDays     int
	CancelLead      time.Duration
	HallOpen        interval.TimeOfDay
	HallClose       interval.TimeOfDay
	HallBuffer      time.Duration
	Location        *time.Location
	CompleteEvery   time.Duration
	ShutdownTimeout time.Duration
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg := &Config{}
	var err error

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// Application environment (default: dev)
	cfg.IsProduction = getEnv("APP_ENV", "dev") == PROD_STRING

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}
	if cfg.DBAutoMigrate, err = getEnvAsBool("DB_AUTO_MIGRATE", false); err != nil {
		return nil, err
	}

	// JWT secret is required for signing tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.JWTAccessTokenTTL, err = getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}

	// Bcrypt cost for password hashing (default: 12)
	if cfg.BcryptCost, err = getEnvAsInt("BCRYPT_COST", 12); err != nil {
		return nil, err
	}

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "json")

	// Redis and RabbitMQ are optional; an empty address disables them.
	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	if cfg.RedisDB, err = getEnvAsInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getEnvAsDuration("AVAILABILITY_CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	cfg.AMQPURL = getEnv("AMQP_URL", "")
	cfg.AMQPExchange = getEnv("AMQP_EXCHANGE", "booking.events")

	if err := loadPolicy(cfg); err != nil {
		return nil, err
	}

	if cfg.CompleteEvery, err = getEnvAsDuration("BOOKING_COMPLETE_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadPolicy(cfg *Config) error {
	var err error
	if cfg.HorizonDays, err = getEnvAsInt("BOOKING_HORIZON_DAYS", 30); err != nil {
		return err
	}
	if cfg.HorizonDays < 1 {
		return fmt.Errorf("BOOKING_HORIZON_DAYS must be positive, got %d", cfg.HorizonDays)
	}
	if cfg.CancelLead, err = getEnvAsDuration("BOOKING_CANCEL_LEAD", 24*time.Hour); err != nil {
		return err
	}
	if cfg.HallOpen, err = getEnvAsClock("HALL_OPEN", "09:00"); err != nil {
		return err
	}
	if cfg.HallClose, err = getEnvAsClock("HALL_CLOSE", "22:00"); err != nil {
		return err
	}
	if cfg.HallClose <= cfg.HallOpen {
		return fmt.Errorf("HALL_CLOSE (%s) must be after HALL_OPEN (%s)", cfg.HallClose, cfg.HallOpen)
	}
	// Hall slots are sold by the hour on the hour.
	if cfg.HallOpen.Minute() != 0 || cfg.HallClose.Minute() != 0 {
		return fmt.Errorf("HALL_OPEN (%s) and HALL_CLOSE (%s) must be on the hour", cfg.HallOpen, cfg.HallClose)
	}
	if cfg.HallBuffer, err = getEnvAsDuration("HALL_BUFFER", 30*time.Minute); err != nil {
		return err
	}
	if cfg.HallBuffer < 0 {
		return fmt.Errorf("HALL_BUFFER cannot be negative")
	}

	tz := getEnv("BOOKING_TIMEZONE", "UTC")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return fmt.Errorf("invalid BOOKING_TIMEZONE %q: %w", tz, err)
	}
	return nil
}

// Policy returns the scheduling rules described by the configuration.
func (c *Config) Policy() booking.Policy {
	return booking.Policy{
		HorizonDays: c.HorizonDays,
		CancelLead:  c.CancelLead,
		HallWindow:  interval.TimeRange{Start: c.HallOpen, End: c.HallClose},
		HallBuffer:  c.HallBuffer,
		Location:    c.Location,
	}
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return false, fmt.Errorf("env %s value %q is not a valid boolean: %w", key, valStr, err)
	}
	return val, nil
}

// getEnvAsDuration parses values such as "15m" or "24h".
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}
	return val, nil
}

func getEnvAsClock(key, defaultValue string) (interval.TimeOfDay, error) {
	valStr := getEnv(key, defaultValue)
	val, err := interval.ParseClock(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid HH:MM time: %w", key, valStr, err)
	}
	return val, nil
}
