package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/nekogravitycat/venue-booking-backend/internal/api"
	"github.com/nekogravitycat/venue-booking-backend/internal/auth"
	"github.com/nekogravitycat/venue-booking-backend/internal/booking"
	"github.com/nekogravitycat/venue-booking-backend/internal/pkg/clock"
	"github.com/nekogravitycat/venue-booking-backend/internal/resource"
	"github.com/nekogravitycat/venue-booking-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	JWTSecret    string
	JWTTTL       time.Duration
	BcryptCost   int
	Policy       booking.Policy

	// Optional. Nil disables the availability cache.
	Redis    *redis.Client
	CacheTTL time.Duration

	// Optional. Nil disables booking events.
	AMQP         *amqp.Connection
	AMQPExchange string

	// Clock defaults to the real clock in the policy's location.
	Clock clock.Clock
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router         *gin.Engine
	JWTManager     *auth.JWTManager
	BookingService booking.Service

	closers []func() error
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real{Location: cfg.Policy.Location}
	}

	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	c := &Container{JWTManager: jwtManager}

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher, clk)

	// Resource Module
	resRepo := resource.NewPgxRepository(cfg.DBPool)
	resService := resource.NewService(resRepo)

	// Booking Module
	var opts []booking.Option
	if cfg.Redis != nil {
		opts = append(opts, booking.WithCache(booking.NewRedisAvailabilityCache(cfg.Redis, cfg.CacheTTL)))
		slog.Info("availability cache enabled", "ttl", cfg.CacheTTL)
	}
	if cfg.AMQP != nil {
		publisher, err := booking.NewAMQPPublisher(cfg.AMQP, cfg.AMQPExchange)
		if err != nil {
			return nil, fmt.Errorf("init booking event publisher: %w", err)
		}
		c.closers = append(c.closers, publisher.Close)
		opts = append(opts, booking.WithEvents(publisher))
		slog.Info("booking events enabled", "exchange", cfg.AMQPExchange)
	}
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	c.BookingService = booking.NewService(bookingRepo, resRepo, cfg.Policy, clk, opts...)

	// Router
	c.Router = api.NewRouter(api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		UserService:    userService,
		ResService:     resService,
		BookingService: c.BookingService,
		JWTManager:     jwtManager,
	})

	return c, nil
}

// RunCompletion marks elapsed bookings completed every interval until ctx ends.
func (c *Container) RunCompletion(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		if _, err := c.BookingService.CompleteElapsed(ctx); err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "complete elapsed bookings failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Close releases the resources the container opened itself.
func (c *Container) Close() {
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
}
