package user

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/venue-booking-backend/internal/auth"
	"github.com/nekogravitycat/venue-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.New(http.StatusNotFound, apperror.KindNotFound, "user not found")
	ErrEmailAlreadyUsed   = apperror.New(http.StatusConflict, apperror.KindDuplicate, "email already used")
	ErrInvalidCredentials = apperror.New(http.StatusUnauthorized, apperror.KindUnauthorized, "invalid email or password")
	ErrEmailRequired      = apperror.New(http.StatusBadRequest, apperror.KindValidation, "email is required")
	ErrPasswordTooShort   = apperror.New(http.StatusBadRequest, apperror.KindValidation, "password must be at least 8 characters")
	ErrInvalidRole        = apperror.New(http.StatusBadRequest, apperror.KindValidation, "role must be user or admin")
)

// User represents a user in the system.
type User struct {
	ID           string // UUID
	Email        string
	PasswordHash string
	DisplayName  *string
	Role         auth.Role
	IsActive     bool
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == auth.RoleAdmin
}

// Filter defines filter options for listing users.
type Filter struct {
	Email    string
	Role     auth.Role
	IsActive *bool // nil means any

	Page     int
	PageSize int
}

// UpdateRequest holds the admin-editable fields; nil means unchanged.
type UpdateRequest struct {
	DisplayName *string
	Role        *auth.Role
	IsActive    *bool
}
