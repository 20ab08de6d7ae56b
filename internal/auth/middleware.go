package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/venue-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/venue-booking-backend/internal/pkg/response"
)

var (
	ErrMissingToken  = apperror.New(http.StatusUnauthorized, apperror.KindUnauthorized, "missing Authorization header")
	ErrMalformedAuth = apperror.New(http.StatusUnauthorized, apperror.KindUnauthorized, "invalid Authorization header format")
	ErrInvalidToken  = apperror.New(http.StatusUnauthorized, apperror.KindUnauthorized, "invalid or expired token")
	ErrAdminRequired = apperror.New(http.StatusForbidden, apperror.KindPermissionDenied, "forbidden: admin access required")
)

// AuthRequired is a Gin middleware that validates JWT from Authorization: Bearer <token>
func AuthRequired(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, ErrMissingToken)
			return
		}

		claims, err := parseHeader(jwtManager, header)
		if err != nil {
			abort(c, err)
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth attaches the caller's identity when a valid token is present and
// lets anonymous requests through. A present but invalid token is still rejected.
func OptionalAuth(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		claims, err := parseHeader(jwtManager, header)
		if err != nil {
			abort(c, err)
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// RequireAdmin ensures the authenticated user holds the admin role.
// It MUST be used after AuthRequired.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == "" {
			abort(c, ErrMissingToken)
			return
		}
		if !IsAdmin(c) {
			abort(c, ErrAdminRequired)
			return
		}
		c.Next()
	}
}

func parseHeader(jwtManager *JWTManager, header string) (*Claims, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, ErrMalformedAuth
	}

	claims, err := jwtManager.ParseAndValidate(parts[1])
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func abort(c *gin.Context, err error) {
	response.Error(c, err)
	c.Abort()
}
