package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

const (
	ContextClaims   = "claims"
	ContextClinicID = "clinic_id"
)

type AuthMiddleware struct {
	jwt auth.JWTService
}

func NewAuthMiddleware(jwt auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// Authenticate verifies the bearer token and stores its claims in context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithError(c, apperrors.Unauthorized(errors.New("missing authorization header")))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httputil.RespondWithError(c, apperrors.Unauthorized(errors.New("invalid authorization format")))
			return
		}

		claims, err := m.jwt.ValidateToken(parts[1])
		if err != nil {
			httputil.RespondWithError(c, apperrors.Unauthorized(err))
			return
		}

		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// RequireClinicOwner admits tokens carrying a clinic_id claim and exposes the
// clinic id to handlers.
func (m *AuthMiddleware) RequireClinicOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			httputil.RespondWithError(c, apperrors.Unauthorized(auth.ErrInvalidToken))
			return
		}
		clinicID, err := claims.Clinic()
		if err != nil {
			httputil.RespondWithError(c, apperrors.Forbidden(err))
			return
		}
		c.Set(ContextClinicID, clinicID)
		c.Next()
	}
}

// RequireRole rejects tokens without the given role
func (m *AuthMiddleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			httputil.RespondWithError(c, apperrors.Unauthorized(auth.ErrInvalidToken))
			return
		}
		if claims.Role != role {
			httputil.RespondWithError(c, apperrors.Forbidden(errors.New("role "+role+" required")))
			return
		}
		c.Next()
	}
}

func Claims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

// ClinicID returns the clinic set by RequireClinicOwner.
func ClinicID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextClinicID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
