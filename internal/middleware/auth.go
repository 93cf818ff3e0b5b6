package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/pkg/auth"
)

var (
	ErrNoAuthHeader  = errors.New("No authorization header")
	ErrBadAuthHeader = errors.New("Invalid authorization header format")
)

// TokenValidator checks a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// IdentityHandler is a gin handler that receives the authenticated caller.
type IdentityHandler func(c *gin.Context, actor model.Actor)

type AuthMiddleware struct {
	tokens TokenValidator
}

func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrNoAuthHeader
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrBadAuthHeader
	}
	return parts[1], nil
}

// Authed validates the bearer token, checks the caller's role against roles
// (any role when empty) and invokes h with the caller's identity.
func (m *AuthMiddleware) Authed(h IdentityHandler, roles ...model.Role) gin.HandlerFunc {
	allowed := make([]string, 0, len(roles))
	for _, r := range roles {
		allowed = append(allowed, string(r))
	}

	return func(c *gin.Context) {
		token, err := BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abort(c, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			msg := auth.ErrTokenInvalid.Error()
			if errors.Is(err, auth.ErrTokenExpired) {
				msg = auth.ErrTokenExpired.Error()
			}
			abort(c, http.StatusUnauthorized, msg)
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			abort(c, http.StatusUnauthorized, auth.ErrTokenInvalid.Error())
			return
		}

		role := model.Role(claims.Role)
		if len(roles) > 0 && !hasRole(roles, role) {
			abort(c, http.StatusForbidden, "Access denied. Required role: "+strings.Join(allowed, ", "))
			return
		}

		actor := model.Actor{
			UserID:    userID,
			Email:     claims.Email,
			Role:      role,
			IPAddress: c.ClientIP(),
		}
		c.Set(ContextUserID, userID.String())
		h(c, actor)
	}
}

func hasRole(roles []model.Role, role model.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
