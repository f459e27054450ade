package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/qc-audit-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/qc-audit-service/internal/domain"
	platformauth "github.com/jsamuelsen/qc-audit-service/internal/platform/auth"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/logging"
	"github.com/jsamuelsen/qc-audit-service/internal/ports"
)

const (
	// ContextKeyUser is the gin context key of the authenticated *domain.CurrentUser.
	ContextKeyUser = "current_user"

	// ContextKeyClaims is the gin context key of the access token's *ports.AccessClaims.
	ContextKeyClaims = "claims"
)

// Messages for authenticated callers of the wrong role.
const (
	MsgNotManager = "Unauthorised access, current user is not manager."
	MsgNotAuditor = "Unauthorised access, current user is not auditor."
)

// Authenticator resolves the staff member behind an access token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.CurrentUser, *ports.AccessClaims, error)
}

// RequireAuth returns middleware that authenticates the caller from the
// access token cookie. Failures abort with the authenticator's error:
// 401 for a missing, invalid or revoked token and 404 for a deleted user.
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// A missing cookie is reported by the authenticator.
		token, _ := c.Cookie(platformauth.AccessCookie)

		user, claims, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			dto.AbortWithError(c, err)
			return
		}

		c.Set(ContextKeyUser, user)
		c.Set(ContextKeyClaims, claims)
		c.Request = c.Request.WithContext(logging.WithUser(c.Request.Context(), user.ID, string(user.Role)))

		c.Next()
	}
}

// RequireRole returns middleware that lets only callers with role through.
// Others are rejected with status and message. It must run after RequireAuth.
func RequireRole(role domain.Role, status int, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetCurrentUser(c)
		if user == nil || user.Role != role {
			dto.AbortWithStatus(c, status, message)
			return
		}

		c.Next()
	}
}

// RequireManager admits managers only; anyone else gets 403.
func RequireManager() gin.HandlerFunc {
	return RequireRole(domain.RoleManager, http.StatusForbidden, MsgNotManager)
}

// RequireAuditor admits auditors only; anyone else gets 401.
func RequireAuditor() gin.HandlerFunc {
	return RequireRole(domain.RoleAuditor, http.StatusUnauthorized, MsgNotAuditor)
}

// GetCurrentUser returns the authenticated user, or nil outside RequireAuth.
func GetCurrentUser(c *gin.Context) *domain.CurrentUser {
	if v, exists := c.Get(ContextKeyUser); exists {
		if user, ok := v.(*domain.CurrentUser); ok {
			return user
		}
	}

	return nil
}

// GetClaims returns the access token claims, or nil outside RequireAuth.
func GetClaims(c *gin.Context) *ports.AccessClaims {
	if v, exists := c.Get(ContextKeyClaims); exists {
		if claims, ok := v.(*ports.AccessClaims); ok {
			return claims
		}
	}

	return nil
}
