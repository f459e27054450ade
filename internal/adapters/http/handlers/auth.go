package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/qc-audit-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/qc-audit-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen/qc-audit-service/internal/app"
	"github.com/jsamuelsen/qc-audit-service/internal/domain"
	platformauth "github.com/jsamuelsen/qc-audit-service/internal/platform/auth"
	"github.com/jsamuelsen/qc-audit-service/internal/ports"
)

// Auth response messages.
const (
	MsgManagerLoggedIn = "Manager logged in succesfully."
	MsgAuditorLoggedIn = "Auditor logged in successfully."
	MsgLoggedOut       = "Successfully logged out"
	MsgAuthenticated   = "User is authenticated"
	MsgTokenRefreshed  = "Token refreshed successfully"
)

// AuthService is the part of app.AuthService the auth routes use.
type AuthService interface {
	Login(ctx context.Context, creds app.Credentials) (*app.Session, error)
	Logout(ctx context.Context, claims *ports.AccessClaims) error
	Refresh(ctx context.Context, refreshToken string) (*app.Session, error)
}

// AuthHandler serves /api/v1/auth.
type AuthHandler struct {
	service AuthService
	cookies platformauth.Cookies
}

// NewAuthHandler creates the auth handler. cookies sets the lifetime and
// Secure flag of the session cookies it writes.
func NewAuthHandler(service AuthService, cookies platformauth.Cookies) *AuthHandler {
	return &AuthHandler{service: service, cookies: cookies}
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := dto.BindForm(c, &req); err != nil {
		dto.HandleError(c, err)
		return
	}

	session, err := h.service.Login(c.Request.Context(), app.Credentials{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	http.SetCookie(c.Writer, h.cookies.Access(session.AccessToken))
	http.SetCookie(c.Writer, h.cookies.Refresh(session.RefreshToken))

	message := MsgAuditorLoggedIn
	if session.User.Role == domain.RoleManager {
		message = MsgManagerLoggedIn
	}

	c.JSON(http.StatusOK, dto.UserResult{
		Result: dto.OK(message),
		User:   dto.NewUserResponse(session.User),
	})
}

// Logout handles GET /api/v1/auth/logout. The access token stays revoked
// until it would have expired anyway.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), middleware.GetClaims(c)); err != nil {
		dto.HandleError(c, err)
		return
	}

	http.SetCookie(c.Writer, h.cookies.ExpireAccess())
	http.SetCookie(c.Writer, h.cookies.ExpireRefresh())

	c.JSON(http.StatusOK, dto.OK(MsgLoggedOut))
}

// CheckAuth handles GET /api/v1/auth/check-auth.
func (h *AuthHandler) CheckAuth(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		dto.AbortWithStatus(c, http.StatusUnauthorized, app.MsgTokenMissing)
		return
	}

	resp := dto.NewUserResponse(user)
	if user.Role == domain.RoleAuditor {
		manager := user.ManagerName
		resp.Manager = &manager
	}

	c.JSON(http.StatusOK, dto.UserResult{
		Result: dto.OK(MsgAuthenticated),
		User:   resp,
	})
}

// Refresh handles POST /api/v1/auth/refresh by issuing a new access cookie
// for the owner of the refresh cookie.
func (h *AuthHandler) Refresh(c *gin.Context) {
	// A missing cookie is reported by the service.
	token, _ := c.Cookie(platformauth.RefreshCookie)

	session, err := h.service.Refresh(c.Request.Context(), token)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	http.SetCookie(c.Writer, h.cookies.Access(session.AccessToken))

	c.JSON(http.StatusOK, dto.UserResult{
		Result: dto.OK(MsgTokenRefreshed),
		User:   dto.NewUserResponse(session.User),
	})
}

// RegisterRoutes registers the auth routes on rg. requireAuth guards the
// routes that need a session.
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	auth := rg.Group("/auth")
	auth.POST("/login", h.Login)
	auth.POST("/refresh", h.Refresh)
	auth.GET("/logout", requireAuth, h.Logout)
	auth.GET("/check-auth", requireAuth, h.CheckAuth)
}
