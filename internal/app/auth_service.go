package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jsamuelsen/qc-audit-service/internal/domain"
	"github.com/jsamuelsen/qc-audit-service/internal/ports"
)

const authComponent = "app.auth"

// Messages returned to callers that fail authentication.
const (
	MsgTokenMissing       = "Authentication token is missing"
	MsgInvalidToken       = "Invalid or expired token"
	MsgInvalidPayload     = "Invalid token payload"
	MsgInvalidUserRole    = "Invalid user role: user must be either manager or auditor"
	MsgInvalidCredentials = "Invalid credentials"
	MsgManagerNotFound    = "Manager not found"
	MsgAuditorNotFound    = "Auditor not found"
	MsgAuditorInactive    = "Forbidden request, auditor is not active"
)

// Credentials is a login request.
type Credentials struct {
	Email    string
	Password string
	Role     string
}

// Session is the result of a successful login.
type Session struct {
	User         *domain.CurrentUser
	AccessToken  string
	RefreshToken string
}

// AuthService logs staff in and resolves the caller of each request.
type AuthService struct {
	repo    ports.AuthRepository
	tokens  ports.TokenService
	hasher  ports.PasswordHasher
	revoker ports.TokenRevoker
}

// NewAuthService creates the auth service.
func NewAuthService(
	repo ports.AuthRepository,
	tokens ports.TokenService,
	hasher ports.PasswordHasher,
	revoker ports.TokenRevoker,
) *AuthService {
	return &AuthService{
		repo:    repo,
		tokens:  tokens,
		hasher:  hasher,
		revoker: revoker,
	}
}

// Login checks the credentials for the requested role and issues a session.
func (s *AuthService) Login(ctx context.Context, creds Credentials) (*Session, error) {
	logger := requestLogger(ctx, authComponent)

	role, ok := domain.ParseRole(creds.Role)
	if !ok || !role.CanAuthenticate() {
		return nil, domain.NewValidationErrorWithValue("", "Invalid user role", creds.Role)
	}

	email := strings.TrimSpace(creds.Email)

	var (
		user *domain.CurrentUser
		err  error
	)

	switch role {
	case domain.RoleManager:
		user, err = s.loginManager(ctx, email, creds.Password)
	default:
		user, err = s.loginAuditor(ctx, email, creds.Password)
	}

	if err != nil {
		logger.InfoContext(ctx, "login rejected",
			slog.String("role", string(role)),
			slog.String("reason", err.Error()),
		)

		return nil, err
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "login succeeded",
		slog.String("user_id", user.ID),
		slog.String("role", string(role)),
	)

	return session, nil
}

func (s *AuthService) loginManager(ctx context.Context, email, password string) (*domain.CurrentUser, error) {
	m, err := s.repo.ManagerByEmail(ctx, email)
	if err != nil {
		return nil, withNotFoundMessage(err, MsgManagerNotFound)
	}

	if !s.hasher.Verify(m.PasswordHash, password) {
		return nil, domain.NewUnauthorizedError(MsgInvalidCredentials)
	}

	return domain.CurrentUserFromManager(m), nil
}

func (s *AuthService) loginAuditor(ctx context.Context, email, password string) (*domain.CurrentUser, error) {
	a, err := s.repo.AuditorByEmail(ctx, email)
	if err != nil {
		return nil, withNotFoundMessage(err, MsgAuditorNotFound)
	}

	if !a.IsActive {
		return nil, domain.NewForbiddenError("", MsgAuditorInactive)
	}

	if !s.hasher.Verify(a.PasswordHash, password) {
		return nil, domain.NewUnauthorizedError(MsgInvalidCredentials)
	}

	return s.auditorUser(ctx, a), nil
}

// auditorUser attaches the manager's name. A missing manager leaves it empty.
func (s *AuthService) auditorUser(ctx context.Context, a *domain.Auditor) *domain.CurrentUser {
	var managerName string

	m, err := s.repo.ManagerByID(ctx, a.ManagerID)
	if err != nil {
		requestLogger(ctx, authComponent).WarnContext(ctx, "auditor manager lookup failed",
			slog.String("auditor_id", a.ID),
			slog.Any("error", err),
		)
	} else {
		managerName = m.Name
	}

	return domain.CurrentUserFromAuditor(a, managerName)
}

func (s *AuthService) issue(user *domain.CurrentUser) (*Session, error) {
	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, fmt.Errorf("issuing access token: %w", err)
	}

	refresh, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing refresh token: %w", err)
	}

	return &Session{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// Authenticate resolves the user behind an access token. It fails with a
// domain.UnauthorizedError for missing, invalid or revoked tokens and with
// a domain.NotFoundError when the user no longer exists.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.CurrentUser, *ports.AccessClaims, error) {
	if token == "" {
		return nil, nil, domain.NewUnauthorizedError(MsgTokenMissing)
	}

	claims, err := s.tokens.ParseAccess(token)
	if err != nil {
		return nil, nil, domain.NewUnauthorizedError(MsgInvalidToken)
	}

	if claims.TokenID != "" {
		revoked, err := s.revoker.IsRevoked(ctx, claims.TokenID)
		if err != nil {
			return nil, nil, fmt.Errorf("checking token revocation: %w", err)
		}

		if revoked {
			return nil, nil, domain.NewUnauthorizedError(MsgInvalidToken)
		}
	}

	if claims.Email == "" || claims.Role == "" {
		return nil, nil, domain.NewUnauthorizedError(MsgInvalidPayload)
	}

	switch claims.Role {
	case domain.RoleManager:
		m, err := s.repo.ManagerByEmail(ctx, claims.Email)
		if err != nil {
			return nil, nil, withNotFoundMessage(err, MsgManagerNotFound)
		}

		return domain.CurrentUserFromManager(m), claims, nil
	case domain.RoleAuditor:
		a, err := s.repo.AuditorByEmail(ctx, claims.Email)
		if err != nil {
			return nil, nil, withNotFoundMessage(err, MsgAuditorNotFound)
		}

		return s.auditorUser(ctx, a), claims, nil
	default:
		return nil, nil, domain.NewUnauthorizedError(MsgInvalidUserRole)
	}
}

// Logout revokes the access token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *ports.AccessClaims) error {
	if claims == nil || claims.TokenID == "" {
		return nil
	}

	if err := s.revoker.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	requestLogger(ctx, authComponent).InfoContext(ctx, "logged out", slog.String("user_id", claims.UserID))

	return nil
}

// Refresh issues a new access token for the user named by a refresh token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, domain.NewUnauthorizedError("Refresh token is missing")
	}

	userID, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, domain.NewUnauthorizedError("Invalid or expired refresh token")
	}

	user, err := s.userByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, fmt.Errorf("issuing access token: %w", err)
	}

	return &Session{User: user, AccessToken: access}, nil
}

// userByID looks the id up as a manager first, then as an active auditor.
func (s *AuthService) userByID(ctx context.Context, id string) (*domain.CurrentUser, error) {
	m, err := s.repo.ManagerByID(ctx, id)
	if err == nil {
		return domain.CurrentUserFromManager(m), nil
	}

	if !domain.IsNotFound(err) {
		return nil, err
	}

	a, err := s.repo.AuditorByID(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewUnauthorizedError("Invalid or expired refresh token")
		}

		return nil, err
	}

	if !a.IsActive {
		return nil, domain.NewForbiddenError("", MsgAuditorInactive)
	}

	return s.auditorUser(ctx, a), nil
}

// withNotFoundMessage replaces the text of a not found error with the
// caller-facing message. Other errors pass through.
func withNotFoundMessage(err error, message string) error {
	if domain.IsNotFound(err) {
		return domain.NewNotFoundErrorWithMessage("", "", message)
	}

	return err
}
