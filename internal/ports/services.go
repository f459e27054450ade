// Package ports defines the contracts between the application layer and the
// adapters that talk to databases, object storage, AI providers and the
// event bus.
//
// Every blocking method takes a context first, returns domain types and
// reports failures as domain errors (ErrNotFound, ErrUnavailable, ...).
package ports

import (
	"context"
	"time"

	"github.com/jsamuelsen/qc-audit-service/internal/domain"
)

// AudioStorage persists call recordings outside the service.
type AudioStorage interface {
	// Upload stores the local file under key and returns its public URL.
	Upload(ctx context.Context, localPath, key string) (string, error)
}

// Transcriber turns a recording into a diarized transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*domain.Transcript, error)
}

// ConversationAnalyzer extracts insights from a transcript.
type ConversationAnalyzer interface {
	Analyze(ctx context.Context, transcript *domain.Transcript) (*domain.ConversationInsights, error)
}

// AccessClaims are the claims carried by an access token.
type AccessClaims struct {
	UserID    string
	Name      string
	Email     string
	Role      domain.Role
	TokenID   string
	ExpiresAt time.Time
}

// TokenService issues and verifies session tokens.
// Parse methods return domain.ErrUnauthorized for any invalid token.
type TokenService interface {
	IssueAccess(user *domain.CurrentUser) (string, error)
	IssueRefresh(userID string) (string, error)
	ParseAccess(token string) (*AccessClaims, error)
	ParseRefresh(token string) (string, error)
}

// PasswordHasher hashes and verifies staff passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// PasswordGenerator produces initial passwords for new staff.
type PasswordGenerator interface {
	Generate() (string, error)
}

// TokenRevoker remembers tokens invalidated by logout until they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// CallEventPublisher hands uploaded recordings to background processing.
type CallEventPublisher interface {
	PublishRecordingUploaded(ctx context.Context, event domain.RecordingUploaded) error
}
