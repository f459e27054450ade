package mocks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/jsamuelsen/qc-audit-service/internal/domain"
	"github.com/jsamuelsen/qc-audit-service/internal/ports"
)

var (
	_ ports.TokenService         = (*MockTokenService)(nil)
	_ ports.PasswordHasher       = (*MockPasswordHasher)(nil)
	_ ports.PasswordGenerator    = (*MockPasswordGenerator)(nil)
	_ ports.TokenRevoker         = (*MockTokenRevoker)(nil)
	_ ports.CallEventPublisher   = (*MockCallEventPublisher)(nil)
	_ ports.AudioStorage         = (*MockAudioStorage)(nil)
	_ ports.Transcriber          = (*MockTranscriber)(nil)
	_ ports.ConversationAnalyzer = (*MockConversationAnalyzer)(nil)
)

// MockTokenService mocks ports.TokenService.
type MockTokenService struct{ mock.Mock }

// NewMockTokenService creates a MockTokenService bound to t.
func NewMockTokenService(t *testing.T) *MockTokenService {
	m := &MockTokenService{}
	register(t, &m.Mock)

	return m
}

func (m *MockTokenService) IssueAccess(user *domain.CurrentUser) (string, error) {
	args := m.Called(user)

	return args.String(0), args.Error(1)
}

func (m *MockTokenService) IssueRefresh(userID string) (string, error) {
	args := m.Called(userID)

	return args.String(0), args.Error(1)
}

func (m *MockTokenService) ParseAccess(token string) (*ports.AccessClaims, error) {
	args := m.Called(token)

	return ret[*ports.AccessClaims](args, 0), args.Error(1)
}

func (m *MockTokenService) ParseRefresh(token string) (string, error) {
	args := m.Called(token)

	return args.String(0), args.Error(1)
}

// MockPasswordHasher mocks ports.PasswordHasher.
type MockPasswordHasher struct{ mock.Mock }

// NewMockPasswordHasher creates a MockPasswordHasher bound to t.
func NewMockPasswordHasher(t *testing.T) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	register(t, &m.Mock)

	return m
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)

	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(hash, password string) bool {
	return m.Called(hash, password).Bool(0)
}

// MockPasswordGenerator mocks ports.PasswordGenerator.
type MockPasswordGenerator struct{ mock.Mock }

// NewMockPasswordGenerator creates a MockPasswordGenerator bound to t.
func NewMockPasswordGenerator(t *testing.T) *MockPasswordGenerator {
	m := &MockPasswordGenerator{}
	register(t, &m.Mock)

	return m
}

func (m *MockPasswordGenerator) Generate() (string, error) {
	args := m.Called()

	return args.String(0), args.Error(1)
}

// MockTokenRevoker mocks ports.TokenRevoker.
type MockTokenRevoker struct{ mock.Mock }

// NewMockTokenRevoker creates a MockTokenRevoker bound to t.
func NewMockTokenRevoker(t *testing.T) *MockTokenRevoker {
	m := &MockTokenRevoker{}
	register(t, &m.Mock)

	return m
}

func (m *MockTokenRevoker) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	return m.Called(ctx, tokenID, until).Error(0)
}

func (m *MockTokenRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)

	return args.Bool(0), args.Error(1)
}

// MockCallEventPublisher mocks ports.CallEventPublisher.
type MockCallEventPublisher struct{ mock.Mock }

// NewMockCallEventPublisher creates a MockCallEventPublisher bound to t.
func NewMockCallEventPublisher(t *testing.T) *MockCallEventPublisher {
	m := &MockCallEventPublisher{}
	register(t, &m.Mock)

	return m
}

func (m *MockCallEventPublisher) PublishRecordingUploaded(ctx context.Context, event domain.RecordingUploaded) error {
	return m.Called(ctx, event).Error(0)
}

// MockAudioStorage mocks ports.AudioStorage.
type MockAudioStorage struct{ mock.Mock }

// NewMockAudioStorage creates a MockAudioStorage bound to t.
func NewMockAudioStorage(t *testing.T) *MockAudioStorage {
	m := &MockAudioStorage{}
	register(t, &m.Mock)

	return m
}

func (m *MockAudioStorage) Upload(ctx context.Context, localPath, key string) (string, error) {
	args := m.Called(ctx, localPath, key)

	return args.String(0), args.Error(1)
}

// MockTranscriber mocks ports.Transcriber.
type MockTranscriber struct{ mock.Mock }

// NewMockTranscriber creates a MockTranscriber bound to t.
func NewMockTranscriber(t *testing.T) *MockTranscriber {
	m := &MockTranscriber{}
	register(t, &m.Mock)

	return m
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audioPath string) (*domain.Transcript, error) {
	args := m.Called(ctx, audioPath)

	return ret[*domain.Transcript](args, 0), args.Error(1)
}

// MockConversationAnalyzer mocks ports.ConversationAnalyzer.
type MockConversationAnalyzer struct{ mock.Mock }

// NewMockConversationAnalyzer creates a MockConversationAnalyzer bound to t.
func NewMockConversationAnalyzer(t *testing.T) *MockConversationAnalyzer {
	m := &MockConversationAnalyzer{}
	register(t, &m.Mock)

	return m
}

func (m *MockConversationAnalyzer) Analyze(ctx context.Context, transcript *domain.Transcript) (*domain.ConversationInsights, error) {
	args := m.Called(ctx, transcript)

	return ret[*domain.ConversationInsights](args, 0), args.Error(1)
}

// MockHealthRegistry mocks ports.HealthRegistry.
type MockHealthRegistry struct{ mock.Mock }

var _ ports.HealthRegistry = (*MockHealthRegistry)(nil)

// NewMockHealthRegistry creates a MockHealthRegistry bound to t.
func NewMockHealthRegistry(t *testing.T) *MockHealthRegistry {
	m := &MockHealthRegistry{}
	register(t, &m.Mock)

	return m
}

func (m *MockHealthRegistry) Register(checker ports.HealthChecker) error {
	return m.Called(checker).Error(0)
}

func (m *MockHealthRegistry) CheckAll(ctx context.Context) *ports.HealthResult {
	return ret[*ports.HealthResult](m.Called(ctx), 0)
}
