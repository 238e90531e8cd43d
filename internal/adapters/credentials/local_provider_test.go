package credentials

import (
	"context"
	"errors"
	"sync"
	"testing"

	"campus-cardhub/internal/adapters/persistence/models"
	"campus-cardhub/internal/core/domain"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// mockCredentialRepo is an in-memory CredentialRepository
type mockCredentialRepo struct {
	mu    sync.Mutex
	creds map[string]*models.Credential // keyed by email
}

func newMockCredentialRepo() *mockCredentialRepo {
	return &mockCredentialRepo{creds: make(map[string]*models.Credential)}
}

func (m *mockCredentialRepo) Create(ctx context.Context, credential *models.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.creds[credential.Email]; ok {
		return gorm.ErrDuplicatedKey
	}
	m.creds[credential.Email] = credential
	return nil
}

func (m *mockCredentialRepo) GetByEmail(ctx context.Context, email string) (*models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	credential, ok := m.creds[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return credential, nil
}

func (m *mockCredentialRepo) GetByIdentityToken(ctx context.Context, token string) (*models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, credential := range m.creds {
		if credential.IdentityToken == token {
			return credential, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCredentialRepo) UpdateSecretHash(ctx context.Context, token, secretHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, credential := range m.creds {
		if credential.IdentityToken == token {
			credential.SecretHash = secretHash
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockCredentialRepo) DeleteByIdentityToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for email, credential := range m.creds {
		if credential.IdentityToken == token {
			delete(m.creds, email)
			return nil
		}
	}
	return nil
}

func (m *mockCredentialRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.creds[email]
	return ok, nil
}

func newProviderFixture() (*LocalProvider, *mockCredentialRepo) {
	repo := newMockCredentialRepo()
	return NewLocalProvider(repo, zerolog.Nop()), repo
}

func TestCreateCredential(t *testing.T) {
	provider, repo := newProviderFixture()

	token, err := provider.CreateCredential(context.Background(), "Alice@Campus.EDU", "supersecret1")
	if err != nil {
		t.Fatalf("CreateCredential() error = %v", err)
	}
	if token == "" {
		t.Fatal("identity token must be issued")
	}

	// Email is normalized to lower case
	if _, ok := repo.creds["alice@campus.edu"]; !ok {
		t.Error("credential must be stored under the normalized email")
	}

	// The secret is stored hashed
	if repo.creds["alice@campus.edu"].SecretHash == "supersecret1" {
		t.Error("secret must not be stored in the clear")
	}
}

func TestCreateCredentialRejectsWeakSecret(t *testing.T) {
	provider, _ := newProviderFixture()
	if _, err := provider.CreateCredential(context.Background(), "alice@campus.edu", "short"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

func TestCreateCredentialDuplicateEmail(t *testing.T) {
	provider, _ := newProviderFixture()
	if _, err := provider.CreateCredential(context.Background(), "alice@campus.edu", "supersecret1"); err != nil {
		t.Fatalf("first create error = %v", err)
	}
	if _, err := provider.CreateCredential(context.Background(), "ALICE@campus.edu", "othersecret1"); !errors.Is(err, domain.ErrEmailAlreadyRegistered) {
		t.Errorf("error = %v, want ErrEmailAlreadyRegistered", err)
	}
}

func TestVerifyCredential(t *testing.T) {
	provider, _ := newProviderFixture()
	token, err := provider.CreateCredential(context.Background(), "alice@campus.edu", "supersecret1")
	if err != nil {
		t.Fatalf("CreateCredential() error = %v", err)
	}

	got, err := provider.VerifyCredential(context.Background(), "alice@campus.edu", "supersecret1")
	if err != nil {
		t.Fatalf("VerifyCredential() error = %v", err)
	}
	if got != token {
		t.Error("verification must return the credential's identity token")
	}

	// Verification opens the session
	current, _ := provider.CurrentSession(context.Background())
	if current != token {
		t.Error("successful verification must open a session")
	}
}

func TestVerifyCredentialFailureModes(t *testing.T) {
	provider, _ := newProviderFixture()
	if _, err := provider.CreateCredential(context.Background(), "alice@campus.edu", "supersecret1"); err != nil {
		t.Fatalf("CreateCredential() error = %v", err)
	}

	if _, err := provider.VerifyCredential(context.Background(), "nobody@campus.edu", "supersecret1"); !errors.Is(err, domain.ErrUnknownIdentity) {
		t.Errorf("unknown email: error = %v, want ErrUnknownIdentity", err)
	}
	if _, err := provider.VerifyCredential(context.Background(), "alice@campus.edu", "wrong-secret"); !errors.Is(err, domain.ErrWrongSecret) {
		t.Errorf("wrong secret: error = %v, want ErrWrongSecret", err)
	}
}

func TestDeleteCredentialEndsSession(t *testing.T) {
	provider, repo := newProviderFixture()
	token, _ := provider.CreateCredential(context.Background(), "alice@campus.edu", "supersecret1")
	if _, err := provider.VerifyCredential(context.Background(), "alice@campus.edu", "supersecret1"); err != nil {
		t.Fatalf("VerifyCredential() error = %v", err)
	}

	if err := provider.DeleteCredential(context.Background(), token); err != nil {
		t.Fatalf("DeleteCredential() error = %v", err)
	}
	if len(repo.creds) != 0 {
		t.Error("credential must be removed")
	}
	if current, _ := provider.CurrentSession(context.Background()); current != "" {
		t.Error("deleting the live credential must end its session")
	}
}

func TestSignOut(t *testing.T) {
	provider, _ := newProviderFixture()
	token, _ := provider.CreateCredential(context.Background(), "alice@campus.edu", "supersecret1")
	if _, err := provider.VerifyCredential(context.Background(), "alice@campus.edu", "supersecret1"); err != nil {
		t.Fatalf("VerifyCredential() error = %v", err)
	}

	// Signing out a different credential leaves the session alone
	if err := provider.SignOut(context.Background(), "someone-else"); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	if current, _ := provider.CurrentSession(context.Background()); current != token {
		t.Error("foreign sign-out must not end the live session")
	}

	if err := provider.SignOut(context.Background(), token); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	if current, _ := provider.CurrentSession(context.Background()); current != "" {
		t.Error("sign-out must end the session")
	}

	// Signing out with no session is a no-op
	if err := provider.SignOut(context.Background(), token); err != nil {
		t.Errorf("repeated sign-out must succeed, got %v", err)
	}
}

func TestSendResetEmail(t *testing.T) {
	provider, _ := newProviderFixture()
	if _, err := provider.CreateCredential(context.Background(), "alice@campus.edu", "supersecret1"); err != nil {
		t.Fatalf("CreateCredential() error = %v", err)
	}

	if err := provider.SendResetEmail(context.Background(), "alice@campus.edu"); err != nil {
		t.Errorf("registered email: error = %v", err)
	}
	if err := provider.SendResetEmail(context.Background(), "nobody@campus.edu"); !errors.Is(err, domain.ErrUnknownIdentity) {
		t.Errorf("unknown email: error = %v, want ErrUnknownIdentity", err)
	}
}
