package credentials

import (
	"context"
	"errors"
	"strings"
	"sync"

	"campus-cardhub/internal/adapters/persistence/models"
	"campus-cardhub/internal/adapters/persistence/repositories"
	"campus-cardhub/internal/core/domain"
	"campus-cardhub/internal/pkg/password"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// LocalProvider implements the credential service on the local credentials
// table: bcrypt secret hashes, uuid identity tokens, and a process-level
// current session (the kiosk host runs exactly one interactive session at a
// time). The provider knows nothing about directory records.
type LocalProvider struct {
	creds repositories.CredentialRepository
	log   zerolog.Logger

	mu      sync.RWMutex
	current string // identity token of the live session, "" when anonymous
}

// NewLocalProvider creates a new local credential provider
func NewLocalProvider(creds repositories.CredentialRepository, log zerolog.Logger) *LocalProvider {
	return &LocalProvider{
		creds: creds,
		log:   log.With().Str("service", "credentials").Logger(),
	}
}

// CreateCredential issues a new credential and returns its identity token
func (p *LocalProvider) CreateCredential(ctx context.Context, email, secret string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !password.Validate(secret) {
		return "", domain.ErrInvalidInput
	}

	exists, err := p.creds.ExistsByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if exists {
		return "", domain.ErrEmailAlreadyRegistered
	}

	hash, err := password.Hash(secret)
	if err != nil {
		return "", err
	}

	credential := &models.Credential{
		IdentityToken: uuid.New().String(),
		Email:         email,
		SecretHash:    hash,
	}
	if err := p.creds.Create(ctx, credential); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", domain.ErrEmailAlreadyRegistered
		}
		return "", err
	}

	p.log.Info().Str("email", email).Msg("credential created")
	return credential.IdentityToken, nil
}

// VerifyCredential checks a secret and opens a session on success. Unknown
// identity and wrong secret fail distinctly; the login flow is responsible
// for collapsing them into one message.
func (p *LocalProvider) VerifyCredential(ctx context.Context, email, secret string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	credential, err := p.creds.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.ErrUnknownIdentity
		}
		return "", err
	}
	if !password.Verify(secret, credential.SecretHash) {
		return "", domain.ErrWrongSecret
	}

	p.mu.Lock()
	p.current = credential.IdentityToken
	p.mu.Unlock()

	return credential.IdentityToken, nil
}

// DeleteCredential removes a credential permanently and ends its session
func (p *LocalProvider) DeleteCredential(ctx context.Context, identityToken string) error {
	if err := p.creds.DeleteByIdentityToken(ctx, identityToken); err != nil {
		return err
	}

	p.mu.Lock()
	if p.current == identityToken {
		p.current = ""
	}
	p.mu.Unlock()

	p.log.Info().Msg("credential deleted")
	return nil
}

// SignOut terminates any live session bound to the credential. Signing out
// a credential with no session is a no-op.
func (p *LocalProvider) SignOut(ctx context.Context, identityToken string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if identityToken == "" || p.current == identityToken {
		p.current = ""
	}
	return nil
}

// SendResetEmail queues a password reset email for a registered address
func (p *LocalProvider) SendResetEmail(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	exists, err := p.creds.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrUnknownIdentity
	}

	// TODO: wire the campus SMTP relay once its address is provisioned;
	// until then the reset link lands in the provider log only.
	p.log.Info().Str("email", email).Msg("password reset email queued")
	return nil
}

// CurrentSession returns the identity token of the live session, or "" when
// anonymous
func (p *LocalProvider) CurrentSession(ctx context.Context) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current, nil
}
