package services

import (
	"context"
	"errors"

	"campus-cardhub/internal/adapters/persistence/models"
	"campus-cardhub/internal/adapters/persistence/repositories"
	"campus-cardhub/internal/config"
	"campus-cardhub/internal/core/domain"
	"campus-cardhub/internal/pkg/jwt"
	"campus-cardhub/internal/pkg/password"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Auth errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
)

// AuthService implements the login contract: card number + secret in,
// resolved directory record (plus session tokens) out. Unknown card, wrong
// secret and credential-check auth errors are indistinguishable to the
// caller by design.
type AuthService struct {
	directory     repositories.DirectoryRepository
	refreshTokens repositories.RefreshTokenRepository
	credentials   CredentialService
	sessions      *SessionBroker
	cfg           *config.Config
	log           zerolog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	directory repositories.DirectoryRepository,
	refreshTokens repositories.RefreshTokenRepository,
	credentials CredentialService,
	sessions *SessionBroker,
	cfg *config.Config,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		directory:     directory,
		refreshTokens: refreshTokens,
		credentials:   credentials,
		sessions:      sessions,
		cfg:           cfg,
		log:           log.With().Str("service", "auth").Logger(),
	}
}

// LoginInput represents login input
type LoginInput struct {
	CardNumber string `json:"card_number"`
	Secret     string `json:"password"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *models.UserResponse `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}

// Login authenticates a card holder
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	// 1. Resolve the card number to a directory record
	record, err := s.directory.FindByCardNumber(ctx, input.CardNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredential
		}
		s.log.Error().Err(err).Msg("card number lookup failed")
		return nil, err
	}

	// 2. Verify the secret against the credential service. Unknown
	// identity and wrong secret collapse into one generic error.
	identityToken, err := s.credentials.VerifyCredential(ctx, record.Email, input.Secret)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownIdentity) || errors.Is(err, domain.ErrWrongSecret) {
			return nil, domain.ErrInvalidCredential
		}
		s.log.Error().Err(err).Msg("credential verification failed")
		return nil, err
	}
	if identityToken != record.IdentityToken {
		// Directory and credential store disagree about who owns this
		// email. Treat as a failed login, never as a match.
		s.log.Error().Uint("id", record.ID).Msg("identity token mismatch between directory and credential store")
		_ = s.credentials.SignOut(ctx, identityToken)
		return nil, domain.ErrInvalidCredential
	}

	// 3. Lifecycle gates. A blocked account must not keep the session the
	// credential check just opened.
	if !CanAuthenticate(record) {
		if serr := s.credentials.SignOut(ctx, identityToken); serr != nil {
			s.log.Error().Err(serr).Uint("id", record.ID).Msg("sign-out after blocked login failed")
		}
		if rerr := s.refreshTokens.RevokeAllByIdentityToken(ctx, identityToken); rerr != nil {
			s.log.Error().Err(rerr).Uint("id", record.ID).Msg("session revocation after blocked login failed")
		}
		s.sessions.SetAnonymous()
		return nil, domain.ErrAccountNotUsable
	}

	// 4. Issue the token pair and publish the authenticated session
	tokens, err := s.generateTokens(record)
	if err != nil {
		return nil, err
	}
	if err := s.storeRefreshToken(ctx, record.IdentityToken, tokens.refresh); err != nil {
		return nil, err
	}
	s.sessions.SetAuthenticated(record)

	s.log.Info().Uint("id", record.ID).Str("card_number", record.CardNumber).Msg("login succeeded")

	return &AuthResponse{
		User:         record.ToResponse(),
		AccessToken:  tokens.access,
		RefreshToken: tokens.refresh,
	}, nil
}

// Refresh rotates the refresh token and issues a new pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	tokenHash := password.HashToken(refreshToken)
	stored, err := s.refreshTokens.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if stored.IsRevoked() {
		return nil, ErrTokenRevoked
	}
	if stored.IsExpired() {
		return nil, ErrTokenExpired
	}

	record, err := s.directory.FindByIdentityToken(ctx, claims.IdentityToken)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	// The lifecycle gates apply on every refresh, not just at login
	if !CanAuthenticate(record) {
		if rerr := s.refreshTokens.RevokeAllByIdentityToken(ctx, record.IdentityToken); rerr != nil {
			s.log.Error().Err(rerr).Uint("id", record.ID).Msg("session revocation for blocked account failed")
		}
		s.sessions.SetAnonymous()
		return nil, domain.ErrAccountNotUsable
	}

	// Rotation: the presented token dies with this exchange
	if err := s.refreshTokens.Revoke(ctx, stored.ID); err != nil {
		return nil, err
	}

	tokens, err := s.generateTokens(record)
	if err != nil {
		return nil, err
	}
	if err := s.storeRefreshToken(ctx, record.IdentityToken, tokens.refresh); err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:         record.ToResponse(),
		AccessToken:  tokens.access,
		RefreshToken: tokens.refresh,
	}, nil
}

// Logout revokes the presented refresh token and ends the session
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	tokenHash := password.HashToken(refreshToken)
	if err := s.refreshTokens.RevokeByTokenHash(ctx, tokenHash); err != nil {
		return err
	}

	if claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret); err == nil {
		if serr := s.credentials.SignOut(ctx, claims.IdentityToken); serr != nil {
			s.log.Warn().Err(serr).Msg("credential sign-out on logout failed")
		}
	}
	s.sessions.SetAnonymous()

	s.log.Info().Msg("logout completed")
	return nil
}

// LogoutAll revokes every session bound to the credential
func (s *AuthService) LogoutAll(ctx context.Context, identityToken string) error {
	if err := s.refreshTokens.RevokeAllByIdentityToken(ctx, identityToken); err != nil {
		return err
	}
	if err := s.credentials.SignOut(ctx, identityToken); err != nil {
		s.log.Warn().Err(err).Msg("credential sign-out failed")
	}
	s.sessions.SetAnonymous()
	return nil
}

// ForgotPassword queues a reset email. The outcome is identical whether or
// not the email is registered, so callers cannot probe for accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if err := s.credentials.SendResetEmail(ctx, email); err != nil {
		if errors.Is(err, domain.ErrUnknownIdentity) {
			s.log.Info().Msg("reset requested for unknown email")
			return nil
		}
		s.log.Error().Err(err).Msg("reset email dispatch failed")
		return err
	}
	return nil
}

// ValidateAccessToken validates an access token
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
}

// GetByID gets a record by ID
func (s *AuthService) GetByID(ctx context.Context, id uint) (*models.UserRecord, error) {
	record, err := s.directory.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

type tokenPair struct {
	access  string
	refresh string
}

func (s *AuthService) generateTokens(record *models.UserRecord) (*tokenPair, error) {
	access, err := jwt.GenerateAccessToken(
		record.ID,
		record.CardNumber,
		string(record.Role),
		record.Department,
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	refresh, err := jwt.GenerateRefreshToken(
		record.IdentityToken,
		uuid.New().String(),
		s.cfg.JWT.RefreshSecret,
		s.cfg.JWT.RefreshTokenDays,
	)
	if err != nil {
		return nil, err
	}

	return &tokenPair{access: access, refresh: refresh}, nil
}

func (s *AuthService) storeRefreshToken(ctx context.Context, identityToken, refreshToken string) error {
	token := &models.RefreshToken{
		IdentityToken: identityToken,
		TokenHash:     password.HashToken(refreshToken),
		ExpiresAt:     jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
	}
	return s.refreshTokens.Create(ctx, token)
}
