package repositories

import (
	"context"

	"campus-cardhub/internal/adapters/persistence/models"
	"campus-cardhub/internal/core/domain"
)

// DirectoryFilter narrows directory listings
type DirectoryFilter struct {
	Role       domain.Role
	Approved   *bool
	Active     *bool
	Department string
	Search     string
}

// DirectoryRepository defines the identity directory interface.
// FindBy* lookups run against uniquely indexed columns and return
// gorm.ErrRecordNotFound when no record matches.
type DirectoryRepository interface {
	Insert(ctx context.Context, record *models.UserRecord) error
	GetByID(ctx context.Context, id uint) (*models.UserRecord, error)
	FindByCardNumber(ctx context.Context, cardNumber string) (*models.UserRecord, error)
	FindByNfcID(ctx context.Context, nfcID string) (*models.UserRecord, error)
	FindByIdentityToken(ctx context.Context, token string) (*models.UserRecord, error)
	List(ctx context.Context, filter DirectoryFilter, offset, limit int) ([]*models.UserRecord, int64, error)
	Update(ctx context.Context, record *models.UserRecord) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	ExistsByCardNumber(ctx context.Context, cardNumber string) (bool, error)
}

// CredentialRepository defines the credential store interface
type CredentialRepository interface {
	Create(ctx context.Context, credential *models.Credential) error
	GetByEmail(ctx context.Context, email string) (*models.Credential, error)
	GetByIdentityToken(ctx context.Context, token string) (*models.Credential, error)
	UpdateSecretHash(ctx context.Context, token, secretHash string) error
	DeleteByIdentityToken(ctx context.Context, token string) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RefreshTokenRepository defines the refresh token store interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByIdentityToken(ctx context.Context, identityToken string) error
	DeleteExpired(ctx context.Context) error
}
