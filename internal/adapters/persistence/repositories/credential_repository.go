package repositories

import (
	"context"

	"campus-cardhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// credentialRepository implements CredentialRepository on MySQL via gorm
type credentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

// Create creates a new credential
func (r *credentialRepository) Create(ctx context.Context, credential *models.Credential) error {
	return r.db.WithContext(ctx).Create(credential).Error
}

// GetByEmail gets a credential by email
func (r *credentialRepository) GetByEmail(ctx context.Context, email string) (*models.Credential, error) {
	var credential models.Credential
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&credential).Error
	if err != nil {
		return nil, err
	}
	return &credential, nil
}

// GetByIdentityToken gets a credential by identity token
func (r *credentialRepository) GetByIdentityToken(ctx context.Context, token string) (*models.Credential, error) {
	var credential models.Credential
	err := r.db.WithContext(ctx).Where("identity_token = ?", token).First(&credential).Error
	if err != nil {
		return nil, err
	}
	return &credential, nil
}

// UpdateSecretHash replaces the stored secret hash
func (r *credentialRepository) UpdateSecretHash(ctx context.Context, token, secretHash string) error {
	return r.db.WithContext(ctx).
		Model(&models.Credential{}).
		Where("identity_token = ?", token).
		Update("secret_hash", secretHash).Error
}

// DeleteByIdentityToken removes a credential permanently
func (r *credentialRepository) DeleteByIdentityToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).
		Where("identity_token = ?", token).
		Delete(&models.Credential{}).Error
}

// ExistsByEmail checks if an email is already registered
func (r *credentialRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Credential{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}
