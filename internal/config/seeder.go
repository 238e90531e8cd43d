package config

import (
	"campus-cardhub/internal/adapters/persistence/models"
	"campus-cardhub/internal/core/domain"
	"campus-cardhub/internal/pkg/password"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Seeder creates the bootstrap admin account on first boot
type Seeder struct {
	db  *gorm.DB
	cfg *Config
	log zerolog.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, cfg *Config, log zerolog.Logger) *Seeder {
	return &Seeder{db: db, cfg: cfg, log: log.With().Str("service", "seeder").Logger()}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	if err := s.seedAdminAccount(); err != nil {
		s.log.Warn().Err(err).Msg("admin seeder skipped")
	}
	return nil
}

// seedAdminAccount creates the bootstrap admin credential and directory
// record from the ADMIN_* environment when no admin record exists yet.
// Change the default password immediately on a production install.
func (s *Seeder) seedAdminAccount() error {
	var count int64
	if err := s.db.Model(&models.UserRecord{}).
		Where("role = ?", domain.RoleAdmin).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil // Admin already exists
	}

	hash, err := password.Hash(s.cfg.Admin.Secret)
	if err != nil {
		return err
	}

	credential := &models.Credential{
		IdentityToken: uuid.New().String(),
		Email:         s.cfg.Admin.Email,
		SecretHash:    hash,
	}
	if err := s.db.Create(credential).Error; err != nil {
		return err
	}

	record := &models.UserRecord{
		IdentityToken: credential.IdentityToken,
		Email:         s.cfg.Admin.Email,
		FirstName:     s.cfg.Admin.FirstName,
		LastName:      s.cfg.Admin.LastName,
		CardNumber:    s.cfg.Admin.CardNumber,
		Role:          domain.RoleAdmin,
		Department:    s.cfg.Admin.Department,
		IsActive:      true,
		IsApproved:    true,
	}
	if err := s.db.Create(record).Error; err != nil {
		// Keep the stores consistent: no record, no credential
		s.db.Delete(credential)
		return err
	}

	s.log.Info().Str("card_number", record.CardNumber).Msg("bootstrap admin account created")
	return nil
}
