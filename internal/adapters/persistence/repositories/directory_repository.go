package repositories

import (
	"context"

	"campus-cardhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// directoryRepository implements DirectoryRepository on MySQL via gorm
type directoryRepository struct {
	db *gorm.DB
}

// NewDirectoryRepository creates a new directory repository
func NewDirectoryRepository(db *gorm.DB) DirectoryRepository {
	return &directoryRepository{db: db}
}

// Insert writes a new directory record
func (r *directoryRepository) Insert(ctx context.Context, record *models.UserRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// GetByID gets a record by ID
func (r *directoryRepository) GetByID(ctx context.Context, id uint) (*models.UserRecord, error) {
	var record models.UserRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByCardNumber gets a record by card number
func (r *directoryRepository) FindByCardNumber(ctx context.Context, cardNumber string) (*models.UserRecord, error) {
	var record models.UserRecord
	err := r.db.WithContext(ctx).Where("card_number = ?", cardNumber).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByNfcID gets a record by NFC id
func (r *directoryRepository) FindByNfcID(ctx context.Context, nfcID string) (*models.UserRecord, error) {
	var record models.UserRecord
	err := r.db.WithContext(ctx).Where("nfc_id = ?", nfcID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByIdentityToken gets the record bound to a credential identity token
func (r *directoryRepository) FindByIdentityToken(ctx context.Context, token string) (*models.UserRecord, error) {
	var record models.UserRecord
	err := r.db.WithContext(ctx).Where("identity_token = ?", token).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// List lists records matching the filter with pagination
func (r *directoryRepository) List(ctx context.Context, filter DirectoryFilter, offset, limit int) ([]*models.UserRecord, int64, error) {
	var records []*models.UserRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&models.UserRecord{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Approved != nil {
		query = query.Where("is_approved = ?", *filter.Approved)
	}
	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where(
			"first_name LIKE ? OR last_name LIKE ? OR email LIKE ? OR card_number LIKE ?",
			like, like, like, like,
		)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Update saves the full record
func (r *directoryRepository) Update(ctx context.Context, record *models.UserRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// UpdateFields updates selected columns (updated_at refreshed by gorm)
func (r *directoryRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&models.UserRecord{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// Delete removes a record permanently
func (r *directoryRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&models.UserRecord{}, id).Error
}

// ExistsByCardNumber checks if a card number is taken
func (r *directoryRepository) ExistsByCardNumber(ctx context.Context, cardNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserRecord{}).
		Where("card_number = ?", cardNumber).
		Count(&count).Error
	return count > 0, err
}
