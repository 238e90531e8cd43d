package models

import (
	"time"

	"gorm.io/gorm"

	"campus-cardhub/internal/core/domain"
)

// UserRecord represents the user_records table (the identity directory).
//
// card_number, nfc_id and identity_token carry storage-level unique indexes:
// the check-then-insert in the lifecycle service is not atomic across two
// concurrent registrations, and the index is what actually enforces
// uniqueness (a duplicate-key insert error is translated back to the
// matching domain error).
type UserRecord struct {
	ID                 uint        `gorm:"primaryKey" json:"id"`
	IdentityToken      string      `gorm:"uniqueIndex;size:64;not null" json:"-"`
	Email              string      `gorm:"size:100;not null" json:"email"`
	FirstName          string      `gorm:"size:50;not null" json:"first_name"`
	LastName           string      `gorm:"size:50;not null" json:"last_name"`
	CardNumber         string      `gorm:"uniqueIndex;size:50;not null" json:"card_number"`
	NfcID              *string     `gorm:"uniqueIndex;size:50" json:"nfc_id,omitempty"`
	Role               domain.Role `gorm:"size:20;not null" json:"role"`
	Department         string      `gorm:"size:100" json:"department"`
	IsActive           bool        `gorm:"default:true" json:"is_active"`
	IsApproved         bool        `gorm:"default:false" json:"is_approved"`
	CanApproveStudents bool        `gorm:"default:false" json:"can_approve_students"`
	ImageURL           string      `gorm:"size:255" json:"image_url,omitempty"`
	CreatedAt          time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserRecord) TableName() string {
	return "user_records"
}

// FullName returns the display name
func (u *UserRecord) FullName() string {
	return u.FirstName + " " + u.LastName
}

// HasNfcID reports whether a non-empty NFC id is bound to the record
func (u *UserRecord) HasNfcID() bool {
	return u.NfcID != nil && *u.NfcID != ""
}

// UserResponse DTO
type UserResponse struct {
	ID                 uint      `json:"id"`
	Email              string    `json:"email"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	CardNumber         string    `json:"card_number"`
	NfcID              string    `json:"nfc_id,omitempty"`
	Role               string    `json:"role"`
	RoleLabel          string    `json:"role_label"`
	AccessLevel        string    `json:"access_level"`
	Department         string    `json:"department"`
	IsActive           bool      `json:"is_active"`
	IsApproved         bool      `json:"is_approved"`
	CanApproveStudents bool      `json:"can_approve_students"`
	ImageURL           string    `json:"image_url,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

func (u *UserRecord) ToResponse() *UserResponse {
	resp := &UserResponse{
		ID:                 u.ID,
		Email:              u.Email,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		CardNumber:         u.CardNumber,
		Role:               string(u.Role),
		RoleLabel:          u.Role.DisplayLabel(),
		AccessLevel:        u.Role.AccessLevelLabel(),
		Department:         u.Department,
		IsActive:           u.IsActive,
		IsApproved:         u.IsApproved,
		CanApproveStudents: u.CanApproveStudents,
		ImageURL:           u.ImageURL,
		CreatedAt:          u.CreatedAt,
	}
	if u.NfcID != nil {
		resp.NfcID = *u.NfcID
	}
	return resp
}

// Credential represents the credentials table owned by the local credential
// provider. It is keyed independently from user_records; the identity token
// is the only link between the two.
type Credential struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	IdentityToken string    `gorm:"uniqueIndex;size:64;not null" json:"-"`
	Email         string    `gorm:"uniqueIndex;size:100;not null" json:"email"`
	SecretHash    string    `gorm:"size:255;not null" json:"-"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Credential) TableName() string {
	return "credentials"
}

// RefreshToken represents the refresh_tokens table
type RefreshToken struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	IdentityToken string     `gorm:"index;size:64;not null" json:"-"`
	TokenHash     string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt     time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt     *time.Time `gorm:"index" json:"revoked_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// AutoMigrate creates or updates all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserRecord{},
		&Credential{},
		&RefreshToken{},
	)
}
