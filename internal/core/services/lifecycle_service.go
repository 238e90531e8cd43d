package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"campus-cardhub/internal/adapters/persistence/models"
	"campus-cardhub/internal/adapters/persistence/repositories"
	"campus-cardhub/internal/core/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// LifecycleService owns the account state machine: creation with rollback,
// approval, (de)activation, NFC binding and deletion.
type LifecycleService struct {
	directory   repositories.DirectoryRepository
	credentials CredentialService
	images      ImageStorage
	log         zerolog.Logger
}

// NewLifecycleService creates a new lifecycle service
func NewLifecycleService(
	directory repositories.DirectoryRepository,
	credentials CredentialService,
	images ImageStorage,
	log zerolog.Logger,
) *LifecycleService {
	return &LifecycleService{
		directory:   directory,
		credentials: credentials,
		images:      images,
		log:         log.With().Str("service", "lifecycle").Logger(),
	}
}

// CreateAccountInput represents registration input
type CreateAccountInput struct {
	Email      string
	Secret     string
	FirstName  string
	LastName   string
	CardNumber string
	Role       domain.Role
	Department string
	Image      []byte // optional inline profile image
}

func (in *CreateAccountInput) validate() error {
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.CardNumber = strings.TrimSpace(in.CardNumber)
	in.Department = strings.TrimSpace(in.Department)

	if in.Email == "" || in.FirstName == "" || in.LastName == "" || in.CardNumber == "" {
		return domain.ErrInvalidInput
	}
	if !in.Role.Valid() {
		return domain.ErrUnknownRole
	}
	return nil
}

// CreateAccount runs the two-phase registration protocol. The credential and
// the directory record live in independent systems with no shared
// transaction, so the steps run strictly in order — existence check,
// credential creation, directory write — with a compensation list executed
// in reverse when the directory write fails. Atomicity is best-effort: the
// card-number precheck and the insert are not atomic across two concurrent
// registrations, and it is the unique index on card_number that actually
// enforces uniqueness; a duplicate-key error from the insert is reported as
// ErrDuplicateCardNumber.
func (s *LifecycleService) CreateAccount(ctx context.Context, input *CreateAccountInput) (*models.UserRecord, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	// 1. Card number must not already exist. Fail before any resource is
	// created.
	exists, err := s.directory.ExistsByCardNumber(ctx, input.CardNumber)
	if err != nil {
		s.log.Error().Err(err).Str("card_number", input.CardNumber).Msg("card number existence check failed")
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateCardNumber
	}

	// 2. Create the credential. No directory write has happened yet, so a
	// failure here needs no compensation.
	identityToken, err := s.credentials.CreateCredential(ctx, input.Email, input.Secret)
	if err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyRegistered) || errors.Is(err, domain.ErrInvalidInput) {
			return nil, err
		}
		s.log.Error().Err(err).Str("email", input.Email).Msg("credential creation failed")
		return nil, domain.ErrCredentialCreationFailed
	}

	var compensations []func(context.Context)
	compensations = append(compensations, func(cctx context.Context) {
		if derr := s.credentials.DeleteCredential(cctx, identityToken); derr != nil {
			s.log.Error().Err(derr).Msg("rollback: credential delete failed, forcing sign-out")
			if serr := s.credentials.SignOut(cctx, identityToken); serr != nil {
				s.log.Error().Err(serr).Msg("rollback: forced sign-out failed")
			}
		}
	})

	// 3. Best-effort image upload. A failed upload must not abort the
	// registration; the account is simply created without an image.
	imageURL := ""
	if len(input.Image) > 0 {
		path := fmt.Sprintf("profiles/%s.jpg", uuid.New().String())
		url, uerr := s.images.Upload(ctx, input.Image, path)
		if uerr != nil {
			s.log.Warn().Err(uerr).Str("card_number", input.CardNumber).Msg("profile image upload failed, continuing without image")
		} else {
			imageURL = url
		}
	}

	// 4. Write the directory record linking the credential.
	record := &models.UserRecord{
		IdentityToken:      identityToken,
		Email:              input.Email,
		FirstName:          input.FirstName,
		LastName:           input.LastName,
		CardNumber:         input.CardNumber,
		Role:               input.Role,
		Department:         input.Department,
		IsActive:           true,
		IsApproved:         input.Role.DefaultApproved(),
		CanApproveStudents: false,
		ImageURL:           imageURL,
	}

	if err := s.directory.Insert(ctx, record); err != nil {
		// 5. Compensate in reverse order. Compensation failures are
		// logged above and never replace the primary error.
		for i := len(compensations) - 1; i >= 0; i-- {
			compensations[i](ctx)
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrDuplicateCardNumber
		}
		s.log.Error().Err(err).Str("card_number", input.CardNumber).Msg("directory write failed, credential rolled back")
		return nil, err
	}

	s.log.Info().
		Uint("id", record.ID).
		Str("card_number", record.CardNumber).
		Str("role", string(record.Role)).
		Bool("approved", record.IsApproved).
		Msg("account created")

	return record, nil
}

// Approve sets isApproved on the target. Idempotent: approving an already
// approved record succeeds without a write.
func (s *LifecycleService) Approve(ctx context.Context, actor *models.UserRecord, id uint) (*models.UserRecord, error) {
	target, err := s.getTarget(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanManageTarget(actor, target) {
		return nil, domain.ErrPermissionDenied
	}
	if target.IsApproved {
		return target, nil
	}

	if err := s.directory.UpdateFields(ctx, id, map[string]interface{}{"is_approved": true}); err != nil {
		s.log.Error().Err(err).Uint("id", id).Msg("approve failed")
		return nil, err
	}
	target.IsApproved = true

	s.log.Info().Uint("id", id).Uint("actor", actor.ID).Msg("account approved")
	return target, nil
}

// SetActive toggles the activity gate on the target
func (s *LifecycleService) SetActive(ctx context.Context, actor *models.UserRecord, id uint, active bool) (*models.UserRecord, error) {
	target, err := s.getTarget(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanManageTarget(actor, target) {
		return nil, domain.ErrPermissionDenied
	}

	if err := s.directory.UpdateFields(ctx, id, map[string]interface{}{"is_active": active}); err != nil {
		s.log.Error().Err(err).Uint("id", id).Msg("set active failed")
		return nil, err
	}
	target.IsActive = active

	s.log.Info().Uint("id", id).Uint("actor", actor.ID).Bool("active", active).Msg("activity changed")
	return target, nil
}

// SetApprovalDelegation grants or revokes a staff member's delegated
// approval authority. Admin only; the target must be staff.
func (s *LifecycleService) SetApprovalDelegation(ctx context.Context, actor *models.UserRecord, id uint, canApprove bool) (*models.UserRecord, error) {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return nil, domain.ErrPermissionDenied
	}
	target, err := s.getTarget(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.Role != domain.RoleStaff {
		return nil, domain.ErrInvalidInput
	}

	if err := s.directory.UpdateFields(ctx, id, map[string]interface{}{"can_approve_students": canApprove}); err != nil {
		s.log.Error().Err(err).Uint("id", id).Msg("approval delegation update failed")
		return nil, err
	}
	target.CanApproveStudents = canApprove
	return target, nil
}

// AssignNfcID binds an NFC identifier to the target. Admin only. Assigning
// the id the target already holds is a no-op; assigning an id held by a
// different record fails rather than silently reassigning.
func (s *LifecycleService) AssignNfcID(ctx context.Context, actor *models.UserRecord, id uint, nfcID string) (*models.UserRecord, error) {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return nil, domain.ErrPermissionDenied
	}
	nfcID = strings.TrimSpace(nfcID)
	if nfcID == "" {
		return nil, domain.ErrInvalidInput
	}

	target, err := s.getTarget(ctx, id)
	if err != nil {
		return nil, err
	}

	holder, err := s.directory.FindByNfcID(ctx, nfcID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Error().Err(err).Str("nfc_id", nfcID).Msg("nfc holder lookup failed")
		return nil, err
	}
	if holder != nil {
		if holder.ID == id {
			return target, nil
		}
		return nil, domain.ErrNfcAlreadyAssigned
	}

	if err := s.directory.UpdateFields(ctx, id, map[string]interface{}{"nfc_id": nfcID}); err != nil {
		// Same read-then-write gap as registration: the unique index on
		// nfc_id backstops concurrent assignment of the same tag.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrNfcAlreadyAssigned
		}
		s.log.Error().Err(err).Uint("id", id).Msg("nfc assignment failed")
		return nil, err
	}
	target.NfcID = &nfcID

	s.log.Info().Uint("id", id).Uint("actor", actor.ID).Str("nfc_id", nfcID).Msg("nfc id assigned")
	return target, nil
}

// RemoveNfcID clears the NFC binding on the target. Admin only.
func (s *LifecycleService) RemoveNfcID(ctx context.Context, actor *models.UserRecord, id uint) (*models.UserRecord, error) {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return nil, domain.ErrPermissionDenied
	}
	target, err := s.getTarget(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.directory.UpdateFields(ctx, id, map[string]interface{}{"nfc_id": nil}); err != nil {
		s.log.Error().Err(err).Uint("id", id).Msg("nfc removal failed")
		return nil, err
	}
	target.NfcID = nil

	s.log.Info().Uint("id", id).Uint("actor", actor.ID).Msg("nfc id removed")
	return target, nil
}

// UpdateProfileImage replaces the target's stored profile image. The old
// object is deleted best-effort; a failed delete is logged, not surfaced.
func (s *LifecycleService) UpdateProfileImage(ctx context.Context, actor *models.UserRecord, id uint, image []byte) (*models.UserRecord, error) {
	if len(image) == 0 {
		return nil, domain.ErrInvalidInput
	}
	target, err := s.getTarget(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanManageTarget(actor, target) {
		return nil, domain.ErrPermissionDenied
	}

	path := fmt.Sprintf("profiles/%s.jpg", uuid.New().String())
	url, err := s.images.Upload(ctx, image, path)
	if err != nil {
		s.log.Error().Err(err).Uint("id", id).Msg("profile image upload failed")
		return nil, err
	}

	oldURL := target.ImageURL
	if err := s.directory.UpdateFields(ctx, id, map[string]interface{}{"image_url": url}); err != nil {
		s.log.Error().Err(err).Uint("id", id).Msg("image url update failed")
		return nil, err
	}
	target.ImageURL = url

	if oldURL != "" {
		if derr := s.images.Delete(ctx, oldURL); derr != nil {
			s.log.Warn().Err(derr).Str("url", oldURL).Msg("stale profile image delete failed")
		}
	}
	return target, nil
}

// Delete removes the directory record permanently. The credential is left
// untouched: deletion and de-authentication are decoupled, so revoking the
// credential is an explicit, separate operation. Deactivation via SetActive
// is the recommended soft path.
func (s *LifecycleService) Delete(ctx context.Context, actor *models.UserRecord, id uint) error {
	target, err := s.getTarget(ctx, id)
	if err != nil {
		return err
	}
	if !CanManageTarget(actor, target) {
		return domain.ErrPermissionDenied
	}

	if err := s.directory.Delete(ctx, id); err != nil {
		s.log.Error().Err(err).Uint("id", id).Msg("directory delete failed")
		return err
	}

	s.log.Warn().
		Uint("id", id).
		Uint("actor", actor.ID).
		Str("card_number", target.CardNumber).
		Msg("directory record deleted; credential remains valid until revoked")
	return nil
}

// BulkOperation mutates one already policy-checked target record
type BulkOperation func(ctx context.Context, target *models.UserRecord) error

// BulkResult aggregates the outcome of a bulk operation
type BulkResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// BulkApply applies op to each id independently and concurrently. A single
// id's failure never aborts the others; out-of-scope ids count as failures.
// The upfront authority check is the only thing that aborts the whole batch.
func (s *LifecycleService) BulkApply(ctx context.Context, actor *models.UserRecord, ids []uint, op BulkOperation) (*BulkResult, error) {
	if !CanApprove(actor) {
		return nil, domain.ErrPermissionDenied
	}

	var succeeded, failed int64
	var wg sync.WaitGroup
	for _, id := range ids {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()

			target, err := s.getTarget(ctx, id)
			if err != nil {
				s.log.Warn().Err(err).Uint("id", id).Msg("bulk: target lookup failed")
				atomic.AddInt64(&failed, 1)
				return
			}
			if !CanManageTarget(actor, target) {
				s.log.Warn().Uint("id", id).Uint("actor", actor.ID).Msg("bulk: target out of scope")
				atomic.AddInt64(&failed, 1)
				return
			}
			if err := op(ctx, target); err != nil {
				s.log.Warn().Err(err).Uint("id", id).Msg("bulk: operation failed")
				atomic.AddInt64(&failed, 1)
				return
			}
			atomic.AddInt64(&succeeded, 1)
		}()
	}
	wg.Wait()

	result := &BulkResult{Succeeded: int(succeeded), Failed: int(failed)}
	s.log.Info().
		Uint("actor", actor.ID).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("bulk operation completed")
	return result, nil
}

// ApproveBulk approves every id in the actor's scope
func (s *LifecycleService) ApproveBulk(ctx context.Context, actor *models.UserRecord, ids []uint) (*BulkResult, error) {
	return s.BulkApply(ctx, actor, ids, func(ctx context.Context, target *models.UserRecord) error {
		if target.IsApproved {
			return nil
		}
		return s.directory.UpdateFields(ctx, target.ID, map[string]interface{}{"is_approved": true})
	})
}

// DeactivateBulk deactivates every id in the actor's scope
func (s *LifecycleService) DeactivateBulk(ctx context.Context, actor *models.UserRecord, ids []uint) (*BulkResult, error) {
	return s.BulkApply(ctx, actor, ids, func(ctx context.Context, target *models.UserRecord) error {
		return s.directory.UpdateFields(ctx, target.ID, map[string]interface{}{"is_active": false})
	})
}

// GetByID gets a record by ID
func (s *LifecycleService) GetByID(ctx context.Context, id uint) (*models.UserRecord, error) {
	return s.getTarget(ctx, id)
}

// List lists records matching the filter
func (s *LifecycleService) List(ctx context.Context, filter repositories.DirectoryFilter, offset, limit int) ([]*models.UserRecord, int64, error) {
	return s.directory.List(ctx, filter, offset, limit)
}

func (s *LifecycleService) getTarget(ctx context.Context, id uint) (*models.UserRecord, error) {
	target, err := s.directory.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return target, nil
}
