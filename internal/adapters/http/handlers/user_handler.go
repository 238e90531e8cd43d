package handlers

import (
	"encoding/base64"
	"errors"
	"strconv"

	"campus-cardhub/internal/adapters/persistence/models"
	"campus-cardhub/internal/adapters/persistence/repositories"
	"campus-cardhub/internal/core/domain"
	"campus-cardhub/internal/core/services"
	"campus-cardhub/internal/pkg/pagination"
	"campus-cardhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles the admin/staff account management endpoints
type UserHandler struct {
	lifecycleService *services.LifecycleService
}

// NewUserHandler creates a new user handler
func NewUserHandler(lifecycleService *services.LifecycleService) *UserHandler {
	return &UserHandler{lifecycleService: lifecycleService}
}

// SetActiveRequest represents an activation toggle request body
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// AssignNfcRequest represents an NFC assignment request body
type AssignNfcRequest struct {
	NfcID string `json:"nfc_id"`
}

// DelegationRequest represents an approval delegation request body
type DelegationRequest struct {
	CanApproveStudents bool `json:"can_approve_students"`
}

// BulkRequest represents a bulk operation request body
type BulkRequest struct {
	IDs []uint `json:"ids"`
}

// ImageRequest represents a profile image update request body
type ImageRequest struct {
	ImageBase64 string `json:"image_base64"`
}

// List lists directory records with filters
// @Summary List accounts
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	filter := repositories.DirectoryFilter{
		Department: c.Query("department"),
		Search:     c.Query("search"),
	}
	if role := c.Query("role"); role != "" {
		parsed, perr := domain.ParseRole(role)
		if perr != nil {
			return response.BadRequest(c, "Unknown role filter")
		}
		filter.Role = parsed
	}
	if approved := c.Query("approved"); approved != "" {
		v, perr := strconv.ParseBool(approved)
		if perr != nil {
			return response.BadRequest(c, "Invalid approved filter")
		}
		filter.Approved = &v
	}
	if active := c.Query("active"); active != "" {
		v, perr := strconv.ParseBool(active)
		if perr != nil {
			return response.BadRequest(c, "Invalid active filter")
		}
		filter.Active = &v
	}

	// Staff browse their own department only
	if actor.Role == domain.RoleStaff {
		filter.Department = actor.Department
	}

	params := pagination.GetParams(c)
	records, total, err := h.lifecycleService.List(c.Context(), filter, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list accounts")
	}

	out := make([]*models.UserResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.ToResponse())
	}
	return response.Success(c, "", fiber.Map{
		"users": out,
		"meta":  pagination.GetMeta(params, total),
	})
}

// Get returns one directory record
// @Summary Get an account
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := h.targetID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid account id")
	}

	record, err := h.lifecycleService.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return response.NotFound(c, "Account not found")
		}
		return response.InternalServerError(c, "Failed to load account")
	}
	return response.Success(c, "", record.ToResponse())
}

// Approve approves a pending account
// @Summary Approve an account
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Router /users/{id}/approve [post]
func (h *UserHandler) Approve(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := h.targetID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid account id")
	}

	record, err := h.lifecycleService.Approve(c.Context(), actor, id)
	if err != nil {
		return h.mutationError(c, err, "Failed to approve account")
	}
	return response.Success(c, "Account approved", record.ToResponse())
}

// ApproveBulk approves a set of accounts
// @Summary Approve accounts in bulk
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /users/approve-bulk [post]
func (h *UserHandler) ApproveBulk(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req BulkRequest
	if err := c.BodyParser(&req); err != nil || len(req.IDs) == 0 {
		return response.BadRequest(c, "Account id list is required")
	}

	result, err := h.lifecycleService.ApproveBulk(c.Context(), actor, req.IDs)
	if err != nil {
		return h.mutationError(c, err, "Failed to approve accounts")
	}
	return response.Success(c, "Bulk approval completed", result)
}

// SetActive toggles an account's activity gate
// @Summary Activate or deactivate an account
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /users/{id}/active [put]
func (h *UserHandler) SetActive(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := h.targetID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid account id")
	}

	var req SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	record, err := h.lifecycleService.SetActive(c.Context(), actor, id, req.Active)
	if err != nil {
		return h.mutationError(c, err, "Failed to update account")
	}
	return response.Success(c, "Account updated", record.ToResponse())
}

// DeactivateBulk deactivates a set of accounts
// @Summary Deactivate accounts in bulk
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /users/deactivate-bulk [post]
func (h *UserHandler) DeactivateBulk(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req BulkRequest
	if err := c.BodyParser(&req); err != nil || len(req.IDs) == 0 {
		return response.BadRequest(c, "Account id list is required")
	}

	result, err := h.lifecycleService.DeactivateBulk(c.Context(), actor, req.IDs)
	if err != nil {
		return h.mutationError(c, err, "Failed to deactivate accounts")
	}
	return response.Success(c, "Bulk deactivation completed", result)
}

// AssignNfc binds an NFC identifier to an account
// @Summary Assign an NFC id
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /users/{id}/nfc [put]
func (h *UserHandler) AssignNfc(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := h.targetID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid account id")
	}

	var req AssignNfcRequest
	if err := c.BodyParser(&req); err != nil || req.NfcID == "" {
		return response.BadRequest(c, "NFC id is required")
	}

	record, err := h.lifecycleService.AssignNfcID(c.Context(), actor, id, req.NfcID)
	if err != nil {
		if errors.Is(err, domain.ErrNfcAlreadyAssigned) {
			return response.Conflict(c, "NFC id is already assigned to another account")
		}
		return h.mutationError(c, err, "Failed to assign NFC id")
	}
	return response.Success(c, "NFC id assigned", record.ToResponse())
}

// RemoveNfc clears an account's NFC binding
// @Summary Remove the NFC id
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Router /users/{id}/nfc [delete]
func (h *UserHandler) RemoveNfc(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := h.targetID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid account id")
	}

	record, err := h.lifecycleService.RemoveNfcID(c.Context(), actor, id)
	if err != nil {
		return h.mutationError(c, err, "Failed to remove NFC id")
	}
	return response.Success(c, "NFC id removed", record.ToResponse())
}

// SetDelegation grants or revokes a staff member's approval authority
// @Summary Set approval delegation for a staff account
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /users/{id}/delegation [put]
func (h *UserHandler) SetDelegation(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := h.targetID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid account id")
	}

	var req DelegationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	record, err := h.lifecycleService.SetApprovalDelegation(c.Context(), actor, id, req.CanApproveStudents)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return response.BadRequest(c, "Approval delegation applies to staff accounts only")
		}
		return h.mutationError(c, err, "Failed to update delegation")
	}
	return response.Success(c, "Delegation updated", record.ToResponse())
}

// SetImage replaces an account's profile image
// @Summary Update the profile image
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /users/{id}/image [put]
func (h *UserHandler) SetImage(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := h.targetID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid account id")
	}

	var req ImageRequest
	if err := c.BodyParser(&req); err != nil || req.ImageBase64 == "" {
		return response.BadRequest(c, "Image payload is required")
	}
	image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		return response.BadRequest(c, "Invalid image payload")
	}

	record, err := h.lifecycleService.UpdateProfileImage(c.Context(), actor, id, image)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return response.BadRequest(c, "Image payload is required")
		}
		return h.mutationError(c, err, "Failed to update image")
	}
	return response.Success(c, "Profile image updated", record.ToResponse())
}

// Delete removes a directory record permanently
// @Summary Delete an account
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := h.targetID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid account id")
	}

	if err := h.lifecycleService.Delete(c.Context(), actor, id); err != nil {
		return h.mutationError(c, err, "Failed to delete account")
	}
	return response.Success(c, "Account deleted", nil)
}

// actor loads the full directory record of the authenticated principal.
// Policy checks need live lifecycle state, not the snapshot in the token.
func (h *UserHandler) actor(c *fiber.Ctx) (*models.UserRecord, error) {
	recordID, ok := c.Locals("recordID").(uint)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return h.lifecycleService.GetByID(c.Context(), recordID)
}

func (h *UserHandler) targetID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidInput
	}
	return uint(id), nil
}

func (h *UserHandler) mutationError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		return response.Forbidden(c, "You don't have permission to manage this account")
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, "Account not found")
	default:
		return response.InternalServerError(c, fallback)
	}
}
