package handlers

import (
	"errors"

	"campus-cardhub/internal/core/domain"
	"campus-cardhub/internal/core/services"
	"campus-cardhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// KioskHandler handles the unattended kiosk resolution endpoint
type KioskHandler struct {
	resolverService *services.ResolverService
}

// NewKioskHandler creates a new kiosk handler
func NewKioskHandler(resolverService *services.ResolverService) *KioskHandler {
	return &KioskHandler{resolverService: resolverService}
}

// Resolve maps a scanned NFC id or typed card number to a directory record
// @Summary Resolve a scanned card
// @Tags Kiosk
// @Accept json
// @Produce json
// @Router /kiosk/resolve [post]
func (h *KioskHandler) Resolve(c *fiber.Ctx) error {
	var input services.ScanInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	record, err := h.resolverService.Resolve(c.Context(), &input)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return response.BadRequest(c, "An NFC id or card number is required")
		}
		return response.InternalServerError(c, "Card lookup failed")
	}
	if record == nil {
		// Unregistered card, not a failure. The kiosk shows its own prompt.
		return response.NotFound(c, "Card not registered")
	}

	return response.Success(c, "", fiber.Map{
		"user":         record.ToResponse(),
		"grant_access": services.CanGrantAccess(record),
	})
}
