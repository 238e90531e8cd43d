package handlers

import (
	"errors"

	"campus-cardhub/internal/adapters/persistence/repositories"
	"campus-cardhub/internal/core/domain"
	"campus-cardhub/internal/core/services"
	"campus-cardhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ExportHandler handles directory export downloads
type ExportHandler struct {
	exportService    *services.ExportService
	lifecycleService *services.LifecycleService
}

// NewExportHandler creates a new export handler
func NewExportHandler(exportService *services.ExportService, lifecycleService *services.LifecycleService) *ExportHandler {
	return &ExportHandler{
		exportService:    exportService,
		lifecycleService: lifecycleService,
	}
}

// ExportUsers streams the user directory as an Excel workbook
// @Summary Export the user directory
// @Tags Export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Router /users/export [get]
func (h *ExportHandler) ExportUsers(c *fiber.Ctx) error {
	recordID, ok := c.Locals("recordID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	actor, err := h.lifecycleService.GetByID(c.Context(), recordID)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	filter := repositories.DirectoryFilter{
		Department: c.Query("department"),
	}
	if role := c.Query("role"); role != "" {
		parsed, perr := domain.ParseRole(role)
		if perr != nil {
			return response.BadRequest(c, "Unknown role filter")
		}
		filter.Role = parsed
	}

	buf, filename, err := h.exportService.ExportUsers(c.Context(), actor, filter)
	if err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			return response.Forbidden(c, "Only administrators may export the directory")
		}
		return response.InternalServerError(c, "Export failed")
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(buf.Bytes())
}
