package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"campus-cardhub/internal/adapters/persistence/models"
	"campus-cardhub/internal/adapters/persistence/repositories"
	"campus-cardhub/internal/core/domain"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// exportBatchSize is how many records one directory page fetch pulls
const exportBatchSize = 500

// ExportService renders the user directory as an Excel workbook for
// administrative reporting.
type ExportService struct {
	directory repositories.DirectoryRepository
	log       zerolog.Logger
}

// NewExportService creates a new export service
func NewExportService(directory repositories.DirectoryRepository, log zerolog.Logger) *ExportService {
	return &ExportService{
		directory: directory,
		log:       log.With().Str("service", "export").Logger(),
	}
}

// ExportUsers writes all directory records matching the filter to a .xlsx
// workbook. Admin only. Returns the workbook bytes and a suggested filename.
func (s *ExportService) ExportUsers(ctx context.Context, actor *models.UserRecord, filter repositories.DirectoryFilter) (*bytes.Buffer, string, error) {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return nil, "", domain.ErrPermissionDenied
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Users"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{
		"Card Number", "NFC ID", "First Name", "Last Name", "Email",
		"Role", "Department", "Active", "Approved", "Created",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, "", err
		}
	}

	row := 2
	offset := 0
	for {
		records, _, err := s.directory.List(ctx, filter, offset, exportBatchSize)
		if err != nil {
			s.log.Error().Err(err).Msg("directory page fetch failed")
			return nil, "", err
		}
		if len(records) == 0 {
			break
		}

		for _, rec := range records {
			nfc := ""
			if rec.NfcID != nil {
				nfc = *rec.NfcID
			}
			values := []interface{}{
				rec.CardNumber, nfc, rec.FirstName, rec.LastName, rec.Email,
				rec.Role.DisplayLabel(), rec.Department, rec.IsActive, rec.IsApproved,
				rec.CreatedAt.Format(time.RFC3339),
			}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return nil, "", err
				}
			}
			row++
		}

		if len(records) < exportBatchSize {
			break
		}
		offset += exportBatchSize
	}

	_ = f.SetColWidth(sheet, "A", "J", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.log.Error().Err(err).Msg("workbook serialization failed")
		return nil, "", err
	}

	filename := fmt.Sprintf("user-directory-%s.xlsx", time.Now().Format("20060102"))
	s.log.Info().Int("rows", row-2).Str("file", filename).Msg("directory exported")
	return buf, filename, nil
}
