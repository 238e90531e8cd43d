package services

import (
	"context"
	"errors"
	"strings"

	"campus-cardhub/internal/adapters/persistence/models"
	"campus-cardhub/internal/adapters/persistence/repositories"
	"campus-cardhub/internal/core/domain"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ScanInput is one presented card identifier pair. Either field may be
// empty; a kiosk NFC read fills NfcID, manual entry fills CardNumber.
type ScanInput struct {
	NfcID      string `json:"nfc_id"`
	CardNumber string `json:"card_number"`
}

// IsEmpty reports whether the input carries no identifier at all
func (in *ScanInput) IsEmpty() bool {
	return in == nil ||
		(strings.TrimSpace(in.NfcID) == "" && strings.TrimSpace(in.CardNumber) == "")
}

// ResolverService maps presented card identifiers to directory records for
// the unattended kiosk flow. A missing record resolves to (nil, nil) —
// "unregistered" is a normal outcome, distinct from a query error.
type ResolverService struct {
	directory repositories.DirectoryRepository
	log       zerolog.Logger
}

// NewResolverService creates a new resolver service
func NewResolverService(directory repositories.DirectoryRepository, log zerolog.Logger) *ResolverService {
	return &ResolverService{
		directory: directory,
		log:       log.With().Str("service", "resolver").Logger(),
	}
}

// ResolveByCardNumber resolves an exact card number match
func (s *ResolverService) ResolveByCardNumber(ctx context.Context, cardNumber string) (*models.UserRecord, error) {
	cardNumber = strings.TrimSpace(cardNumber)
	if cardNumber == "" {
		return nil, nil
	}
	record, err := s.directory.FindByCardNumber(ctx, cardNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.log.Error().Err(err).Msg("card number resolution failed")
		return nil, err
	}
	return record, nil
}

// ResolveByNfcID resolves an exact NFC id match
func (s *ResolverService) ResolveByNfcID(ctx context.Context, nfcID string) (*models.UserRecord, error) {
	nfcID = strings.TrimSpace(nfcID)
	if nfcID == "" {
		return nil, nil
	}
	record, err := s.directory.FindByNfcID(ctx, nfcID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.log.Error().Err(err).Msg("nfc id resolution failed")
		return nil, err
	}
	return record, nil
}

// Resolve applies the kiosk resolution order: the NFC id wins when present,
// the card number is only consulted when no NFC id was presented. An input
// with neither identifier is a caller error.
func (s *ResolverService) Resolve(ctx context.Context, input *ScanInput) (*models.UserRecord, error) {
	if input.IsEmpty() {
		return nil, domain.ErrInvalidInput
	}
	if strings.TrimSpace(input.NfcID) != "" {
		return s.ResolveByNfcID(ctx, input.NfcID)
	}
	return s.ResolveByCardNumber(ctx, input.CardNumber)
}
