package services

import (
	"context"
	"errors"
	"testing"

	"campus-cardhub/internal/adapters/persistence/models"
	"campus-cardhub/internal/core/domain"

	"github.com/rs/zerolog"
)

func newResolverFixture() (*ResolverService, *mockDirectoryRepo) {
	directory := newMockDirectoryRepo()
	return NewResolverService(directory, zerolog.Nop()), directory
}

func TestResolveByCardNumber(t *testing.T) {
	svc, directory := newResolverFixture()
	directory.add(&models.UserRecord{CardNumber: "C-1001", FirstName: "Alice"})

	record, err := svc.ResolveByCardNumber(context.Background(), "C-1001")
	if err != nil {
		t.Fatalf("ResolveByCardNumber() error = %v", err)
	}
	if record == nil || record.FirstName != "Alice" {
		t.Error("registered card must resolve to its record")
	}
}

func TestResolveUnregisteredIsNotAnError(t *testing.T) {
	svc, _ := newResolverFixture()

	record, err := svc.ResolveByCardNumber(context.Background(), "C-9999")
	if err != nil {
		t.Fatalf("unregistered card must not error, got %v", err)
	}
	if record != nil {
		t.Error("unregistered card must resolve to nil")
	}

	record, err = svc.ResolveByNfcID(context.Background(), "04:ZZ:ZZ")
	if err != nil || record != nil {
		t.Errorf("unregistered nfc id: record = %v, err = %v, want nil/nil", record, err)
	}
}

func TestResolveQueryErrorSurfaces(t *testing.T) {
	svc, directory := newResolverFixture()
	directory.findErr = errBoom

	if _, err := svc.ResolveByNfcID(context.Background(), "04:AA:BB"); !errors.Is(err, errBoom) {
		t.Fatalf("query error must surface, got %v", err)
	}
}

func TestResolvePrefersNfcID(t *testing.T) {
	svc, directory := newResolverFixture()
	nfc := "04:AA:BB"
	directory.add(&models.UserRecord{CardNumber: "C-1001", FirstName: "ByCard"})
	directory.add(&models.UserRecord{CardNumber: "C-2002", NfcID: &nfc, FirstName: "ByNfc"})

	record, err := svc.Resolve(context.Background(), &ScanInput{NfcID: "04:AA:BB", CardNumber: "C-1001"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if record.FirstName != "ByNfc" {
		t.Errorf("resolved %q, want the nfc match", record.FirstName)
	}
}

func TestResolveFallsBackToCardNumber(t *testing.T) {
	svc, directory := newResolverFixture()
	directory.add(&models.UserRecord{CardNumber: "C-1001", FirstName: "ByCard"})

	record, err := svc.Resolve(context.Background(), &ScanInput{CardNumber: "C-1001"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if record == nil || record.FirstName != "ByCard" {
		t.Error("card number must resolve when no nfc id was presented")
	}
}

func TestResolveEmptyInput(t *testing.T) {
	svc, _ := newResolverFixture()

	if _, err := svc.Resolve(context.Background(), &ScanInput{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Resolve(context.Background(), nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("nil input: error = %v, want ErrInvalidInput", err)
	}
}
