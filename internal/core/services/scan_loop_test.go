package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"campus-cardhub/internal/adapters/persistence/models"

	"github.com/rs/zerolog"
)

func newScanFixture(reads ...mockRead) (*ScanLoop, *mockDirectoryRepo) {
	directory := newMockDirectoryRepo()
	resolver := NewResolverService(directory, zerolog.Nop())
	reader := &mockCardReader{reads: reads}
	loop := NewScanLoop(reader, resolver, zerolog.Nop()).
		WithCooldowns(5*time.Millisecond, 10*time.Millisecond)
	return loop, directory
}

func TestScanLoopResolvesAndStops(t *testing.T) {
	loop, directory := newScanFixture(
		mockRead{input: &ScanInput{NfcID: "04:AA:BB"}},
	)
	nfc := "04:AA:BB"
	directory.add(&models.UserRecord{CardNumber: "C-1001", NfcID: &nfc, IsActive: true, IsApproved: true})

	var mu sync.Mutex
	var states []ScanState
	loop.OnState(func(s ScanState) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	record, err := loop.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if record == nil || record.CardNumber != "C-1001" {
		t.Error("loop must return the resolved record")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []ScanState{StateReady, StateScanning, StateProcessing, StateResolved}
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("states = %v, want %v", states, want)
		}
	}
}

func TestScanLoopResumesAfterUnregisteredCard(t *testing.T) {
	loop, directory := newScanFixture(
		mockRead{input: &ScanInput{NfcID: "04:UN:KN"}},
		mockRead{input: &ScanInput{NfcID: "04:AA:BB"}},
	)
	nfc := "04:AA:BB"
	directory.add(&models.UserRecord{CardNumber: "C-1001", NfcID: &nfc})

	start := time.Now()
	record, err := loop.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if record == nil || record.CardNumber != "C-1001" {
		t.Error("loop must resume and resolve the second scan")
	}
	if elapsed := time.Since(start); elapsed < 5*time.Millisecond {
		t.Errorf("not-found cooldown was skipped, elapsed %v", elapsed)
	}
}

func TestScanLoopResumesAfterTransportError(t *testing.T) {
	loop, directory := newScanFixture(
		mockRead{err: errors.New("reader unplugged")},
		mockRead{input: &ScanInput{CardNumber: "C-1001"}},
	)
	directory.add(&models.UserRecord{CardNumber: "C-1001"})

	start := time.Now()
	record, err := loop.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if record == nil {
		t.Fatal("loop must survive a transport error")
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("error cooldown was skipped, elapsed %v", elapsed)
	}
}

func TestScanLoopSkipsEmptyFrames(t *testing.T) {
	loop, directory := newScanFixture(
		mockRead{input: &ScanInput{}},
		mockRead{input: &ScanInput{CardNumber: "C-1001"}},
	)
	directory.add(&models.UserRecord{CardNumber: "C-1001"})

	record, err := loop.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if record == nil {
		t.Error("empty frames must be skipped without a cooldown")
	}
}

func TestScanLoopCancellation(t *testing.T) {
	loop, _ := newScanFixture() // empty script: the reader blocks

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var runErr error
	go func() {
		_, runErr = loop.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after cancellation")
	}
	if !errors.Is(runErr, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", runErr)
	}
}

func TestScanLoopCancellationDuringCooldown(t *testing.T) {
	loop, _ := newScanFixture(
		mockRead{input: &ScanInput{NfcID: "04:UN:KN"}},
	)
	loop.WithCooldowns(time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var runErr error
	go func() {
		_, runErr = loop.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cooldown pause must honor cancellation")
	}
	if !errors.Is(runErr, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", runErr)
	}
}
