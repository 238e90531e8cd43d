package services

import (
	"context"
	"time"

	"campus-cardhub/internal/adapters/persistence/models"

	"github.com/rs/zerolog"
)

// ScanState is one phase of the kiosk scan cycle
type ScanState string

const (
	StateReady      ScanState = "READY"
	StateScanning   ScanState = "SCANNING"
	StateProcessing ScanState = "PROCESSING"
	StateResolved   ScanState = "RESOLVED"
)

const (
	// DefaultNotFoundCooldown pauses the loop after an unregistered card
	DefaultNotFoundCooldown = 2 * time.Second
	// DefaultErrorCooldown pauses the loop after a transport or query
	// error; longer than the not-found cooldown so a flapping backend is
	// not hammered.
	DefaultErrorCooldown = 5 * time.Second
)

// ScanLoop drives the unattended kiosk scan cycle:
// Ready → Scanning → Processing → (Ready | Resolved). The loop stops at the
// first successful resolution; it is restarted by the consumer, never by
// itself. Cancellation is cooperative: ctx is consulted after every
// suspension point, and cancelling ctx aborts any in-flight transport read.
type ScanLoop struct {
	reader           CardReader
	resolver         *ResolverService
	notFoundCooldown time.Duration
	errorCooldown    time.Duration
	onState          func(ScanState)
	log              zerolog.Logger
}

// NewScanLoop creates a scan loop with the default cooldowns
func NewScanLoop(reader CardReader, resolver *ResolverService, log zerolog.Logger) *ScanLoop {
	return &ScanLoop{
		reader:           reader,
		resolver:         resolver,
		notFoundCooldown: DefaultNotFoundCooldown,
		errorCooldown:    DefaultErrorCooldown,
		log:              log.With().Str("service", "scan_loop").Logger(),
	}
}

// WithCooldowns overrides the pause durations
func (l *ScanLoop) WithCooldowns(notFound, onError time.Duration) *ScanLoop {
	l.notFoundCooldown = notFound
	l.errorCooldown = onError
	return l
}

// OnState registers a state observer for the presentation layer
func (l *ScanLoop) OnState(fn func(ScanState)) {
	l.onState = fn
}

// Run executes scan cycles until a card resolves to a record or ctx is
// cancelled. The returned record has NOT been access-checked; the caller
// re-checks CanAuthenticate (or CanGrantAccess) before treating the
// resolution as a grant.
func (l *ScanLoop) Run(ctx context.Context) (*models.UserRecord, error) {
	for {
		l.setState(StateReady)
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		l.setState(StateScanning)
		input, err := l.reader.Read(ctx)
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		if err != nil {
			l.log.Warn().Err(err).Msg("transport read failed")
			if serr := l.pause(ctx, l.errorCooldown); serr != nil {
				return nil, serr
			}
			continue
		}
		if input.IsEmpty() {
			// Placeholder frame, nothing was presented
			continue
		}

		l.setState(StateProcessing)
		record, err := l.resolver.Resolve(ctx, input)
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		if err != nil {
			l.log.Warn().Err(err).Msg("resolution errored")
			if serr := l.pause(ctx, l.errorCooldown); serr != nil {
				return nil, serr
			}
			continue
		}
		if record == nil {
			l.log.Info().Msg("card not registered")
			if serr := l.pause(ctx, l.notFoundCooldown); serr != nil {
				return nil, serr
			}
			continue
		}

		l.setState(StateResolved)
		l.log.Info().Uint("id", record.ID).Msg("card resolved")
		return record, nil
	}
}

func (l *ScanLoop) setState(state ScanState) {
	if l.onState != nil {
		l.onState(state)
	}
}

func (l *ScanLoop) pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
