package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"app/internal/model"
	"app/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrUnknownReservation is returned when a token is committed or released
// twice, or was never issued.
var ErrUnknownReservation = errors.New("unknown reservation token")

// QuotaExceededError is returned by TryReserve once the ledger bound is
// reached. It carries the current state so clients can react without
// polling the usage endpoint.
type QuotaExceededError struct {
	Count       int
	MaxRequests int
	Recent      []model.RequestRecord
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("recommendation API limit of %d requests exceeded", e.MaxRequests)
}

// QuotaLedger meters calls to the recommendation provider against a hard
// global budget. A reservation claims one unit of quota before the external
// call; Commit finalizes it (counting successes), Release drops it.
type QuotaLedger interface {
	// TryReserve atomically claims a slot, or fails with *QuotaExceededError
	// without mutating any state.
	TryReserve(ctx context.Context) (string, error)
	// Commit finalizes a reservation. The record is durably appended before
	// Commit returns; a success record also increments the counter.
	Commit(ctx context.Context, token string, record model.RequestRecord) error
	// Release drops a reservation without logging anything. Used when the
	// request dies before any external cost is incurred.
	Release(token string) error
	// UsageSnapshot returns the current count, bound and last-N records.
	UsageSnapshot(ctx context.Context, lastN int) (model.UsageSnapshot, error)
	// Reset clears the counter and log. The ledger only exposes the
	// capability; callers gate it on the operating environment.
	Reset(ctx context.Context) error
}

// quotaLedger guards the durable store with a mutex so reserve/commit
// sequences are serialized: two concurrent TryReserve calls racing for the
// last slot yield exactly one success.
type quotaLedger struct {
	repo        repository.UsageRepository
	maxRequests int
	logger      zerolog.Logger

	mu          sync.Mutex
	reserved    map[string]struct{}
	initialized bool
}

// NewQuotaLedger creates a QuotaLedger bounded at maxRequests.
func NewQuotaLedger(repo repository.UsageRepository, maxRequests int, logger zerolog.Logger) QuotaLedger {
	return &quotaLedger{
		repo:        repo,
		maxRequests: maxRequests,
		logger:      logger.With().Str("service", "QuotaLedger").Logger(),
		reserved:    make(map[string]struct{}),
	}
}

// ensureInitialized creates the usage row on first access. Runs under the
// ledger mutex; the underlying upsert is idempotent anyway.
func (l *quotaLedger) ensureInitialized(ctx context.Context) error {
	if l.initialized {
		return nil
	}
	if err := l.repo.EnsureUsage(ctx); err != nil {
		return err
	}
	l.initialized = true
	return nil
}

func (l *quotaLedger) TryReserve(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureInitialized(ctx); err != nil {
		return "", err
	}
	count, err := l.repo.GetCount(ctx)
	if err != nil {
		return "", err
	}
	if count+len(l.reserved) >= l.maxRequests {
		_, _, recent, snapErr := l.repo.Snapshot(ctx, 5)
		if snapErr != nil {
			l.logger.Warn().Err(snapErr).Msg("Failed to load recent requests for quota error")
		}
		return "", &QuotaExceededError{Count: count, MaxRequests: l.maxRequests, Recent: recent}
	}

	token := uuid.NewString()
	l.reserved[token] = struct{}{}
	return token, nil
}

func (l *quotaLedger) Commit(ctx context.Context, token string, record model.RequestRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.reserved[token]; !ok {
		return ErrUnknownReservation
	}
	if err := l.repo.AppendRecord(ctx, record); err != nil {
		// The reservation stays claimed so the budget is never silently
		// overspent; the caller sees the failure and gives up the request.
		return fmt.Errorf("persisting request record: %w", err)
	}
	delete(l.reserved, token)
	return nil
}

func (l *quotaLedger) Release(token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.reserved[token]; !ok {
		return ErrUnknownReservation
	}
	delete(l.reserved, token)
	return nil
}

func (l *quotaLedger) UsageSnapshot(ctx context.Context, lastN int) (model.UsageSnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureInitialized(ctx); err != nil {
		return model.UsageSnapshot{}, err
	}
	count, startDate, records, err := l.repo.Snapshot(ctx, lastN)
	if err != nil {
		return model.UsageSnapshot{}, err
	}
	return model.UsageSnapshot{
		Count:       count,
		MaxRequests: l.maxRequests,
		StartDate:   startDate,
		Recent:      records,
	}, nil
}

func (l *quotaLedger) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureInitialized(ctx); err != nil {
		return err
	}
	if err := l.repo.Reset(ctx); err != nil {
		return err
	}
	l.logger.Info().Msg("Usage ledger reset")
	return nil
}
