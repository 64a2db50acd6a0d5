package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// MaxPromptLength bounds user prompts before any quota or provider cost.
	MaxPromptLength = 200
	// catalogSampleLimit caps the number of courses condensed into the
	// provider prompt.
	catalogSampleLimit = 15
	// promptLogLength is how much of the prompt lands in the audit log.
	promptLogLength = 100
)

var (
	ErrPromptRequired     = errors.New("prompt is required")
	ErrPromptTooLong      = fmt.Errorf("prompt too long: keep it under %d characters", MaxPromptLength)
	ErrNoCoursesAvailable = errors.New("no courses available")
)

// RecommendationResult is the successful outcome of a recommendation call.
type RecommendationResult struct {
	Recommendation     string
	RecommendedCourses []model.CourseSummary
	RequestsUsed       int
	RequestsRemaining  int
	MaxRequests        int
}

// RecommendationService runs a recommendation request through validation,
// quota reservation, catalog condensation, the external call, best-effort
// reconciliation and audit logging.
type RecommendationService interface {
	Recommend(ctx context.Context, userID, prompt string) (*RecommendationResult, error)
}

type recommendationService struct {
	courseRepo repository.CourseRepository
	ledger     QuotaLedger
	provider   RecommendationProvider
	logger     zerolog.Logger
}

// NewRecommendationService creates a RecommendationService.
func NewRecommendationService(
	courseRepo repository.CourseRepository,
	ledger QuotaLedger,
	provider RecommendationProvider,
	logger zerolog.Logger,
) RecommendationService {
	return &recommendationService{
		courseRepo: courseRepo,
		ledger:     ledger,
		provider:   provider,
		logger:     logger.With().Str("service", "RecommendationService").Logger(),
	}
}

func (s *recommendationService) Recommend(ctx context.Context, userID, prompt string) (*RecommendationResult, error) {
	// Validation happens before any quota or catalog interaction.
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrPromptRequired
	}
	if len([]rune(prompt)) > MaxPromptLength {
		return nil, ErrPromptTooLong
	}

	token, err := s.ledger.TryReserve(ctx)
	if err != nil {
		return nil, err
	}

	catalog, err := s.courseRepo.ListPublishedSample(ctx, catalogSampleLimit)
	if err != nil {
		s.releaseReservation(token)
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}
	if len(catalog) == 0 {
		// Not charged and not logged: no external cost was incurred.
		s.releaseReservation(token)
		return nil, ErrNoCoursesAvailable
	}

	titles := make([]string, len(catalog))
	for i, c := range catalog {
		titles[i] = fmt.Sprintf("%s (%s)", c.Title, c.Category)
	}
	systemPrompt := fmt.Sprintf(
		"Recommend 3-4 relevant courses from: %s.\nBased on: %q\nFormat: Course Name - Brief reason (1 line each)",
		strings.Join(titles, ", "), prompt,
	)

	answer, err := s.provider.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		s.commitRecord(ctx, token, userID, prompt, false, classifyProviderError(err))
		return nil, err
	}

	// Best-effort reconciliation: a catalog course counts as recommended
	// when its title appears in the answer, case-insensitively. The match
	// may over- or under-select relative to what the provider intended.
	answerLower := strings.ToLower(answer)
	matched := []model.CourseSummary{}
	for _, c := range catalog {
		if strings.Contains(answerLower, strings.ToLower(c.Title)) {
			matched = append(matched, c)
		}
	}

	if err := s.commitRecord(ctx, token, userID, prompt, true, ""); err != nil {
		return nil, fmt.Errorf("recording request: %w", err)
	}

	snapshot, err := s.ledger.UsageSnapshot(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("reading usage: %w", err)
	}
	s.logger.Info().
		Int("requests_used", snapshot.Count).
		Int("max_requests", snapshot.MaxRequests).
		Msg("Recommendation served")

	return &RecommendationResult{
		Recommendation:     answer,
		RecommendedCourses: matched,
		RequestsUsed:       snapshot.Count,
		RequestsRemaining:  snapshot.Remaining(),
		MaxRequests:        snapshot.MaxRequests,
	}, nil
}

func (s *recommendationService) releaseReservation(token string) {
	if err := s.ledger.Release(token); err != nil {
		s.logger.Error().Err(err).Msg("Failed to release quota reservation")
	}
}

func (s *recommendationService) commitRecord(ctx context.Context, token, userID, prompt string, success bool, failure string) error {
	record := model.RequestRecord{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		Prompt:    truncate(prompt, promptLogLength),
		Success:   success,
	}
	if failure != "" {
		record.Error = &failure
	}
	if err := s.ledger.Commit(ctx, token, record); err != nil {
		s.logger.Error().Err(err).Bool("success", success).Msg("Failed to commit request record")
		return err
	}
	return nil
}

// classifyProviderError reduces a provider failure to the coarse label kept
// in the audit log.
func classifyProviderError(err error) string {
	switch {
	case errors.Is(err, ErrProviderQuotaExceeded):
		return "provider_quota_exceeded"
	case errors.Is(err, ErrProviderRateLimited):
		return "provider_rate_limited"
	default:
		return "provider_error"
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
