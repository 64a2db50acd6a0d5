package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"app/internal/model"

	"github.com/rs/zerolog"
)

// fakeCatalogRepo serves a fixed course sample for recommendation tests.
type fakeCatalogRepo struct {
	fakeCourseRepo
	sample    []model.CourseSummary
	sampleErr error
}

func (f *fakeCatalogRepo) ListPublishedSample(ctx context.Context, limit int) ([]model.CourseSummary, error) {
	if f.sampleErr != nil {
		return nil, f.sampleErr
	}
	if limit < len(f.sample) {
		return f.sample[:limit], nil
	}
	return f.sample, nil
}

// fakeProvider records the prompts it received and returns a canned answer.
type fakeProvider struct {
	answer       string
	err          error
	calls        int
	systemPrompt string
}

func (f *fakeProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	f.systemPrompt = systemPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func recommendationFixture(answer string) (*recommendationService, *fakeCatalogRepo, *fakeUsageRepo, *fakeProvider) {
	catalog := &fakeCatalogRepo{
		sample: []model.CourseSummary{
			{CourseID: "c1", Title: "Go Fundamentals", Category: "Programming", Level: "Beginner"},
			{CourseID: "c2", Title: "Kubernetes in Production", Category: "DevOps", Level: "Advanced"},
			{CourseID: "c3", Title: "Intro to Marketing", Category: "Marketing", Level: "Beginner"},
		},
	}
	usageRepo := newFakeUsageRepo()
	ledger := NewQuotaLedger(usageRepo, 10, zerolog.Nop())
	provider := &fakeProvider{answer: answer}
	svc := NewRecommendationService(catalog, ledger, provider, zerolog.Nop()).(*recommendationService)
	return svc, catalog, usageRepo, provider
}

func TestRecommendRejectsInvalidPromptsBeforeQuota(t *testing.T) {
	ctx := context.Background()
	svc, _, usageRepo, provider := recommendationFixture("irrelevant")

	if _, err := svc.Recommend(ctx, "u1", "   "); !errors.Is(err, ErrPromptRequired) {
		t.Fatalf("blank prompt: %v", err)
	}
	long := strings.Repeat("p", MaxPromptLength+1)
	if _, err := svc.Recommend(ctx, "u1", long); !errors.Is(err, ErrPromptTooLong) {
		t.Fatalf("long prompt: %v", err)
	}

	if provider.calls != 0 {
		t.Fatal("provider must not be called for invalid prompts")
	}
	if len(usageRepo.records) != 0 {
		t.Fatal("invalid prompts must not be logged or charged")
	}
}

func TestRecommendSuccess(t *testing.T) {
	ctx := context.Background()
	answer := "Try go fundamentals - great start.\nThen KUBERNETES IN PRODUCTION - ops depth."
	svc, _, usageRepo, provider := recommendationFixture(answer)

	result, err := svc.Recommend(ctx, "u1", "I want to learn backend engineering")
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if result.Recommendation != answer {
		t.Fatalf("answer passed through wrong: %q", result.Recommendation)
	}

	// Title matching is case-insensitive; the marketing course is absent
	// from the answer and must not be matched.
	if len(result.RecommendedCourses) != 2 {
		t.Fatalf("matched %d courses, want 2", len(result.RecommendedCourses))
	}
	if result.RecommendedCourses[0].CourseID != "c1" || result.RecommendedCourses[1].CourseID != "c2" {
		t.Fatalf("matched wrong courses: %+v", result.RecommendedCourses)
	}

	if result.RequestsUsed != 1 || result.RequestsRemaining != 9 || result.MaxRequests != 10 {
		t.Fatalf("usage stats = %d used / %d remaining / %d max", result.RequestsUsed, result.RequestsRemaining, result.MaxRequests)
	}

	if !strings.Contains(provider.systemPrompt, "Go Fundamentals (Programming)") {
		t.Fatalf("system prompt missing catalog entry: %q", provider.systemPrompt)
	}

	if len(usageRepo.records) != 1 {
		t.Fatalf("audit log has %d records, want 1", len(usageRepo.records))
	}
	rec := usageRepo.records[0]
	if !rec.Success || rec.UserID != "u1" {
		t.Fatalf("bad audit record: %+v", rec)
	}
}

func TestRecommendTruncatesPromptInAuditLog(t *testing.T) {
	ctx := context.Background()
	svc, _, usageRepo, _ := recommendationFixture("Go Fundamentals")

	prompt := strings.Repeat("q", MaxPromptLength)
	if _, err := svc.Recommend(ctx, "u1", prompt); err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if got := usageRepo.records[0].Prompt; len([]rune(got)) != promptLogLength {
		t.Fatalf("logged prompt length = %d, want %d", len([]rune(got)), promptLogLength)
	}
}

func TestRecommendEmptyCatalogReleasesReservation(t *testing.T) {
	ctx := context.Background()
	svc, catalog, usageRepo, provider := recommendationFixture("irrelevant")
	catalog.sample = nil

	if _, err := svc.Recommend(ctx, "u1", "anything"); !errors.Is(err, ErrNoCoursesAvailable) {
		t.Fatalf("empty catalog: %v", err)
	}
	if provider.calls != 0 {
		t.Fatal("provider must not be called with an empty catalog")
	}
	if len(usageRepo.records) != 0 {
		t.Fatal("empty-catalog requests must not be logged")
	}

	// The reservation must have been released: a following request with a
	// restored catalog succeeds.
	catalog.sample = []model.CourseSummary{{CourseID: "c1", Title: "Go Fundamentals", Category: "Programming"}}
	if _, err := svc.Recommend(ctx, "u1", "anything"); err != nil {
		t.Fatalf("recommend after release: %v", err)
	}
}

func TestRecommendProviderFailureIsLoggedNotCharged(t *testing.T) {
	ctx := context.Background()
	svc, _, usageRepo, provider := recommendationFixture("")
	provider.err = ErrProviderRateLimited

	_, err := svc.Recommend(ctx, "u1", "anything")
	if !errors.Is(err, ErrProviderRateLimited) {
		t.Fatalf("provider failure: %v", err)
	}

	if len(usageRepo.records) != 1 {
		t.Fatalf("audit log has %d records, want 1", len(usageRepo.records))
	}
	rec := usageRepo.records[0]
	if rec.Success {
		t.Fatal("provider failure logged as success")
	}
	if rec.Error == nil || *rec.Error != "provider_rate_limited" {
		t.Fatalf("failure label = %v", rec.Error)
	}
	if count, _ := usageRepo.GetCount(ctx); count != 0 {
		t.Fatalf("failed request consumed quota: count = %d", count)
	}
}

func TestRecommendQuotaExhausted(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalogRepo{
		sample: []model.CourseSummary{{CourseID: "c1", Title: "Go Fundamentals", Category: "Programming"}},
	}
	usageRepo := newFakeUsageRepo()
	ledger := NewQuotaLedger(usageRepo, 1, zerolog.Nop())
	provider := &fakeProvider{answer: "Go Fundamentals"}
	svc := NewRecommendationService(catalog, ledger, provider, zerolog.Nop())

	if _, err := svc.Recommend(ctx, "u1", "first"); err != nil {
		t.Fatalf("first recommend: %v", err)
	}

	_, err := svc.Recommend(ctx, "u1", "second")
	var quotaErr *QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("want QuotaExceededError, got %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("provider called %d times, want 1", provider.calls)
	}
}
