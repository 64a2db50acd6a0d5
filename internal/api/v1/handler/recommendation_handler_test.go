package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"
	"app/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// stubRecommendationService returns a fixed result or error.
type stubRecommendationService struct {
	result *service.RecommendationResult
	err    error
}

func (s *stubRecommendationService) Recommend(ctx context.Context, userID, prompt string) (*service.RecommendationResult, error) {
	return s.result, s.err
}

// stubLedger serves a fixed usage snapshot.
type stubLedger struct {
	snapshot model.UsageSnapshot
	resets   int
}

func (s *stubLedger) TryReserve(ctx context.Context) (string, error) { return "t", nil }
func (s *stubLedger) Commit(ctx context.Context, token string, record model.RequestRecord) error {
	return nil
}
func (s *stubLedger) Release(token string) error { return nil }
func (s *stubLedger) UsageSnapshot(ctx context.Context, lastN int) (model.UsageSnapshot, error) {
	return s.snapshot, nil
}
func (s *stubLedger) Reset(ctx context.Context) error { s.resets++; return nil }

// identityMw injects a caller the way the auth middleware would.
func identityMw(userID, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID != "" {
				ctx := context.WithValue(r.Context(), middleware.UserContextKey, userID)
				ctx = context.WithValue(ctx, middleware.RoleContextKey, role)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func recommendationMux(svc service.RecommendationService, ledger service.QuotaLedger, cfg *config.Config, userID, role string) *http.ServeMux {
	h := NewRecommendationHandler(svc, ledger, cfg, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, identityMw(userID, role))
	return mux
}

func postRecommendation(mux *http.ServeMux, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/recommendations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestRecommendStatusMapping(t *testing.T) {
	cfg := &config.Config{Environment: "development"}
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"prompt required", service.ErrPromptRequired, http.StatusBadRequest},
		{"prompt too long", service.ErrPromptTooLong, http.StatusBadRequest},
		{"quota exceeded", &service.QuotaExceededError{Count: 250, MaxRequests: 250}, http.StatusTooManyRequests},
		{"no courses", service.ErrNoCoursesAvailable, http.StatusNotFound},
		{"provider quota", service.ErrProviderQuotaExceeded, http.StatusPaymentRequired},
		{"provider rate limited", service.ErrProviderRateLimited, http.StatusTooManyRequests},
		{"provider error", service.ErrProvider, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux := recommendationMux(&stubRecommendationService{err: tc.err}, &stubLedger{}, cfg, "u1", util.RoleStudent)
			rec := postRecommendation(mux, `{"prompt":"teach me"}`)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}

func TestRecommendRequiresStudentRole(t *testing.T) {
	cfg := &config.Config{Environment: "development"}
	svc := &stubRecommendationService{result: &service.RecommendationResult{}}

	mux := recommendationMux(svc, &stubLedger{}, cfg, "inst-1", util.RoleInstructor)
	if rec := postRecommendation(mux, `{"prompt":"teach me"}`); rec.Code != http.StatusForbidden {
		t.Fatalf("instructor status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	mux = recommendationMux(svc, &stubLedger{}, cfg, "", "")
	if rec := postRecommendation(mux, `{"prompt":"teach me"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRecommendSuccessPayload(t *testing.T) {
	cfg := &config.Config{Environment: "development"}
	svc := &stubRecommendationService{result: &service.RecommendationResult{
		Recommendation:     "Go Fundamentals - start here.",
		RecommendedCourses: []model.CourseSummary{{CourseID: "c1", Title: "Go Fundamentals", Category: "Programming"}},
		RequestsUsed:       7,
		RequestsRemaining:  243,
		MaxRequests:        250,
	}}

	mux := recommendationMux(svc, &stubLedger{}, cfg, "u1", util.RoleStudent)
	rec := postRecommendation(mux, `{"prompt":"teach me"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{`"requests_used":7`, `"Go Fundamentals"`, `"success":true`} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %s: %s", want, body)
		}
	}
}

func TestUsageEndpoint(t *testing.T) {
	cfg := &config.Config{Environment: "development"}
	ledger := &stubLedger{snapshot: model.UsageSnapshot{
		Count:       210,
		MaxRequests: 250,
		StartDate:   time.Now().UTC(),
	}}

	mux := recommendationMux(&stubRecommendationService{}, ledger, cfg, "u1", util.RoleStudent)
	req := httptest.NewRequest(http.MethodGet, "/recommendations/usage", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`"api_requests_used":210`, `"warning_level":"HIGH"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %s: %s", want, body)
		}
	}
}

func TestResetUsageIsDevelopmentOnly(t *testing.T) {
	ledger := &stubLedger{}

	prodMux := recommendationMux(&stubRecommendationService{}, ledger, &config.Config{Environment: "production"}, "u1", util.RoleStudent)
	req := httptest.NewRequest(http.MethodPost, "/recommendations/reset-usage", nil)
	rec := httptest.NewRecorder()
	prodMux.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("production reset status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if ledger.resets != 0 {
		t.Fatal("production reset reached the ledger")
	}

	devMux := recommendationMux(&stubRecommendationService{}, ledger, &config.Config{Environment: "development"}, "u1", util.RoleStudent)
	req = httptest.NewRequest(http.MethodPost, "/recommendations/reset-usage", nil)
	rec = httptest.NewRecorder()
	devMux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("development reset status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ledger.resets != 1 {
		t.Fatalf("ledger resets = %d, want 1", ledger.resets)
	}
}
