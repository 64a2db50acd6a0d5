package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func providerServer(t *testing.T, handler http.HandlerFunc) (RecommendationProvider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	provider := NewOpenAIClient(ProviderConfig{
		APIKey:      "test-key",
		BaseURL:     srv.URL,
		Model:       "gpt-3.5-turbo",
		MaxTokens:   200,
		Temperature: 0.7,
		Timeout:     5 * time.Second,
	}, zerolog.Nop())
	return provider, srv
}

func TestOpenAIClientComplete(t *testing.T) {
	var gotReq chatCompletionRequest
	provider, _ := providerServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != chatCompletionsEndpoint {
			t.Errorf("request path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("authorization header = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "Go Fundamentals - solid base."}},
			},
		})
	})

	answer, err := provider.Complete(context.Background(), "system text", "user text")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if answer != "Go Fundamentals - solid base." {
		t.Fatalf("answer = %q", answer)
	}

	if gotReq.Model != "gpt-3.5-turbo" || gotReq.MaxTokens != 200 {
		t.Fatalf("request parameters = %+v", gotReq)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Fatalf("messages = %+v", gotReq.Messages)
	}
}

func TestOpenAIClientErrorClassification(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		code    string
		wantErr error
	}{
		{"insufficient quota", http.StatusTooManyRequests, "insufficient_quota", ErrProviderQuotaExceeded},
		{"rate limited by code", http.StatusTooManyRequests, "rate_limit_exceeded", ErrProviderRateLimited},
		{"rate limited by status", http.StatusTooManyRequests, "", ErrProviderRateLimited},
		{"server error", http.StatusInternalServerError, "", ErrProvider},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider, _ := providerServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]string{"message": "nope", "code": tc.code},
				})
			})
			_, err := provider.Complete(context.Background(), "s", "u")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestOpenAIClientEmptyCompletion(t *testing.T) {
	provider, _ := providerServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})
	if _, err := provider.Complete(context.Background(), "s", "u"); !errors.Is(err, ErrProvider) {
		t.Fatalf("empty completion error = %v", err)
	}
}
