package ai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"
)

func TestGenerateWithRetries(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("recovers from transient error", func(t *testing.T) {
		t.Parallel()

		calls := 0
		resp, err := generateWithRetries(context.Background(), log, 2, time.Millisecond,
			func() (*genai.GenerateContentResponse, error) {
				calls++
				if calls == 1 {
					return nil, &genai.APIError{Code: 503, Message: "overloaded"}
				}
				return &genai.GenerateContentResponse{}, nil
			})
		if err != nil {
			t.Fatalf("generateWithRetries failed: %v", err)
		}
		if resp == nil {
			t.Fatal("expected a response after retry")
		}
		if calls != 2 {
			t.Errorf("calls = %d, want 2", calls)
		}
	})

	t.Run("non-retriable error returns immediately", func(t *testing.T) {
		t.Parallel()

		calls := 0
		_, err := generateWithRetries(context.Background(), log, 2, time.Millisecond,
			func() (*genai.GenerateContentResponse, error) {
				calls++
				return nil, &genai.APIError{Code: 400, Message: "bad request"}
			})
		if err == nil {
			t.Fatal("expected error for non-retriable code")
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		t.Parallel()

		calls := 0
		_, err := generateWithRetries(context.Background(), log, 1, time.Millisecond,
			func() (*genai.GenerateContentResponse, error) {
				calls++
				return nil, &genai.APIError{Code: 500, Message: "internal"}
			})
		if err == nil {
			t.Fatal("expected error after exhausting retries")
		}
		if calls != 2 {
			t.Errorf("calls = %d, want 2", calls)
		}
		if !strings.Contains(err.Error(), "after 1 retries") {
			t.Errorf("error = %q, want retry count in message", err)
		}
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		_, err := generateWithRetries(ctx, log, 3, time.Minute,
			func() (*genai.GenerateContentResponse, error) {
				calls++
				return nil, &genai.APIError{Code: 503, Message: "overloaded"}
			})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})
}

func TestIsRetriableGeminiCode(t *testing.T) {
	t.Parallel()

	for code, want := range map[int]bool{500: true, 503: true, 400: false, 429: false, 404: false} {
		if got := isRetriableGeminiCode(code); got != want {
			t.Errorf("isRetriableGeminiCode(%d) = %v, want %v", code, got, want)
		}
	}
}
