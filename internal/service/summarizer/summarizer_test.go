package summarizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]string{}}
}

func (c *memoryCache) GetSummary(_ context.Context, day string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[day]
	return s, ok, nil
}

func (c *memoryCache) SetSummary(_ context.Context, day, summary string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[day] = summary
	return nil
}

func chatServer(t *testing.T, calls *int, content string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++

		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if len(req.Messages) != 1 || !strings.Contains(req.Messages[0].Content, "- wheelchair ramp loose") {
			t.Errorf("prompt must carry the bulleted notes: %+v", req.Messages)
		}

		res := chatResponse{}
		res.Choices = append(res.Choices, struct {
			Message chatMessage `json:"message"`
		}{Message: chatMessage{Role: "assistant", Content: content}})
		json.NewEncoder(w).Encode(res)
	}))
}

func TestSummarize(t *testing.T) {
	calls := 0
	server := chatServer(t, &calls, "Key Highlights: ramp needs fixing.")
	defer server.Close()

	cache := newMemoryCache()
	service := NewService(server.URL, "test-key", "test-model", cache)

	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	notes := []string{"wheelchair ramp loose", "  ", ""}

	summary, err := service.Summarize(context.Background(), day, notes, false)
	if err != nil {
		t.Fatal(err)
	}
	if summary != "Key Highlights: ramp needs fixing." {
		t.Fatalf("unexpected summary %q", summary)
	}
	if calls != 1 {
		t.Fatalf("expected one model call, got %d", calls)
	}

	// Second read comes from the cache.
	if _, err = service.Summarize(context.Background(), day, notes, false); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("expected the cache to absorb the second call, got %d", calls)
	}

	// force bypasses the cache and regenerates.
	if _, err = service.Summarize(context.Background(), day, notes, true); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("expected force to call the model again, got %d", calls)
	}
}

func TestSummarizeNoNotes(t *testing.T) {
	calls := 0
	server := chatServer(t, &calls, "anything")
	defer server.Close()

	service := NewService(server.URL, "test-key", "test-model", nil)

	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	for _, notes := range [][]string{nil, {}, {"", "   ", "\t"}} {
		_, err := service.Summarize(context.Background(), day, notes, false)
		if !errors.Is(err, ErrNoNotesForDay) {
			t.Fatalf("expected ErrNoNotesForDay, got %v", err)
		}
	}

	if calls != 0 {
		t.Fatalf("the model must not be called without notes, got %d call(s)", calls)
	}
}

func TestSummarizeEmptyModelResponse(t *testing.T) {
	calls := 0
	server := chatServer(t, &calls, "   ")
	defer server.Close()

	service := NewService(server.URL, "test-key", "test-model", nil)

	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	_, err := service.Summarize(context.Background(), day, []string{"wheelchair ramp loose"}, false)
	if !errors.Is(err, ErrEmptySummary) {
		t.Fatalf("expected ErrEmptySummary, got %v", err)
	}
}

func TestSummarizeModelError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"message": "rate limited"}})
	}))
	defer server.Close()

	service := NewService(server.URL, "test-key", "test-model", nil)

	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	_, err := service.Summarize(context.Background(), day, []string{"wheelchair ramp loose"}, false)
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected the model error message to surface, got %v", err)
	}
}
