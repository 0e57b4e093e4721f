// Package summarizer turns a day's approved notes into an operational
// digest by calling an OpenAI-compatible chat-completion endpoint. The model
// is a black box: same notes may produce different phrasing, but it must
// return a non-empty string.
package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrNoNotesForDay = errors.New("no approved notes for that day")
	ErrEmptySummary  = errors.New("the model did not return a summary")
)

const promptTemplate = `You are an expert operations manager for a community centre for the elderly.
Your task is to analyze the daily notes submitted by your staff (carers, cooks, cleaners, etc.) and create a clear, concise summary.

Your summary should be easy to read and must highlight the most important information for the day.
Organize your summary into logical categories like "Key Highlights", "Issues & Concerns", "Supply Needs", or "Maintenance Alerts" if applicable.
If there are no notes for a category, do not include it.

Here are the notes for the day:
%s

Based on these notes, provide your summary.`

// The summarization call is long-latency and best effort; the timeout is the
// caller-side bound the collaborator contract requires.
const requestTimeout = 60 * time.Second

const cacheTTL = 24 * time.Hour

// Cache keeps generated summaries keyed by day so re-opening the dashboard
// does not re-bill the model.
type Cache interface {
	GetSummary(ctx context.Context, day string) (string, bool, error)
	SetSummary(ctx context.Context, day, summary string, ttl time.Duration) error
}

type Service struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	cache   Cache
}

func NewService(baseURL, apiKey, model string, cache Cache) *Service {
	return &Service{
		client:  &http.Client{Timeout: requestTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		cache:   cache,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Summarize produces the digest for the given day's notes. Blank notes are
// discarded; if nothing remains the model is not called at all. force skips
// the cache (the manual retry affordance).
func (s *Service) Summarize(ctx context.Context, day time.Time, notes []string, force bool) (string, error) {
	kept := make([]string, 0, len(notes))
	for _, note := range notes {
		if strings.TrimSpace(note) == "" {
			continue
		}
		kept = append(kept, note)
	}
	if len(kept) == 0 {
		return "", ErrNoNotesForDay
	}

	dayKey := day.Format("2006-01-02")

	if s.cache != nil && !force {
		if cached, ok, err := s.cache.GetSummary(ctx, dayKey); err == nil && ok {
			return cached, nil
		}
	}

	summary, err := s.generate(ctx, kept)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		// Cache failures only cost a repeat generation later.
		_ = s.cache.SetSummary(ctx, dayKey, summary, cacheTTL)
	}

	return summary, nil
}

func (s *Service) generate(ctx context.Context, notes []string) (string, error) {
	var bulleted strings.Builder
	for _, note := range notes {
		bulleted.WriteString("- ")
		bulleted.WriteString(note)
		bulleted.WriteString("\n")
	}

	body, err := json.Marshal(chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "user", Content: fmt.Sprintf(promptTemplate, bulleted.String())},
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "encoding summary request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return "", errors.Wrap(err, "building summary request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "calling summary model")
	}
	defer resp.Body.Close()

	resByte, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "reading summary response")
	}

	var res chatResponse
	if err = json.Unmarshal(resByte, &res); err != nil {
		return "", errors.Wrap(err, "decoding summary response")
	}

	if resp.StatusCode != http.StatusOK {
		if res.Error != nil && res.Error.Message != "" {
			return "", errors.Errorf("summary model: %s", res.Error.Message)
		}
		return "", errors.Errorf("summary model: unexpected status %d", resp.StatusCode)
	}

	if len(res.Choices) == 0 {
		return "", ErrEmptySummary
	}

	summary := strings.TrimSpace(res.Choices[0].Message.Content)
	if summary == "" {
		return "", ErrEmptySummary
	}

	return summary, nil
}
