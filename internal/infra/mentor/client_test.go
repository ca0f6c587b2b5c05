package mentor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"mpt-command-center/internal/domain"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func TestReplySendsSystemPromptAndHistory(t *testing.T) {
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.URL.Path != "/v1/chat/completions" {
				t.Fatalf("unexpected path: %s", req.URL.Path)
			}
			if got := req.Header.Get("Authorization"); got != "Bearer sk-test" {
				t.Fatalf("authorization=%q", got)
			}

			var in chatCompletionRequest
			if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
				t.Fatalf("decode req: %v", err)
			}
			if in.Model != "mentor-model" {
				t.Fatalf("model=%q", in.Model)
			}
			if len(in.Messages) != 3 || in.Messages[0].Role != "system" || in.Messages[2].Content != "how do I size my lot?" {
				t.Fatalf("messages=%+v", in.Messages)
			}

			b, _ := json.Marshal(map[string]any{
				"choices": []map[string]any{{"message": map[string]any{"content": "Size from your stop distance."}}},
			})
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     http.Header{"Content-Type": []string{"application/json"}},
				Body:       io.NopCloser(bytes.NewReader(b)),
			}, nil
		}),
	}

	c, err := NewWithHTTPClient(Config{BaseURL: "http://upstream/v1/", APIKey: "sk-test", Model: "mentor-model", Timeout: 2 * time.Second}, client)
	if err != nil {
		t.Fatalf("NewWithHTTPClient: %v", err)
	}

	history := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "Earlier in this conversation..."},
		{Role: domain.RoleUser, Content: "how do I size my lot?"},
	}
	reply, err := c.Reply(context.Background(), "be a mentor", history)
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if reply != "Size from your stop distance." {
		t.Fatalf("reply=%q", reply)
	}
}

func TestReplyWrapsUpstreamErrors(t *testing.T) {
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusTooManyRequests,
				Body:       io.NopCloser(strings.NewReader("rate limited")),
			}, nil
		}),
	}
	c, err := NewWithHTTPClient(Config{BaseURL: "http://upstream"}, client)
	if err != nil {
		t.Fatalf("NewWithHTTPClient: %v", err)
	}

	_, err = c.Reply(context.Background(), "", []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}})
	if !errors.Is(err, domain.ErrMentorUnavailable) {
		t.Fatalf("expected ErrMentorUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "status=429") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error without base url")
	}
}
