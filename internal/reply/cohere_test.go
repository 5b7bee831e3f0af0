package reply

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pcastro/parley/internal/config"
)

func testCohere(t *testing.T, handler http.HandlerFunc) *Cohere {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewCohere(config.ProviderConfig{
		Name:        "cohere",
		APIKey:      "test-key",
		Model:       "command-light",
		MaxTokens:   100,
		Temperature: 0.5,
	})
	c.url = srv.URL
	return c
}

func TestCohereReply(t *testing.T) {
	c := testCohere(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		var req cohereRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Model != "command-light" || req.Prompt != "hello" || req.MaxTokens != 100 {
			t.Errorf("request = %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"generations": []map[string]string{{"text": "  hi there \n"}},
		})
	})

	if got := c.Reply(context.Background(), "hello"); got != "hi there" {
		t.Errorf("Reply() = %q, want trimmed generation", got)
	}
}

func TestCohereEmptyGeneration(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no generations", `{"generations":[]}`},
		{"blank text", `{"generations":[{"text":"   "}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := testCohere(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			})
			if got := c.Reply(context.Background(), "hello"); got != FallbackEmpty {
				t.Errorf("Reply() = %q, want %q", got, FallbackEmpty)
			}
		})
	}
}

func TestCohereFailure(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"unauthorized", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}},
		{"malformed body", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := testCohere(t, tc.handler)
			if got := c.Reply(context.Background(), "hello"); got != FallbackError {
				t.Errorf("Reply() = %q, want %q", got, FallbackError)
			}
		})
	}
}

func TestCohereUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewCohere(config.ProviderConfig{APIKey: "k", Model: "m"})
	c.url = url
	if got := c.Reply(context.Background(), "hello"); got != FallbackError {
		t.Errorf("Reply() = %q, want %q", got, FallbackError)
	}
}

func TestNewSelectsProvider(t *testing.T) {
	if _, err := New(config.ProviderConfig{Name: "cohere"}); err != nil {
		t.Errorf("cohere: %v", err)
	}
	if _, err := New(config.ProviderConfig{Name: "openai"}); err != nil {
		t.Errorf("openai: %v", err)
	}
	if _, err := New(config.ProviderConfig{Name: "llama"}); err == nil {
		t.Error("unknown provider should fail")
	}
}
