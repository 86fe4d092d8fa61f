package score

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func makeTestServer(t *testing.T, statusCode int, body any) (*httptest.Server, *http.Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if err := json.NewEncoder(w).Encode(body); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, srv.Client()
}

func chatResponseWith(content string) chatResponse {
	var resp chatResponse
	resp.Choices = make([]struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}, 1)
	resp.Choices[0].Message.Content = content
	return resp
}

func TestComplete_Success(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, chatResponseWith("Score: 6/10\nReason: fine"))

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", client)
	got, err := provider.Complete(context.Background(), "screen this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Score: 6/10\nReason: fine" {
		t.Errorf("got %q", got)
	}
}

func TestComplete_HTTPError(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusInternalServerError, map[string]string{"error": "server error"})

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", client)
	if _, err := provider.Complete(context.Background(), "screen this"); err == nil {
		t.Fatal("expected error on 5xx response")
	}
}

func TestComplete_RateLimited(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusTooManyRequests, map[string]string{"error": "rate limited"})

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", client)
	if _, err := provider.Complete(context.Background(), "screen this"); err == nil {
		t.Fatal("expected error on 429 response")
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, chatResponse{})

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", client)
	if _, err := provider.Complete(context.Background(), "screen this"); err == nil {
		t.Fatal("expected error when the endpoint returns no choices")
	}
}

func TestComplete_SetsAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(chatResponseWith("Score: 1/10"))
	}))
	t.Cleanup(srv.Close)

	provider := NewOpenAIProvider(srv.URL, "secret-key", "test-model", srv.Client())
	if _, err := provider.Complete(context.Background(), "screen this"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
}
