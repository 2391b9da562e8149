package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWebhook_Send(t *testing.T) {
	var gotMethod, gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, 0)
	if err := wh.Send(context.Background(), "🚆 S7 delayed by 12 min"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	if gotContentType != "application/json" {
		t.Errorf("content type = %q, want application/json", gotContentType)
	}
	var payload struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if payload.Content != "🚆 S7 delayed by 12 min" {
		t.Errorf("content = %q", payload.Content)
	}
}

func TestWebhook_SendErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   string
	}{
		{name: "invalid webhook", status: http.StatusNotFound, want: "HTTP 404"},
		{name: "bad payload", status: http.StatusBadRequest, want: "HTTP 400"},
		{name: "rate limited", status: http.StatusTooManyRequests, want: "429"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := NewWebhook(srv.URL, 0).Send(context.Background(), "msg")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestWebhook_SendUnreachable(t *testing.T) {
	// Closed server: connection refused must surface as an error, not a panic.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	if err := NewWebhook(url, 0).Send(context.Background(), "msg"); err == nil {
		t.Fatal("expected error for unreachable webhook")
	}
}

func TestWebhook_RateLimiterHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	// Burst of 1 at a very low rate: the second send must wait, and a
	// cancelled context aborts that wait.
	wh := NewWebhook(srv.URL, 0.001)
	if err := wh.Send(context.Background(), "first"); err != nil {
		t.Fatalf("first Send failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := wh.Send(ctx, "second"); err == nil {
		t.Fatal("expected context error for rate-limited send")
	}
}
