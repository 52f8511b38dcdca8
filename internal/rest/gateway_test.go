package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDoInjectsBearerAndContentType(t *testing.T) {
	var gotAuth, gotCT string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCT = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	g := New(srv.URL, nil)
	data, err := g.Post(context.Background(), "/chats", map[string]string{"name": "Team"}, Options{Token: "tok-123"})
	if err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want Bearer tok-123", gotAuth)
	}
	if gotCT != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotCT)
	}
	obj, ok := data.(map[string]any)
	if !ok || obj["ok"] != true {
		t.Errorf("decoded body = %#v, want ok:true", data)
	}
}

func TestDoNoTokenNoBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("unexpected Authorization header")
		}
		if r.Header.Get("Content-Type") != "" {
			t.Error("unexpected Content-Type header")
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("pong"))
	}))
	defer srv.Close()

	g := New(srv.URL, nil)
	data, err := g.Get(context.Background(), "ping", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if data != "pong" {
		t.Errorf("body = %#v, want raw text pong", data)
	}
}

func TestDoMalformedJSONDegradesToNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	g := New(srv.URL, nil)
	data, err := g.Get(context.Background(), "/x", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if data != nil {
		t.Errorf("data = %#v, want nil for unparsable JSON", data)
	}
}

func TestDoErrorMessageExtraction(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		status      int
		wantMsg     string
	}{
		{"message field", "application/json", `{"message":"bad credentials"}`, 401, "bad credentials"},
		{"title field", "application/json", `{"title":"Unauthorized"}`, 401, "Unauthorized"},
		{"error field", "application/json", `{"error":"nope"}`, 403, "nope"},
		{"message wins over title", "application/json", `{"title":"t","message":"m"}`, 400, "m"},
		{"raw text body", "text/plain", "plain failure", 500, "plain failure"},
		{"empty body", "text/plain", "", 502, "Request failed (502)"},
		{"json non-object", "application/json", `[1,2]`, 500, "Request failed (500)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL, nil).Get(context.Background(), "/fail", Options{})
			var httpErr *HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("expected *HTTPError, got %T: %v", err, err)
			}
			if httpErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", httpErr.Status, tt.status)
			}
			if httpErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", httpErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestDoTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	g := New(srv.URL, nil)
	start := time.Now()
	_, err := g.Get(context.Background(), "/slow", Options{Timeout: 50 * time.Millisecond})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("request was not aborted by the deadline")
	}
}

func TestDoRespectsCallerContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := New(srv.URL, nil).Get(ctx, "/slow", Options{})
	if err == nil {
		t.Fatal("expected error after caller cancellation")
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("caller cancellation should not be reported as a timeout")
	}
}
