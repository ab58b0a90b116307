package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// recordingSink captures diagnostic events for assertions.
type recordingSink struct {
	mu      sync.Mutex
	failed  []string
	missing []string
}

func (s *recordingSink) FailedURL(url, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, url+" "+reason)
}

func (s *recordingSink) MissingFields(source, url string, fields []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missing = append(s.missing, url)
}

func (s *recordingSink) Close() error { return nil }

func TestClient_Document_ParsesHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div class="resultbox">City Lab</div></body></html>`))
	}))
	defer server.Close()

	c := New(server.Client(), nil, nil, 5*time.Second)

	doc, err := c.Document(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	if got := doc.Find("div.resultbox").Text(); got != "City Lab" {
		t.Errorf("parsed content = %q, want %q", got, "City Lab")
	}
}

func TestClient_Document_Non200LogsAndErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	sink := &recordingSink{}
	c := New(server.Client(), nil, sink, 5*time.Second)

	if _, err := c.Document(context.Background(), server.URL); err == nil {
		t.Fatal("expected error on 403 response")
	}
	if len(sink.failed) != 1 {
		t.Errorf("expected 1 failed-URL event, got %d", len(sink.failed))
	}
}

func TestClient_Document_TransportErrorLogged(t *testing.T) {
	sink := &recordingSink{}
	c := New(&http.Client{}, nil, sink, 2*time.Second)

	_, err := c.Document(context.Background(), "http://127.0.0.1:1/unreachable")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if len(sink.failed) != 1 {
		t.Errorf("expected 1 failed-URL event, got %d", len(sink.failed))
	}
}

func TestClient_Document_SendsBrowserHeaders(t *testing.T) {
	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	c := New(server.Client(), nil, nil, 5*time.Second)
	if _, err := c.Document(context.Background(), server.URL); err != nil {
		t.Fatalf("Document failed: %v", err)
	}

	if gotUA == "" || gotAccept == "" {
		t.Errorf("browser headers not sent: UA=%q Accept=%q", gotUA, gotAccept)
	}
}
