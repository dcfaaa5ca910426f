package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperifyio/gocorpus/internal/cache"
)

func TestGet_SetsBrowserHeaders(t *testing.T) {
	var gotUA, gotAccept, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		gotLang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	c := &Client{MaxAttempts: 1, PerRequestTimeout: 5 * time.Second}
	body, ct, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(body) != "<html>ok</html>" {
		t.Fatalf("unexpected body: %q", string(body))
	}
	if ct != "text/html" {
		t.Fatalf("unexpected content type: %q", ct)
	}
	if gotUA != DefaultUserAgent {
		t.Fatalf("expected default user agent, got %q", gotUA)
	}
	if gotAccept == "" || gotLang == "" {
		t.Fatalf("expected Accept and Accept-Language headers to be set")
	}
}

func TestGet_RetriesOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	c := &Client{MaxAttempts: 2}
	body, _, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(body) != "recovered" {
		t.Fatalf("unexpected body: %q", string(body))
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestGet_NotFoundIsSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := &Client{MaxAttempts: 1}
	_, _, err := c.Get(context.Background(), srv.URL+"/missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_RejectsNonHTTPScheme(t *testing.T) {
	c := &Client{MaxAttempts: 1}
	if _, _, err := c.Get(context.Background(), "ftp://example.com/file"); err == nil {
		t.Fatalf("expected scheme rejection")
	}
}

func TestGet_ExtraHeaders(t *testing.T) {
	var gotAccept, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := &Client{MaxAttempts: 1}
	_, _, err := c.GetWithHeaders(context.Background(), srv.URL, map[string]string{
		"Accept":        "application/vnd.github.v3+json",
		"Authorization": "Bearer tok",
	})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotAccept != "application/vnd.github.v3+json" {
		t.Fatalf("caller headers must override defaults, got %q", gotAccept)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("authorization header missing, got %q", gotAuth)
	}
}

func TestGet_UsesCache(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("cached body"))
	}))
	defer srv.Close()

	c := &Client{MaxAttempts: 1, Cache: &cache.BodyCache{Dir: t.TempDir()}}
	if _, _, err := c.Get(context.Background(), srv.URL); err != nil {
		t.Fatalf("first get: %v", err)
	}
	body, ct, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if string(body) != "cached body" || ct != "text/html" {
		t.Fatalf("unexpected cached response: %q %q", string(body), ct)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected a single network call, got %d", calls)
	}
}
