package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		RequestsPerSecond: 1000, // effectively unrate-limited for unit tests
		MaxRetries:        3,
		Timeout:           5 * time.Second,
	}
}

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	f := New(testConfig())
	body, err := f.Fetch(context.Background(), srv.URL, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != "<html><body>hello</body></html>" {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestFetch_RetriesOn503ThenSucceeds(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		if n < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := testConfig()
	f := New(cfg)
	// The default fetch backoff applies, so the retry waits about 1s.
	body, err := f.Fetch(context.Background(), srv.URL, 101)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != "ok" {
		t.Errorf("expected body 'ok', got %q", body)
	}
	if atomic.LoadInt32(&attempts) < 2 {
		t.Errorf("expected at least 2 attempts, got %d", attempts)
	}
}

func TestFetch_TerminalStatusNotRetried(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(testConfig())
	_, err := f.Fetch(context.Background(), srv.URL, 100)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	var serverErr *ServerError
	if !asServerError(err, &serverErr) {
		t.Fatalf("expected *ServerError, got %T: %v", err, err)
	}
	if serverErr.Status != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", serverErr.Status)
	}
	if atomic.LoadInt32(&attempts) != 1 {
		t.Errorf("expected exactly 1 attempt for terminal status, got %d", attempts)
	}
}

func TestFetch_EUCKRDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=euc-kr")
		w.WriteHeader(http.StatusOK)
		encoded, err := encodeEUCKRForTest("안녕")
		if err != nil {
			t.Errorf("test setup failed: %v", err)
		}
		_, _ = w.Write(encoded)
	}))
	defer srv.Close()

	f := New(testConfig())
	body, err := f.Fetch(context.Background(), srv.URL, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != "안녕" {
		t.Errorf("expected decoded '안녕', got %q", body)
	}
}

func TestFetch_RateLimiterDelaysSecondRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := New(Config{RequestsPerSecond: 2, MaxRetries: 1, Timeout: 5 * time.Second})

	start := time.Now()
	if _, err := f.Fetch(context.Background(), srv.URL, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.Fetch(context.Background(), srv.URL, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	elapsed := time.Since(start)
	if elapsed < 200*time.Millisecond {
		t.Errorf("expected second request to wait for a token at 2rps, elapsed only %v", elapsed)
	}
}

func asServerError(err error, target **ServerError) bool {
	se, ok := err.(*ServerError)
	if !ok {
		return false
	}
	*target = se
	return true
}
