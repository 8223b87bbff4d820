package listing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"newsingest/internal/entity"
	"newsingest/internal/fetch"
)

// redirectTransport rewrites every outbound request to target srv,
// letting tests exercise CollectURLs without reaching the real portal.
type redirectTransport struct {
	srv *httptest.Server
}

func (t redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	req.URL.Host = strings.TrimPrefix(t.srv.URL, "http://")
	return http.DefaultTransport.RoundTrip(req)
}

func newTestFetcher(srv *httptest.Server) *fetch.Fetcher {
	return fetch.New(fetch.Config{
		RequestsPerSecond: 1000,
		MaxRetries:        1,
		Timeout:           5 * time.Second,
		Transport:         redirectTransport{srv: srv},
	})
}

func TestCollectURLs_StopsWhenMaxReached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		page := r.URL.Query().Get("page")
		_, _ = w.Write([]byte(`<a href="https://n.news.naver.com/mnews/article/001/001000000` + page + `">x</a>
<a href="https://n.news.naver.com/mnews/article/001/001000000` + page + `1">y</a>`))
	}))
	defer srv.Close()

	f := newTestFetcher(srv)
	urls, err := CollectURLs(context.Background(), f, entity.Politics, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("expected 2 urls, got %d: %v", len(urls), urls)
	}
}

func TestCollectURLs_StopsOnEmptyPage(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if calls > 1 {
			_, _ = w.Write([]byte(`<html></html>`))
			return
		}
		_, _ = w.Write([]byte(`<a href="https://n.news.naver.com/mnews/article/001/0010000001">x</a>`))
	}))
	defer srv.Close()

	f := newTestFetcher(srv)
	urls, err := CollectURLs(context.Background(), f, entity.Economy, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(urls) != 1 {
		t.Fatalf("expected 1 url, got %d: %v", len(urls), urls)
	}
	if calls != 2 {
		t.Errorf("expected pagination to stop after the first empty page, got %d calls", calls)
	}
}

func TestCollectURLs_FetchErrorOnFirstPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newTestFetcher(srv)
	_, err := CollectURLs(context.Background(), f, entity.Society, 5)
	if err == nil {
		t.Fatal("expected an error when the first page can't be fetched")
	}
}

func TestBuildListURL_EncodesCategoryAndDate(t *testing.T) {
	url := BuildListURL(entity.IT, "20260101", 3)
	if !strings.Contains(url, "sid1=105") || !strings.Contains(url, "date=20260101") || !strings.Contains(url, "page=3") {
		t.Errorf("unexpected list url: %s", url)
	}
}
