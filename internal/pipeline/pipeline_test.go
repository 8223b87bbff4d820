package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"newsingest/internal/entity"
	"newsingest/internal/fetch"
	"newsingest/internal/store"
)

const articleHTML = `<html><head><title>뉴스 제목</title></head>
<body>
<h2 class="media_end_head_headline">뉴스 제목</h2>
<div id="dic_area">본문 내용입니다 충분히 길게 작성합니다.</div>
</body></html>`

// redirectTransport rewrites every outbound request's scheme/host to target
// a local httptest server, so tests can exercise the pipeline's real
// canonical (n.news.naver.com) URLs — which internal/canon's SSRF checks
// must accept — without making a network call.
type redirectTransport struct {
	target *url.URL
}

func (t redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	redirected := req.Clone(req.Context())
	redirected.URL.Scheme = t.target.Scheme
	redirected.URL.Host = t.target.Host
	redirected.Host = ""
	return http.DefaultTransport.RoundTrip(redirected)
}

func newTestFetcher(t *testing.T, srv *httptest.Server) *fetch.Fetcher {
	t.Helper()
	target, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	return fetch.New(fetch.Config{
		RequestsPerSecond: 1000,
		MaxRetries:        2,
		Timeout:           5 * time.Second,
		Transport:         redirectTransport{target: target},
	})
}

func newTestPipeline(t *testing.T, srv *httptest.Server, checkpointEvery int) (*Pipeline, *store.MetadataStore, string) {
	t.Helper()
	dir := t.TempDir()

	f := newTestFetcher(t, srv)
	outputDir := filepath.Join(dir, "output")
	writer := store.NewMarkdownWriter(outputDir, true)
	meta, err := store.Open(filepath.Join(dir, "meta.db"))
	if err != nil {
		t.Fatalf("open metadata store: %v", err)
	}
	t.Cleanup(func() { meta.Close() })

	cfg := Config{FetcherWidth: 1, ParserWidth: 1, CheckpointEvery: checkpointEvery}
	p := New(cfg, f, writer, meta)
	return p, meta, outputDir
}

func articleServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(articleHTML))
	}))
}

func TestPipeline_SingleURLHappyPath(t *testing.T) {
	srv := articleServer()
	defer srv.Close()

	p, meta, outputDir := newTestPipeline(t, srv, 10)
	items := []Item{{URL: "https://n.news.naver.com/mnews/article/001/0014123456", Category: entity.Society, SectionHint: 102}}

	stats := p.Run(context.Background(), items)
	if stats.Success != 1 {
		t.Fatalf("expected 1 success, got %+v", stats)
	}

	entries, err := os.ReadDir(outputDir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 markdown file, got %d", len(entries))
	}

	crawled, err := meta.IsURLCrawled(context.Background(), "https://n.news.naver.com/mnews/article/001/0014123456")
	if err != nil {
		t.Fatalf("is url crawled: %v", err)
	}
	if !crawled {
		t.Error("expected canonical url to be marked crawled")
	}
}

func TestPipeline_DuplicateContentSkipped(t *testing.T) {
	srv := articleServer()
	defer srv.Close()

	p, _, _ := newTestPipeline(t, srv, 10)
	items := []Item{
		{URL: "https://n.news.naver.com/mnews/article/001/0014123456", Category: entity.Society},
		{URL: "https://n.news.naver.com/mnews/article/002/0014123457", Category: entity.Society},
	}

	stats := p.Run(context.Background(), items)
	if stats.Success != 1 {
		t.Errorf("expected exactly 1 success (first write wins), got %+v", stats)
	}
	if stats.Skipped != 1 {
		t.Errorf("expected exactly 1 skip for duplicate content, got %+v", stats)
	}
}

func TestPipeline_AlreadyCrawledShortCircuits(t *testing.T) {
	var fetchCount int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetchCount++
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	p, meta, _ := newTestPipeline(t, srv, 10)
	canonicalURL := "https://n.news.naver.com/mnews/article/001/0014123456"

	if err := meta.MarkURLCrawled(context.Background(), entity.CrawlRecord{
		ArticleID: "001_0014123456",
		URL:       canonicalURL,
		CrawledAt: time.Now(),
		Status:    entity.CrawlSuccess,
	}); err != nil {
		t.Fatalf("seed crawled record: %v", err)
	}

	stats := p.Run(context.Background(), []Item{{URL: canonicalURL, Category: entity.Society}})
	if stats.Skipped != 1 {
		t.Errorf("expected skip for already-crawled url, got %+v", stats)
	}
	if fetchCount != 0 {
		t.Errorf("expected fetch to be short-circuited, but fetcher was called %d times", fetchCount)
	}
}

func TestPipeline_TerminalFetchErrorRecordsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p, meta, _ := newTestPipeline(t, srv, 10)
	url := "https://n.news.naver.com/mnews/article/001/0014123456"

	stats := p.Run(context.Background(), []Item{{URL: url, Category: entity.Society}})
	if stats.Failed != 1 {
		t.Errorf("expected 1 failure, got %+v", stats)
	}

	s, err := meta.GetStats(context.Background())
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if s.Failed != 1 {
		t.Errorf("expected metadata store to record 1 failure, got %+v", s)
	}
}

func TestPipeline_CheckpointingAtConfiguredInterval(t *testing.T) {
	// Each article gets a distinct body so the second item is not skipped
	// as duplicate content.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(strings.Replace(articleHTML, "본문 내용입니다", "본문 내용입니다 "+r.URL.Path, 1)))
	}))
	defer srv.Close()

	p, meta, _ := newTestPipeline(t, srv, 2)

	items := make([]Item, 0, 2)
	for i := 0; i < 2; i++ {
		items = append(items, Item{
			URL:      fmt.Sprintf("https://n.news.naver.com/mnews/article/%03d/%010d", i+1, 1000000000+i),
			Category: entity.Society,
		})
	}

	stats := p.Run(context.Background(), items)
	if stats.Success != 2 {
		t.Fatalf("expected 2 successes, got %+v", stats)
	}

	_, ok, err := meta.LoadPipelineCheckpoint(context.Background())
	if err != nil {
		t.Fatalf("load checkpoint: %v", err)
	}
	if !ok {
		t.Error("expected a checkpoint to have been saved after 2 completed items")
	}
}
