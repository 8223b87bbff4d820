// Package pipeline implements the worker pipeline (C5): a staged
// producer/consumer over bounded channels — URLProducer -> FetcherWorkers
// -> ParserWorkers -> StorageWorkers — grounded in structure on
// other_examples' channel-based crawl scheduler and the teacher's own
// worker/cron wiring, per spec §4.5.
package pipeline

import (
	"context"
	"runtime"
	"sync"
	"time"

	"newsingest/internal/canon"
	"newsingest/internal/entity"
	"newsingest/internal/extract"
	"newsingest/internal/fetch"
	"newsingest/internal/observability/metrics"
	"newsingest/internal/store"
)

// Outcome classifies how one item left the pipeline.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Stage names used for per-item outcome annotation and metrics.
const (
	StageCanon   = "canon"
	StageFetch   = "fetch"
	StageParse   = "parse"
	StageStore   = "store"
)

// Item is one URL moving through the pipeline, carrying the scheduling
// context (category, page, hint) a fetch/store need along the way.
type Item struct {
	URL         string
	Category    entity.NewsCategory
	SectionHint int
	Page        int
}

// Result is the terminal outcome of one item, recorded in Stats and used to
// drive checkpointing.
type Result struct {
	Item    Item
	Outcome Outcome
	Stage   string
	Reason  string
	Err     error
}

// Stats accumulates outcome counts across a pipeline run.
type Stats struct {
	mu       sync.Mutex
	Success  int
	Skipped  int
	Failed   int
}

func (s *Stats) record(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch r.Outcome {
	case OutcomeSuccess:
		s.Success++
	case OutcomeSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

// Snapshot returns a copy of the current counts.
func (s *Stats) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Success: s.Success, Skipped: s.Skipped, Failed: s.Failed}
}

// Config controls stage widths and checkpoint cadence.
type Config struct {
	FetcherWidth      int
	ParserWidth       int
	CheckpointEvery   int
	CategoryForCheckpoint string
}

// DefaultConfig returns spec defaults: parser width = CPU count bounded by
// 8, storage width fixed at 1 (to serialize DB writes), checkpoint every
// 10 completed items.
func DefaultConfig() Config {
	width := runtime.NumCPU()
	if width > 8 {
		width = 8
	}
	return Config{
		FetcherWidth:    2,
		ParserWidth:     width,
		CheckpointEvery: 10,
	}
}

// Pipeline wires the fetcher, canonicalizer, extractor, and store behind
// the staged producer/consumer described in spec §4.5.
type Pipeline struct {
	cfg     Config
	fetcher *fetch.Fetcher
	writer  *store.MarkdownWriter
	meta    *store.MetadataStore
	stats   Stats
}

// New creates a Pipeline.
func New(cfg Config, fetcher *fetch.Fetcher, writer *store.MarkdownWriter, meta *store.MetadataStore) *Pipeline {
	if cfg.FetcherWidth < 1 {
		cfg.FetcherWidth = 1
	}
	if cfg.ParserWidth < 1 {
		cfg.ParserWidth = 1
	}
	if cfg.CheckpointEvery < 1 {
		cfg.CheckpointEvery = 10
	}
	return &Pipeline{
		cfg:     cfg,
		fetcher: fetcher,
		writer:  writer,
		meta:    meta,
	}
}

// Run drives items through URLProducer -> FetcherWorkers -> ParserWorkers
// -> StorageWorkers. It blocks until items is exhausted and every stage has
// drained, or ctx is cancelled, in which case in-flight items finish and no
// new ones are admitted. Run never drops an item silently: every item
// reaching the storage stage is counted in Stats and, when a metadata store
// is set, recorded as a success, skipped or failed row. The markdown file is
// written before its success row, so a failed row commit leaves the file in
// place without that row.
func (p *Pipeline) Run(ctx context.Context, items []Item) Stats {
	canonCh := make(chan Item, p.cfg.FetcherWidth*2)
	fetchedCh := make(chan fetchedItem, p.cfg.ParserWidth*2)
	parsedCh := make(chan parsedItem, 8)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(canonCh)
		p.produce(ctx, items, canonCh)
	}()

	var fetchWG sync.WaitGroup
	for i := 0; i < p.cfg.FetcherWidth; i++ {
		fetchWG.Add(1)
		go func() {
			defer fetchWG.Done()
			p.fetchStage(ctx, canonCh, fetchedCh)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		fetchWG.Wait()
		close(fetchedCh)
	}()

	var parseWG sync.WaitGroup
	for i := 0; i < p.cfg.ParserWidth; i++ {
		parseWG.Add(1)
		go func() {
			defer parseWG.Done()
			p.parseStage(ctx, fetchedCh, parsedCh)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		parseWG.Wait()
		close(parsedCh)
	}()

	wg.Add(1)
	completed := 0
	go func() {
		defer wg.Done()
		p.storeStage(ctx, parsedCh, &completed)
	}()

	wg.Wait()
	return p.stats.Snapshot()
}

func (p *Pipeline) produce(ctx context.Context, items []Item, out chan<- Item) {
	for _, item := range items {
		select {
		case <-ctx.Done():
			return
		case out <- item:
		}
	}
}

type fetchedItem struct {
	item         Item
	canonicalURL string
	html         string
	skip         bool
	failure      *Result
}

func (p *Pipeline) fetchStage(ctx context.Context, in <-chan Item, out chan<- fetchedItem) {
	for item := range in {
		select {
		case <-ctx.Done():
			return
		default:
		}

		canonicalURL, ok := canon.Canonicalize(item.URL)
		if !ok {
			p.emitFailure(out, item, StageCanon, "could not canonicalize url")
			continue
		}
		if err := canon.Validate(canonicalURL); err != nil {
			p.emitFailure(out, item, StageCanon, err.Error())
			continue
		}

		if p.meta != nil {
			crawled, err := p.meta.IsURLCrawled(ctx, canonicalURL)
			if err == nil && crawled {
				select {
				case <-ctx.Done():
					return
				case out <- fetchedItem{item: item, canonicalURL: canonicalURL, skip: true}:
				}
				continue
			}
		}

		start := time.Now()
		html, err := p.fetcher.Fetch(ctx, canonicalURL, item.SectionHint)
		metrics.RecordPipelineItem(StageFetch, outcomeFor(err), time.Since(start))
		if err != nil {
			p.emitFailure(out, item, StageFetch, err.Error())
			continue
		}

		select {
		case <-ctx.Done():
			return
		case out <- fetchedItem{item: item, canonicalURL: canonicalURL, html: html}:
		}
	}
}

func (p *Pipeline) emitFailure(out chan<- fetchedItem, item Item, stage, reason string) {
	r := Result{Item: item, Outcome: OutcomeFailed, Stage: stage, Reason: reason}
	out <- fetchedItem{item: item, failure: &r}
}

func outcomeFor(err error) string {
	if err == nil {
		return "success"
	}
	return "failed"
}

type parsedItem struct {
	item         Item
	canonicalURL string
	article      *entity.Article
	skip         bool
	failure      *Result
}

func (p *Pipeline) parseStage(ctx context.Context, in <-chan fetchedItem, out chan<- parsedItem) {
	for fi := range in {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if fi.failure != nil {
			out <- parsedItem{item: fi.item, failure: fi.failure}
			continue
		}
		if fi.skip {
			out <- parsedItem{item: fi.item, canonicalURL: fi.canonicalURL, skip: true}
			continue
		}

		start := time.Now()
		parsed, err := extract.Parse(fi.html, fi.canonicalURL)
		metrics.RecordPipelineItem(StageParse, outcomeFor(err), time.Since(start))
		if err != nil {
			r := Result{Item: fi.item, Outcome: OutcomeFailed, Stage: StageParse, Reason: err.Error(), Err: err}
			out <- parsedItem{item: fi.item, failure: &r}
			continue
		}

		article := &entity.Article{
			OID:         parsed.OID,
			AID:         parsed.AID,
			Title:       parsed.Title,
			Content:     parsed.Content,
			URL:         fi.canonicalURL,
			Category:    fi.item.Category,
			Publisher:   parsed.Publisher,
			Author:      parsed.Author,
			PublishedAt: parsed.PublishedAt,
			CrawledAt:   parsed.CrawledAt,
			ContentHash: entity.ComputeContentHash(parsed.Content),
		}

		select {
		case <-ctx.Done():
			return
		case out <- parsedItem{item: fi.item, canonicalURL: fi.canonicalURL, article: article}:
		}
	}
}

func (p *Pipeline) storeStage(ctx context.Context, in <-chan parsedItem, completed *int) {
	var last parsedItem
	for pi := range in {
		var result Result

		switch {
		case pi.failure != nil:
			result = *pi.failure
			if p.meta != nil {
				_ = p.meta.MarkURLCrawled(ctx, entity.CrawlRecord{
					URL:          pi.canonicalURL,
					CrawledAt:    time.Now().UTC(),
					Status:       entity.CrawlFailed,
					ErrorMessage: result.Reason,
				})
			}
		case pi.skip:
			result = Result{Item: pi.item, Outcome: OutcomeSkipped, Stage: StageStore, Reason: "already crawled"}
		default:
			result = p.storeArticle(ctx, pi)
		}

		metrics.RecordPipelineItem(StageStore, string(result.Outcome), 0)
		p.stats.record(result)
		*completed++

		if p.meta != nil && p.cfg.CheckpointEvery > 0 && *completed%p.cfg.CheckpointEvery == 0 {
			_ = p.meta.SavePipelineCheckpoint(ctx, store.Checkpoint{
				LastCategory: p.cfg.CategoryForCheckpoint,
				LastPage:     pi.item.Page,
				LastURL:      pi.canonicalURL,
			})
		}
		last = pi
	}

	// A run ended by cancellation (graceful shutdown) also saves the last
	// completed item's position.
	if p.meta != nil && ctx.Err() != nil && *completed > 0 {
		_ = p.meta.SavePipelineCheckpoint(context.WithoutCancel(ctx), store.Checkpoint{
			LastCategory: p.cfg.CategoryForCheckpoint,
			LastPage:     last.item.Page,
			LastURL:      last.canonicalURL,
		})
	}
}

func (p *Pipeline) storeArticle(ctx context.Context, pi parsedItem) Result {
	if err := pi.article.Validate(); err != nil {
		return p.failAndRecord(ctx, pi, StageStore, err.Error())
	}

	if p.meta != nil {
		dup, err := p.meta.IsContentDuplicate(ctx, pi.article.ContentHash)
		if err == nil && dup {
			_ = p.meta.MarkURLCrawled(ctx, entity.CrawlRecord{
				ArticleID:   pi.article.ID(),
				URL:         pi.canonicalURL,
				ContentHash: pi.article.ContentHash,
				CrawledAt:   time.Now().UTC(),
				Status:      entity.CrawlSkipped,
			})
			return Result{Item: pi.item, Outcome: OutcomeSkipped, Stage: StageStore, Reason: "duplicate content"}
		}
	}

	if p.writer != nil {
		if _, _, err := p.writer.Write(pi.article); err != nil {
			return p.failAndRecord(ctx, pi, StageStore, err.Error())
		}
	}

	if p.meta != nil {
		if err := p.meta.MarkURLCrawled(ctx, entity.CrawlRecord{
			ArticleID:   pi.article.ID(),
			URL:         pi.canonicalURL,
			ContentHash: pi.article.ContentHash,
			CrawledAt:   time.Now().UTC(),
			Status:      entity.CrawlSuccess,
		}); err != nil {
			return p.failAndRecord(ctx, pi, StageStore, err.Error())
		}
	}

	return Result{Item: pi.item, Outcome: OutcomeSuccess, Stage: StageStore}
}

func (p *Pipeline) failAndRecord(ctx context.Context, pi parsedItem, stage, reason string) Result {
	if p.meta != nil {
		_ = p.meta.MarkURLCrawled(ctx, entity.CrawlRecord{
			ArticleID:    pi.article.ID(),
			URL:          pi.canonicalURL,
			CrawledAt:    time.Now().UTC(),
			Status:       entity.CrawlFailed,
			ErrorMessage: reason,
		})
	}
	return Result{Item: pi.item, Outcome: OutcomeFailed, Stage: stage, Reason: reason}
}
