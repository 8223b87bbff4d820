// Package listing paginates a news portal's category list pages and
// extracts article URLs, feeding the crawl subcommand's item producer.
// Grounded in _examples/original_source/src/crawler/list.rs's
// NewsListCrawler/ListUrlBuilder (section-id + date + page query URL) and
// its has_next_page heuristic, with URL extraction delegated to
// internal/canon.ExtractURLs (already shared by the pipeline's canon
// stage) instead of reimplementing a second href regex.
package listing

import (
	"context"
	"fmt"
	"time"

	"newsingest/internal/canon"
	"newsingest/internal/entity"
	"newsingest/internal/fetch"
)

// MaxPages bounds pagination for a single category so a quiet or
// misbehaving list endpoint can't spin the crawler forever.
const MaxPages = 20

// BuildListURL formats the category list page URL for date (YYYYMMDD)
// and page, per ListUrlBuilder::main_list.
func BuildListURL(category entity.NewsCategory, date string, page int) string {
	return fmt.Sprintf("https://news.naver.com/main/list.naver?mode=LSD&mid=shm&sid1=%d&date=%s&page=%d",
		int(category), date, page)
}

// CollectURLs pages through category's list starting today, stopping once
// max is reached, a page yields no new URLs, or MaxPages is hit. Returned
// URLs are canonical and deduplicated across pages.
func CollectURLs(ctx context.Context, fetcher *fetch.Fetcher, category entity.NewsCategory, max int) ([]string, error) {
	date := time.Now().Format("20060102")
	seen := make(map[string]bool)
	var urls []string

	for page := 1; page <= MaxPages; page++ {
		if max > 0 && len(urls) >= max {
			break
		}
		if err := ctx.Err(); err != nil {
			return urls, err
		}

		listURL := BuildListURL(category, date, page)
		html, err := fetcher.Fetch(ctx, listURL, int(category))
		if err != nil {
			if len(urls) > 0 {
				break
			}
			return nil, fmt.Errorf("listing: fetch page %d: %w", page, err)
		}

		found := canon.ExtractURLs(html)
		newCount := 0
		for _, u := range found {
			if seen[u] {
				continue
			}
			seen[u] = true
			urls = append(urls, u)
			newCount++
			if max > 0 && len(urls) >= max {
				break
			}
		}
		if newCount == 0 {
			break
		}
	}

	if max > 0 && len(urls) > max {
		urls = urls[:max]
	}
	return urls, nil
}
