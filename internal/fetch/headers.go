package fetch

import (
	"fmt"
	"math/rand"
	"net/http"
)

// userAgents is the fixed pool of realistic browser User-Agent strings
// fetch rotates through, grounded in
// original_source/src/crawler/fetcher.rs's USER_AGENTS table.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
}

func randomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// sectionReferer builds the section-listing page Referer for sectionHint,
// concretizing spec §4.1's "Referer derived from section_hint" per
// original_source/src/crawler/headers.rs's section_referer.
func sectionReferer(sectionHint int) string {
	return fmt.Sprintf("https://news.naver.com/main/main.naver?mode=LSD&mid=shm&sid1=%d", sectionHint)
}

// setRequestHeaders applies the anti-bot header set from spec §4.1,
// grounded in original_source/src/crawler/headers.rs's build_naver_headers:
// a randomized User-Agent, Accept/Accept-Language, and a Referer
// synthesized from sectionHint.
//
// Accept-Encoding is deliberately left unset: the original Rust fetcher
// sets it and decompresses explicitly (fetcher.rs's .gzip(true)), but
// net/http's Transport already negotiates gzip and transparently
// decompresses the response as long as the caller never sets this header
// itself. Setting it here would silently hand decodeBody compressed
// bytes, since this package never runs a decompression step.
func setRequestHeaders(req *http.Request, sectionHint int) {
	req.Header.Set("User-Agent", randomUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Referer", sectionReferer(sectionHint))
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}
