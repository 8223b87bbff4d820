// Package canon canonicalizes, validates, and extracts identifiers from
// article URLs, and blocks URLs that would expose the fetcher to SSRF.
package canon

import (
	"errors"
	"net"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// ErrIDExtractionFailed is returned when a URL matches no known article URL
// shape.
var ErrIDExtractionFailed = errors.New("canon: could not extract oid/aid from url")

var (
	modernArticlePattern = regexp.MustCompile(`/(?:mnews/)?article/(\d{3})/(\d{10,})`)
	legacyQueryPattern   = regexp.MustCompile(`oid=(\d{3})&aid=(\d{10,})`)
	hrefPattern          = regexp.MustCompile(`href=["']([^"']+)["']`)
)

// AllowedHosts is the fixed allow-list of portal subdomains the
// canonicalizer accepts. PrimaryHost is used to build canonical URLs.
var (
	PrimaryHost  = "n.news.naver.com"
	AllowedHosts = map[string]bool{
		"n.news.naver.com":      true,
		"news.naver.com":        true,
		"m.news.naver.com":      true,
		"entertain.naver.com":   true,
		"sports.naver.com":      true,
		"sports.news.naver.com": true,
	}
)

// ExtractIDs pulls the (oid, aid) pair out of a URL in any accepted shape:
// the modern `/mnews/article/{oid}/{aid}` and legacy `/article/{oid}/{aid}`
// paths, or the old `oid=&aid=` query-string form.
func ExtractIDs(rawURL string) (oid, aid string, err error) {
	if m := modernArticlePattern.FindStringSubmatch(rawURL); m != nil {
		return m[1], m[2], nil
	}
	if m := legacyQueryPattern.FindStringSubmatch(rawURL); m != nil {
		return m[1], m[2], nil
	}
	return "", "", ErrIDExtractionFailed
}

// Canonicalize returns the canonical URL for rawURL, or ("", false) if no
// (oid, aid) pair can be extracted.
func Canonicalize(rawURL string) (string, bool) {
	oid, aid, err := ExtractIDs(rawURL)
	if err != nil {
		return "", false
	}
	return "https://" + PrimaryHost + "/mnews/article/" + oid + "/" + aid, true
}

// IsAllowedHost reports whether rawURL's host is on the fixed allow-list.
func IsAllowedHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return AllowedHosts[u.Hostname()]
}

// IsSafe reports whether rawURL is safe to fetch: parses cleanly, uses
// http or https, and does not resolve to a loopback, private, or
// link-local address. It does not check the allow-list; see IsAllowedHost.
func IsSafe(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := u.Hostname()
	if host == "" {
		return false
	}
	if host == "localhost" {
		return false
	}
	if ip := net.ParseIP(host); ip != nil && isBlockedIP(ip) {
		return false
	}
	return true
}

func isBlockedIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}

// IsValidArticleURL reports whether rawURL both extracts a valid (oid, aid)
// pair, is on the allow-listed host set, and passes the SSRF safety check.
func IsValidArticleURL(rawURL string) bool {
	if _, _, err := ExtractIDs(rawURL); err != nil {
		return false
	}
	if !IsAllowedHost(rawURL) {
		return false
	}
	return IsSafe(rawURL)
}

// Validate returns a descriptive error if rawURL is not a safe, allowed
// article URL; nil otherwise.
func Validate(rawURL string) error {
	if _, err := url.Parse(rawURL); err != nil {
		return errInvalidURL(rawURL)
	}
	if !IsSafe(rawURL) {
		return errUnsafeURL(rawURL)
	}
	if !IsAllowedHost(rawURL) {
		return errDomainNotAllowed(rawURL)
	}
	return nil
}

// ToAbsolute resolves rawURL against base, returning rawURL unchanged if it
// is already absolute or either URL fails to parse.
func ToAbsolute(rawURL, base string) string {
	if strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://") {
		return rawURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return rawURL
	}
	ref, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return baseURL.ResolveReference(ref).String()
}

// ExtractURLs scans html for href attributes, canonicalizes and validates
// each, and returns the deduplicated, sorted set of canonical article URLs.
func ExtractURLs(html string) []string {
	seen := make(map[string]bool)
	for _, m := range hrefPattern.FindAllStringSubmatch(html, -1) {
		href := m[1]
		canonical, ok := Canonicalize(href)
		if !ok || !IsValidArticleURL(canonical) {
			continue
		}
		seen[canonical] = true
	}
	urls := make([]string, 0, len(seen))
	for u := range seen {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}
