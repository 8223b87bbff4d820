package extract

import (
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"newsingest/internal/sanitize"
)

// parseReadability is the last-resort extractor: when none of the four
// known Naver layouts match, fall back to Mozilla's Readability algorithm
// (via go-shiori/go-readability) to pull a title and body out of whatever
// structure the page actually has.
func parseReadability(html, pageURL string) (ParsedArticle, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		parsedURL = nil
	}

	article, err := readability.FromReader(strings.NewReader(html), parsedURL)
	if err != nil {
		return ParsedArticle{}, ErrUnknownFormat
	}

	title := sanitize.Text(article.Title)
	content := sanitize.RemoveByline(sanitize.Text(article.TextContent))
	if !sanitize.HasContent(title) || !sanitize.HasContent(content) {
		return ParsedArticle{}, ErrUnknownFormat
	}

	return ParsedArticle{
		Title:     title,
		Content:   content,
		URL:       pageURL,
		Publisher: article.SiteName,
		Layout:    LayoutReadability,
	}, nil
}
