// Package extract detects a news article page's layout and pulls title,
// content, date, publisher, and author out of it, falling back through
// every known layout before giving up.
package extract

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"newsingest/internal/canon"
	"newsingest/internal/sanitize"
)

// ParsedArticle is the layout extractor's output before the caller attaches
// a NewsCategory (which comes from which section was crawled, not from the
// page itself) and builds the final entity.Article.
type ParsedArticle struct {
	OID         string
	AID         string
	Title       string
	Content     string
	URL         string
	Publisher   string
	Author      string
	PublishedAt *time.Time
	CrawledAt   time.Time
	Layout      Layout
}

// Parse extracts a ParsedArticle from html, detecting a layout and falling
// back through the remaining ones on failure. url must be a canonical
// article url; its (oid, aid) pair is attached to the result.
func Parse(html, url string) (ParsedArticle, error) {
	if isDeletedArticle(html) {
		return ParsedArticle{}, ErrArticleNotFound
	}

	oid, aid, err := canon.ExtractIDs(url)
	if err != nil {
		return ParsedArticle{}, ErrIDExtractionFailed
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ParsedArticle{}, ErrUnknownFormat
	}

	layout := DetectFormat(doc)
	article, parseErr := parseLayout(doc, layout, url)
	if parseErr != nil {
		article, parseErr = tryFallbackChain(doc, url)
		if parseErr != nil {
			article, parseErr = parseReadability(html, url)
			if parseErr != nil {
				return ParsedArticle{}, parseErr
			}
		}
	}

	article.OID = oid
	article.AID = aid
	article.CrawledAt = time.Now().UTC()
	return article, nil
}

func parseLayout(doc *goquery.Document, layout Layout, url string) (ParsedArticle, error) {
	switch layout {
	case LayoutGeneral:
		return parseGeneral(doc, url)
	case LayoutEntertainment:
		return parseEntertainment(doc, url)
	case LayoutSports:
		return parseSports(doc, url)
	default:
		return parseCard(doc, url)
	}
}

func tryFallbackChain(doc *goquery.Document, url string) (ParsedArticle, error) {
	for _, layout := range fallbackOrder {
		if article, err := parseLayout(doc, layout, url); err == nil {
			return article, nil
		}
	}
	return ParsedArticle{}, ErrUnknownFormat
}

func parseGeneral(doc *goquery.Document, url string) (ParsedArticle, error) {
	title, ok := extractFirstMatch(doc, generalSelectors.title)
	if !ok {
		return ParsedArticle{}, ErrTitleNotFound
	}
	content, ok := extractContentText(doc, generalSelectors.content)
	if !ok || !sanitize.HasContent(content) {
		return ParsedArticle{}, ErrContentNotFound
	}

	date, _ := extractFirstMatch(doc, generalSelectors.date)
	publisher, _ := extractPublisher(doc, generalSelectors.publisher)
	author, _ := extractFirstMatch(doc, generalSelectors.author)

	return buildParsedArticle(title, content, url, publisher, author, date, LayoutGeneral), nil
}

func parseEntertainment(doc *goquery.Document, url string) (ParsedArticle, error) {
	title, ok := extractFirstMatch(doc, entertainmentSelectors.title)
	if !ok {
		return ParsedArticle{}, ErrTitleNotFound
	}
	content, ok := extractContentText(doc, entertainmentSelectors.content)
	if !ok || !sanitize.HasContent(content) {
		return ParsedArticle{}, ErrContentNotFound
	}

	date, _ := extractFirstMatch(doc, entertainmentSelectors.date)

	return buildParsedArticle(title, content, url, "", "", date, LayoutEntertainment), nil
}

func parseSports(doc *goquery.Document, url string) (ParsedArticle, error) {
	title, ok := extractFirstMatch(doc, sportsSelectors.title)
	if !ok {
		return ParsedArticle{}, ErrTitleNotFound
	}
	content, ok := extractContentText(doc, sportsSelectors.content)
	if !ok || !sanitize.HasContent(content) {
		return ParsedArticle{}, ErrContentNotFound
	}

	date, _ := extractFirstMatch(doc, sportsSelectors.date)
	publisher, _ := extractFirstMatch(doc, sportsSelectors.publisher)
	author, _ := extractFirstMatch(doc, sportsSelectors.author)

	return buildParsedArticle(title, content, url, publisher, author, date, LayoutSports), nil
}

func parseCard(doc *goquery.Document, url string) (ParsedArticle, error) {
	title, ok := extractFirstMatch(doc, cardLayoutSelectors.title)
	if !ok {
		return ParsedArticle{}, ErrTitleNotFound
	}

	content, ok := extractContentText(doc, cardLayoutSelectors.content)
	if !ok {
		content, ok = extractCaptions(doc)
	}
	if !ok {
		return ParsedArticle{}, ErrContentNotFound
	}

	return buildParsedArticle(title, content, url, "", "", "", LayoutCard), nil
}

func buildParsedArticle(title, content, url, publisher, author, dateText string, layout Layout) ParsedArticle {
	article := ParsedArticle{
		Title:     sanitize.Text(title),
		Content:   sanitize.RemoveByline(sanitize.Text(content)),
		URL:       url,
		Publisher: publisher,
		Author:    author,
		Layout:    layout,
	}
	if dateText != "" {
		if t, ok := ParseDate(dateText); ok {
			article.PublishedAt = &t
		}
	}
	return article
}

// extractFirstMatch returns the text of the first element matched by any
// selector in the list that has non-whitespace content.
func extractFirstMatch(doc *goquery.Document, selectors []string) (string, bool) {
	for _, sel := range selectors {
		text := doc.Find(sel).First().Text()
		if sanitize.HasContent(text) {
			return text, true
		}
	}
	return "", false
}

// extractContentText finds the first matching content container, strips
// noise subtrees from it, and returns its remaining text.
func extractContentText(doc *goquery.Document, selectors []string) (string, bool) {
	for _, sel := range selectors {
		sel := doc.Find(sel).First()
		if sel.Length() == 0 {
			continue
		}
		clone := sel.Clone()
		for _, noiseSel := range noiseSelectors {
			clone.Find(noiseSel).Remove()
		}
		text := clone.Text()
		if sanitize.HasContent(text) {
			return text, true
		}
	}
	return "", false
}

// extractPublisher prefers an img's alt attribute (publisher logo) before
// falling back to text content.
func extractPublisher(doc *goquery.Document, selectors []string) (string, bool) {
	for _, sel := range selectors {
		el := doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		if alt, exists := el.Attr("alt"); exists && sanitize.HasContent(alt) {
			return alt, true
		}
		if text := el.Text(); sanitize.HasContent(text) {
			return text, true
		}
	}
	return "", false
}

func extractCaptions(doc *goquery.Document) (string, bool) {
	var captions []string
	for _, sel := range cardLayoutSelectors.captions {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			text := s.Text()
			if sanitize.HasContent(text) {
				captions = append(captions, text)
			}
		})
	}
	if len(captions) == 0 {
		return "", false
	}
	return strings.Join(captions, "\n\n"), true
}

// isDeletedArticle reports whether html represents a removed or
// unavailable article: the page title or a known error container names a
// deletion phrase, or no recognizable content container exists on a very
// small page.
func isDeletedArticle(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}

	titleText := doc.Find("title").First().Text()
	for _, indicator := range deletedIndicators {
		if strings.Contains(titleText, indicator) {
			return true
		}
	}

	for _, sel := range errorContainerSelectors {
		found := false
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			text := s.Text()
			for _, indicator := range deletedIndicators {
				if strings.Contains(text, indicator) {
					found = true
				}
			}
		})
		if found {
			return true
		}
	}

	hasContent := false
	for _, sel := range mainContentSelectors {
		if doc.Find(sel).Length() > 0 {
			hasContent = true
			break
		}
	}
	if !hasContent && len(html) < 5000 {
		return true
	}

	return false
}

// DetectFormat inspects the document structure to pick the layout most
// likely to parse it successfully. It is a heuristic, not a guarantee:
// Parse still falls back through every layout if the pick is wrong.
func DetectFormat(doc *goquery.Document) Layout {
	if doc.Find("#dic_area").Length() > 0 {
		return LayoutGeneral
	}
	if doc.Find(".article_body, div.end_body_wrp").Length() > 0 {
		return LayoutEntertainment
	}
	if doc.Find(".news_end, div.NewsEndMain_article_body__D5MUB").Length() > 0 {
		return LayoutSports
	}
	if doc.Find("article.Article_comp_news_article__XIpve, article#comp_news_article").Length() > 0 {
		return LayoutSports
	}
	if doc.Find("h2[class*='ArticleHead_article_title']").Length() > 0 {
		return LayoutSports
	}
	if doc.Find("div.end_ct_area, div.card_area").Length() > 0 {
		return LayoutCard
	}
	return LayoutUnknown
}
