package extract

import "errors"

// Sentinel errors returned by Parse. Only ErrArticleNotFound is recoverable
// (it means "skip this url, not a parser bug"); the rest indicate either a
// malformed url or a page shape none of the four layouts can handle.
var (
	ErrTitleNotFound      = errors.New("extract: title not found")
	ErrContentNotFound    = errors.New("extract: content not found")
	ErrArticleNotFound    = errors.New("extract: article deleted or unavailable")
	ErrUnknownFormat      = errors.New("extract: no layout extractor matched")
	ErrIDExtractionFailed = errors.New("extract: could not extract oid/aid from url")
)
