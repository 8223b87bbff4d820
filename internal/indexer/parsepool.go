package indexer

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"newsingest/internal/entity"
)

// maxParseWorkers bounds the parsing worker pool at min(NumCPU, 8), per
// spec §4.11.
func maxParseWorkers() int {
	n := runtime.NumCPU()
	if n > 8 {
		n = 8
	}
	if n < 1 {
		n = 1
	}
	return n
}

// ParseResult pairs a parsed document with the path it came from, or the
// error encountered parsing that path.
type ParseResult struct {
	Path string
	Doc  entity.IndexDocument
	Err  error
}

// ParseFilesConcurrently parses paths in parallel across a worker pool
// sized by maxParseWorkers. The output keeps input order: result i belongs
// to paths[i]. A parse failure
// on one file never aborts the others; errgroup is used purely for its
// SetLimit bound, not for error propagation.
func ParseFilesConcurrently(paths []string) []ParseResult {
	results := make([]ParseResult, len(paths))

	var g errgroup.Group
	g.SetLimit(maxParseWorkers())

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			doc, err := ParseMarkdownFile(path)
			results[i] = ParseResult{Path: path, Doc: doc, Err: err}
			return nil
		})
	}

	_ = g.Wait()
	return results
}
