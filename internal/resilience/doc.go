// Package resilience provides reliability patterns used by the fetcher,
// the coordinator client, and the indexer: retry with exponential backoff
// for transient network errors (spec §7's Network-transient row), used by
// the fetcher and the indexer, and a circuit breaker around the indexer's
// embedding/search HTTP calls and the coordinator client's RPCs.
//
// Usage:
//
//	cb := circuitbreaker.New(circuitbreaker.EmbeddingConfig())
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return embedBatch(ctx, docs)
//	})
//
//	err := retry.WithBackoff(ctx, retry.FetchConfig(), func() error {
//	    return fetchOnce(ctx, url)
//	})
package resilience
