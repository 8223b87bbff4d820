// Package config loads the core's environment-driven configuration
// (spec §6), following the teacher's fail-open `pkg/config` idiom: an
// invalid or missing optional value logs a warning and falls back to a
// default, never panics. Config values the spec classifies as load-bearing
// (spec §7's Config row) are validated explicitly and surfaced as an error
// the CLI turns into exit code 2.
package config

import (
	"fmt"
	"time"

	pkgconfig "newsingest/pkg/config"
)

// Worker holds the environment-driven configuration for a crawler worker
// process (cmd crawl / distributed-crawler).
type Worker struct {
	CoordinatorURL        string
	InstanceID            string
	EgressIP              string
	OutputDir             string
	MetadataDBPath        string
	CacheURL              string // optional; empty disables the cache adapter
	RateLimitRPS          float64
	MaxRetries            int
	HeartbeatInterval     time.Duration
	HeartbeatTimeout      time.Duration
	FallbackGrace         time.Duration
	CoordinatorAuthToken  string // optional bearer token
}

// LoadWorker loads Worker from the environment. CoordinatorURL and
// InstanceID are required only when the caller intends to run in
// coordinator-attached mode (distributed-crawler); a one-shot `crawl` run
// leaves them empty and ValidateDistributed is skipped by the caller in that
// case.
func LoadWorker() Worker {
	return Worker{
		CoordinatorURL:       pkgconfig.GetEnvString("COORDINATOR_URL", ""),
		InstanceID:           pkgconfig.GetEnvString("INSTANCE_ID", ""),
		EgressIP:             pkgconfig.GetEnvString("EGRESS_IP", ""),
		OutputDir:            pkgconfig.GetEnvString("OUTPUT_DIR", "./output"),
		MetadataDBPath:       pkgconfig.GetEnvString("METADATA_DB", "./crawl_metadata.db"),
		CacheURL:             pkgconfig.GetEnvString("CACHE_URL", ""),
		RateLimitRPS:         getEnvFloat("RATE_LIMIT_RPS", 2.0),
		MaxRetries:           pkgconfig.GetEnvInt("MAX_RETRIES", 3),
		HeartbeatInterval:    time.Duration(pkgconfig.GetEnvInt("HEARTBEAT_INTERVAL_SECS", 30)) * time.Second,
		HeartbeatTimeout:     time.Duration(pkgconfig.GetEnvInt("HEARTBEAT_TIMEOUT_SECS", 90)) * time.Second,
		FallbackGrace:        time.Duration(pkgconfig.GetEnvInt("HEARTBEAT_TIMEOUT_SECS", 90)) * time.Second,
		CoordinatorAuthToken: pkgconfig.GetEnvString("COORDINATOR_AUTH_TOKEN", ""),
	}
}

// ValidateDistributed checks the fields required to run as a
// coordinator-attached worker (distributed-crawler subcommand); returns a
// config error (exit code 2 per spec §6) if any are missing.
func (w Worker) ValidateDistributed() error {
	if w.CoordinatorURL == "" {
		return fmt.Errorf("config: COORDINATOR_URL is required")
	}
	if w.InstanceID == "" {
		return fmt.Errorf("config: INSTANCE_ID is required")
	}
	if w.EgressIP == "" {
		return fmt.Errorf("config: EGRESS_IP is required")
	}
	return nil
}

// Coordinator holds the environment-driven configuration for the
// coordinator process (cmd serve).
type Coordinator struct {
	BindAddr    string
	AuthToken   string // optional; when set, required on all /api/* routes
	TriggerTime string // "HH:MM" in Asia/Seoul, spec §4.10 default 23:00
	Timezone    string
}

// LoadCoordinator loads Coordinator from the environment.
func LoadCoordinator() Coordinator {
	return Coordinator{
		BindAddr:    pkgconfig.GetEnvString("COORDINATOR_BIND_ADDR", ":8080"),
		AuthToken:   pkgconfig.GetEnvString("COORDINATOR_AUTH_TOKEN", ""),
		TriggerTime: pkgconfig.GetEnvString("SCHEDULE_TRIGGER_TIME", "23:00"),
		Timezone:    pkgconfig.GetEnvString("SCHEDULE_TIMEZONE", "Asia/Seoul"),
	}
}

// Indexer holds the environment-driven configuration for the batch
// indexer process (cmd index).
type Indexer struct {
	InputDir           string
	EmbeddingServerURL string
	SearchURL          string
	SearchIndex        string
	BatchSize          int
	CheckpointPath     string
}

// LoadIndexer loads Indexer from the environment.
func LoadIndexer() Indexer {
	return Indexer{
		InputDir:           pkgconfig.GetEnvString("OUTPUT_DIR", "./output"),
		EmbeddingServerURL: pkgconfig.GetEnvString("EMBEDDING_SERVER_URL", ""),
		SearchURL:          pkgconfig.GetEnvString("SEARCH_URL", ""),
		SearchIndex:        pkgconfig.GetEnvString("SEARCH_INDEX", "articles"),
		BatchSize:          pkgconfig.GetEnvInt("INDEXER_BATCH_SIZE", 50),
		CheckpointPath:     pkgconfig.GetEnvString("INDEXER_CHECKPOINT", "./indexer_checkpoint.json"),
	}
}

// Validate checks the fields required for an index run.
func (i Indexer) Validate() error {
	if i.EmbeddingServerURL == "" {
		return fmt.Errorf("config: EMBEDDING_SERVER_URL is required")
	}
	if i.SearchURL == "" {
		return fmt.Errorf("config: SEARCH_URL is required")
	}
	return nil
}

func getEnvFloat(key string, defaultValue float64) float64 {
	s := pkgconfig.GetEnvString(key, "")
	if s == "" {
		return defaultValue
	}
	var v float64
	if _, err := fmt.Sscanf(s, "%g", &v); err != nil || v <= 0 {
		return defaultValue
	}
	return v
}
