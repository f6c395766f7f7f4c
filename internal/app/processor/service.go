// Package processor orchestrates sentence synthesis: it bounds outbound
// concurrency, drives the provider-client pool, deduplicates work through the
// audio cache and streams the results back in sentence order.
package processor

import (
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"
)

type Config struct {
	MaxConcurrent   int64         `yaml:"max_concurrent"`
	SentenceTimeout time.Duration `yaml:"sentence_timeout"`

	// DumpDir, when set, receives a best-effort copy of every synthesized
	// chunk for debugging. Never on the hot path.
	DumpDir string `yaml:"dump_dir"`
}

const (
	defaultMaxConcurrent   = 50
	defaultSentenceTimeout = 8 * time.Second
)

type Service struct {
	logger *slog.Logger
	cfg    *Config

	cache AudioCache
	pool  HandlePool

	// global cap on simultaneous provider calls, across pooled and fresh
	// handles alike
	limiter *semaphore.Weighted

	sentenceTimeout time.Duration
}

func NewService(logger *slog.Logger, cfg *Config, cache AudioCache, pool HandlePool) *Service {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}

	sentenceTimeout := cfg.SentenceTimeout
	if sentenceTimeout <= 0 {
		sentenceTimeout = defaultSentenceTimeout
	}

	return &Service{
		logger: logger,
		cfg:    cfg,

		cache: cache,
		pool:  pool,

		limiter: semaphore.NewWeighted(maxConcurrent),

		sentenceTimeout: sentenceTimeout,
	}
}
