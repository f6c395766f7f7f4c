package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"app/pkg/audio"
	"app/pkg/audiocache"
	"app/pkg/tts"

	"github.com/google/uuid"
)

// one retry per sentence: transient provider failures (resets, timeouts,
// empty payloads) usually clear on the second attempt, anything persistent
// becomes a per-sentence failure
const maxAttempts = 2

// SynthesizeSentence turns one sentence into an audio chunk, consulting the
// cache first and populating it on success.
func (s *Service) SynthesizeSentence(ctx context.Context, sentence, language string) ([]byte, error) {
	key := audiocache.NewKey(language, sentence)

	if chunk, ok := s.cache.Get(key); ok {
		metrics.CacheHits.Inc()
		return chunk, nil
	}
	metrics.CacheMisses.Inc()

	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		chunk, err := s.synthesizeOnce(ctx, sentence, language)
		if err == nil {
			s.cache.Set(key, chunk)
			s.observeChunk(sentence, chunk)
			return chunk, nil
		}

		lastErr = err

		if attempt+1 < maxAttempts {
			s.logger.Warn("synthesis attempt failed, retrying",
				"language", language, "sentence_len", len(sentence), "err", err)
		}
	}

	metrics.SentencesFailed.Inc()

	return nil, fmt.Errorf("synthesis failed after %d attempts: %w", maxAttempts, lastErr)
}

// synthesizeOnce performs a single bounded attempt. The permit and any pool
// handle are released before returning, so a retry never deadlocks on
// resources its own stack frame still holds.
func (s *Service) synthesizeOnce(ctx context.Context, sentence, language string) ([]byte, error) {
	if err := s.limiter.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire permit: %w", err)
	}
	defer s.limiter.Release(1)

	var handle tts.Handle
	pooled := false

	if s.pool.IsDefaultLanguage(language) {
		handle, pooled = s.pool.TryAcquire()
	}

	if handle == nil {
		handle = s.pool.NewFresh(language)
	}

	defer func() {
		if pooled {
			s.pool.Release(handle)
		} else {
			_ = handle.Close()
		}
	}()

	synthCtx, cancel := context.WithTimeout(ctx, s.sentenceTimeout)
	defer cancel()

	chunk, err := handle.Synthesize(synthCtx, sentence)
	if err != nil {
		return nil, err
	}

	if len(chunk) == 0 {
		return nil, tts.ErrNoAudio
	}

	return chunk, nil
}

func (s *Service) observeChunk(sentence string, chunk []byte) {
	if dur, err := audio.MP3Duration(chunk); err == nil {
		metrics.AudioSeconds.Add(dur.Seconds())
		s.logger.Debug("synthesized sentence",
			"sentence_len", len(sentence), "audio_bytes", len(chunk), "audio_dur", dur)
	}

	if s.cfg.DumpDir == "" {
		return
	}

	go func() {
		name := filepath.Join(s.cfg.DumpDir, uuid.NewString()+".mp3")
		if err := os.WriteFile(name, chunk, 0644); err != nil {
			s.logger.Debug("failed to dump chunk", "err", err)
		}
	}()
}
