package tts

import (
	"context"
	"log/slog"
	"time"
)

// Pool is a fixed-size set of pre-constructed handles using the default
// voice. Handles are lazy: the socket is dialed on first use, so building
// the pool never fails.
//
// Blocked Acquire calls are served in FIFO order by channel semantics; a
// released handle goes to the first waiter without re-queueing.
type Pool struct {
	cfg    *Config
	logger *slog.Logger
	voices *voiceMap

	handles chan Handle
}

func NewPool(logger *slog.Logger, cfg *Config) *Pool {
	size := cfg.PoolSize
	if size <= 0 {
		size = defaultPoolSize
	}

	handles := make(chan Handle, size)
	for i := 0; i < size; i++ {
		handles <- NewClient(cfg, cfg.voice())
	}

	return &Pool{
		cfg:     cfg,
		logger:  logger,
		voices:  newVoiceMap(cfg),
		handles: handles,
	}
}

// Acquire blocks until a handle is free or ctx is done.
func (p *Pool) Acquire(ctx context.Context) (Handle, error) {
	select {
	case handle, ok := <-p.handles:
		if !ok {
			return nil, ErrPoolClosed
		}
		return handle, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryAcquire waits at most the configured acquire timeout. A false result
// tells the caller to fall back to a fresh handle.
func (p *Pool) TryAcquire() (Handle, bool) {
	select {
	case handle, ok := <-p.handles:
		return handle, ok
	default:
	}

	timeout := p.cfg.PoolAcquireTimeout
	if timeout <= 0 {
		timeout = defaultPoolAcquireTimeout
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case handle, ok := <-p.handles:
		return handle, ok
	case <-timer.C:
		metrics.PoolExhausted.Inc()
		return nil, false
	}
}

// Release returns a pool handle. Fresh handles must never be released here.
func (p *Pool) Release(handle Handle) {
	p.handles <- handle
}

// NewFresh builds a single-use handle for the given language's voice. Fresh
// handles never enter the pool; the caller closes them after use.
func (p *Pool) NewFresh(language string) Handle {
	metrics.FreshHandles.Inc()

	return NewClient(p.cfg, p.voices.voiceFor(language))
}

// IsDefaultLanguage reports whether language resolves to the pool's voice,
// meaning a pooled handle can serve it.
func (p *Pool) IsDefaultLanguage(language string) bool {
	return p.voices.voiceFor(language) == p.cfg.voice()
}

func (p *Pool) DefaultVoice() string {
	return p.cfg.voice()
}

// Close closes every idle handle. Handles out on loan are closed by their
// holders; sockets owned by the pool should not outlive the process.
func (p *Pool) Close() {
	for {
		select {
		case handle := <-p.handles:
			if err := handle.Close(); err != nil {
				p.logger.Warn("failed to close pooled handle", "err", err)
			}
		default:
			return
		}
	}
}
