package processor

import (
	"app/pkg/audiocache"
	"app/pkg/tts"
)

// HandlePool hands out provider connections. *tts.Pool is the production
// implementation; tests supply fakes.
type HandlePool interface {
	TryAcquire() (tts.Handle, bool)
	Release(handle tts.Handle)
	NewFresh(language string) tts.Handle
	IsDefaultLanguage(language string) bool
}

// AudioCache deduplicates synthesis work across sentences and requests.
type AudioCache interface {
	Get(key audiocache.Key) ([]byte, bool)
	Set(key audiocache.Key, audio []byte)
}
