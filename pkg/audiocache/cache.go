// Package audiocache is a content-addressed in-process cache for synthesized audio.
package audiocache

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

type Config struct {
	Capacity int `yaml:"capacity"`
}

const defaultCapacity = 500

// Key addresses one synthesized chunk. Language is part of the key because
// voices differ per language, so the same text yields different audio.
type Key struct {
	Language string
	Text     string
}

func NewKey(language, sentence string) Key {
	return Key{
		Language: language,
		Text:     strings.ToLower(strings.TrimSpace(sentence)),
	}
}

// Cache is safe for concurrent use by independent synthesis tasks.
type Cache struct {
	entries *lru.Cache[Key, []byte]
}

func New(cfg *Config) (*Cache, error) {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}

	entries, err := lru.New[Key, []byte](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}

	return &Cache{entries: entries}, nil
}

// Get returns the cached audio for key and bumps its recency.
func (c *Cache) Get(key Key) ([]byte, bool) {
	return c.entries.Get(key)
}

// Set stores audio under key, evicting the least-recently-used entry when
// over capacity. Empty chunks mean a failed synthesis and are never stored.
func (c *Cache) Set(key Key, audio []byte) {
	if len(audio) == 0 {
		return
	}

	c.entries.Add(key, audio)
}

func (c *Cache) Len() int {
	return c.entries.Len()
}
