package audiocache_test

import (
	"fmt"
	"sync"
	"testing"

	"app/pkg/audiocache"

	"github.com/stretchr/testify/require"
)

func TestKeyNormalization(t *testing.T) {
	assert := require.New(t)

	assert.Equal(
		audiocache.NewKey("English", "  Hello there.  "),
		audiocache.NewKey("English", "hello THERE."),
	)

	assert.NotEqual(
		audiocache.NewKey("English", "hello there."),
		audiocache.NewKey("Japanese", "hello there."),
	)
}

func TestGetSet(t *testing.T) {
	assert := require.New(t)

	cache, err := audiocache.New(&audiocache.Config{Capacity: 10})
	assert.NoError(err)

	key := audiocache.NewKey("English", "Hello.")

	_, ok := cache.Get(key)
	assert.False(ok)

	cache.Set(key, []byte("mp3-bytes"))

	audio, ok := cache.Get(key)
	assert.True(ok)
	assert.Equal([]byte("mp3-bytes"), audio)
}

func TestEmptyValueNotCached(t *testing.T) {
	assert := require.New(t)

	cache, err := audiocache.New(&audiocache.Config{Capacity: 10})
	assert.NoError(err)

	key := audiocache.NewKey("English", "Hello.")
	cache.Set(key, nil)
	cache.Set(key, []byte{})

	_, ok := cache.Get(key)
	assert.False(ok)
	assert.Zero(cache.Len())
}

func TestEvictionIsLRU(t *testing.T) {
	assert := require.New(t)

	cache, err := audiocache.New(&audiocache.Config{Capacity: 3})
	assert.NoError(err)

	keyFor := func(i int) audiocache.Key {
		return audiocache.NewKey("English", fmt.Sprintf("sentence number %d.", i))
	}

	for i := 0; i < 3; i++ {
		cache.Set(keyFor(i), []byte{byte(i)})
	}

	// touch 0 so 1 becomes the eviction candidate
	_, ok := cache.Get(keyFor(0))
	assert.True(ok)

	cache.Set(keyFor(3), []byte{3})

	assert.Equal(3, cache.Len())

	_, ok = cache.Get(keyFor(1))
	assert.False(ok)

	for _, i := range []int{0, 2, 3} {
		_, ok = cache.Get(keyFor(i))
		assert.True(ok, "key %d should have survived", i)
	}
}

func TestCapacityBound(t *testing.T) {
	assert := require.New(t)

	cache, err := audiocache.New(&audiocache.Config{Capacity: 5})
	assert.NoError(err)

	for i := 0; i < 50; i++ {
		cache.Set(audiocache.NewKey("English", fmt.Sprintf("sentence %d.", i)), []byte{byte(i)})
	}

	assert.Equal(5, cache.Len())

	// the five most recently inserted survive
	for i := 45; i < 50; i++ {
		_, ok := cache.Get(audiocache.NewKey("English", fmt.Sprintf("sentence %d.", i)))
		assert.True(ok, "key %d should have survived", i)
	}
}

func TestConcurrentAccess(t *testing.T) {
	assert := require.New(t)

	cache, err := audiocache.New(&audiocache.Config{Capacity: 100})
	assert.NoError(err)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := audiocache.NewKey("English", fmt.Sprintf("sentence %d.", i%20))
				cache.Set(key, []byte{byte(g)})
				cache.Get(key)
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(20, cache.Len())
}
