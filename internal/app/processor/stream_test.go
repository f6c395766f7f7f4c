package processor_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"app/internal/app/processor"

	"github.com/stretchr/testify/require"
)

// decodeWire parses the length-prefixed stream, returning the chunks and
// whether a terminal zero marker closed it.
func decodeWire(t *testing.T, wire []byte) ([][]byte, bool) {
	t.Helper()

	var chunks [][]byte

	for len(wire) >= 4 {
		size := binary.BigEndian.Uint32(wire[:4])
		wire = wire[4:]

		if size == 0 {
			return chunks, len(wire) == 0
		}

		require.GreaterOrEqual(t, len(wire), int(size), "truncated chunk")
		chunks = append(chunks, wire[:size])
		wire = wire[size:]
	}

	return chunks, false
}

func TestStreamEmptyInput(t *testing.T) {
	assert := require.New(t)

	pool := newFakePool(1, func(ctx context.Context, text string) ([]byte, error) {
		t.Fatal("no synthesis expected for empty input")
		return nil, nil
	})

	service := newTestService(t, &processor.Config{}, pool)

	var sink bytes.Buffer
	combined, err := service.Stream(context.Background(), "   ", "English", &sink)
	assert.NoError(err)

	assert.Empty(combined)
	assert.Equal([]byte{0, 0, 0, 0}, sink.Bytes())
}

func TestStreamSingleSentence(t *testing.T) {
	assert := require.New(t)

	audio := []byte("some-mp3-bytes")
	pool := newFakePool(1, func(ctx context.Context, text string) ([]byte, error) {
		return audio, nil
	})

	service := newTestService(t, &processor.Config{}, pool)

	var sink bytes.Buffer
	combined, err := service.Stream(context.Background(), "Hello there friend.", "English", &sink)
	assert.NoError(err)
	assert.Equal(audio, combined)

	chunks, terminated := decodeWire(t, sink.Bytes())
	assert.True(terminated)
	assert.Equal([][]byte{audio}, chunks)
}

func TestStreamSkipsFailedSentence(t *testing.T) {
	assert := require.New(t)

	pool := newFakePool(2, func(ctx context.Context, text string) ([]byte, error) {
		if strings.Contains(text, "doomed") {
			return nil, errors.New("persistent provider failure")
		}
		return []byte("ok:" + text), nil
	})

	service := newTestService(t, &processor.Config{}, pool)

	var sink bytes.Buffer
	combined, err := service.Stream(context.Background(),
		"The first sentence works fine. The second one is doomed to fail. The third sentence works again.",
		"English", &sink)
	assert.NoError(err)

	chunks, terminated := decodeWire(t, sink.Bytes())
	assert.True(terminated)
	assert.Len(chunks, 2, "failed sentence leaves a hole, not a marker")
	assert.Contains(string(chunks[0]), "first")
	assert.Contains(string(chunks[1]), "third")

	assert.Equal(bytes.Join(chunks, nil), combined)
}

func TestStreamOrderingUnderOutOfOrderCompletion(t *testing.T) {
	assert := require.New(t)

	// later sentences finish first
	delays := map[string]time.Duration{
		"Sentence alpha number one.":     60 * time.Millisecond,
		"Sentence bravo number two.":     30 * time.Millisecond,
		"Sentence charlie number three.": 0,
	}

	pool := newFakePool(3, func(ctx context.Context, text string) ([]byte, error) {
		time.Sleep(delays[text])
		return []byte(text), nil
	})

	service := newTestService(t, &processor.Config{}, pool)

	var sink bytes.Buffer
	_, err := service.Stream(context.Background(),
		"Sentence alpha number one. Sentence bravo number two. Sentence charlie number three.",
		"English", &sink)
	assert.NoError(err)

	chunks, terminated := decodeWire(t, sink.Bytes())
	assert.True(terminated)
	assert.Len(chunks, 3)
	assert.Contains(string(chunks[0]), "alpha")
	assert.Contains(string(chunks[1]), "bravo")
	assert.Contains(string(chunks[2]), "charlie")
}

// failingSink accepts a limited number of writes, then reports closed.
type failingSink struct {
	writesLeft int
	buf        bytes.Buffer
}

func (s *failingSink) Write(p []byte) (int, error) {
	if s.writesLeft <= 0 {
		return 0, errors.New("broken pipe")
	}
	s.writesLeft--

	return s.buf.Write(p)
}

func TestStreamSinkClosedMidStream(t *testing.T) {
	assert := require.New(t)

	var calls atomic.Int32
	pool := newFakePool(3, func(ctx context.Context, text string) ([]byte, error) {
		calls.Add(1)
		return []byte(text), nil
	})

	service := newTestService(t, &processor.Config{}, pool)

	// first chunk takes two writes (header + payload), then the sink dies
	sink := &failingSink{writesLeft: 2}

	combined, err := service.Stream(context.Background(),
		"Sentence alpha number one. Sentence bravo number two. Sentence charlie number three.",
		"English", sink)
	assert.NoError(err, "sink closure is not an error for the caller")

	assert.EqualValues(3, calls.Load(), "outstanding tasks still run to completion")
	assert.Equal(pool.acquired.Load(), pool.released.Load(), "all handles returned")

	// the combined buffer still carries everything that was synthesized
	assert.Contains(string(combined), "bravo")
	assert.Contains(string(combined), "charlie")
}

func TestStreamCancelledContextStopsWrites(t *testing.T) {
	assert := require.New(t)

	var calls atomic.Int32
	pool := newFakePool(2, func(ctx context.Context, text string) ([]byte, error) {
		calls.Add(1)
		return []byte("audio"), nil
	})

	service := newTestService(t, &processor.Config{}, pool)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sink bytes.Buffer
	combined, err := service.Stream(ctx, "A sentence that still synthesizes fine.", "English", &sink)
	assert.NoError(err)

	assert.EqualValues(1, calls.Load(), "synthesis still runs after cancellation")
	assert.NotEmpty(combined)

	chunks, terminated := decodeWire(t, sink.Bytes())
	assert.Empty(chunks, "no chunk writes after cancellation")
	assert.True(terminated, "terminal marker is still attempted")
}

func TestStreamParallelism(t *testing.T) {
	assert := require.New(t)

	var inFlight, maxInFlight atomic.Int32

	pool := newFakePool(8, func(ctx context.Context, text string) ([]byte, error) {
		current := inFlight.Add(1)
		defer inFlight.Add(-1)

		for {
			observed := maxInFlight.Load()
			if current <= observed || maxInFlight.CompareAndSwap(observed, current) {
				break
			}
		}

		time.Sleep(30 * time.Millisecond)

		return []byte(text), nil
	})

	service := newTestService(t, &processor.Config{MaxConcurrent: 8}, pool)

	text := strings.Join([]string{
		"Parallel sentence number one goes here.",
		"Parallel sentence number two goes here.",
		"Parallel sentence number three goes here.",
		"Parallel sentence number four goes here.",
	}, " ")

	var sink bytes.Buffer
	start := time.Now()
	_, err := service.Stream(context.Background(), text, "English", &sink)
	took := time.Since(start)

	assert.NoError(err)
	assert.Greater(maxInFlight.Load(), int32(1), "sentences must synthesize in parallel")
	assert.Less(took, 4*30*time.Millisecond, "awaiting in order must not serialize synthesis")
}

type flushingSink struct {
	bytes.Buffer

	flushes atomic.Int32
}

func (s *flushingSink) Flush() {
	s.flushes.Add(1)
}

func TestStreamFlushesAfterEveryChunk(t *testing.T) {
	assert := require.New(t)

	pool := newFakePool(2, func(ctx context.Context, text string) ([]byte, error) {
		return []byte(text), nil
	})

	service := newTestService(t, &processor.Config{}, pool)

	sink := &flushingSink{}
	_, err := service.Stream(context.Background(),
		"Flushing sentence number one. Flushing sentence number two.", "English", sink)
	assert.NoError(err)

	// one flush per chunk plus one for the terminal marker
	assert.EqualValues(3, sink.flushes.Load())
}
