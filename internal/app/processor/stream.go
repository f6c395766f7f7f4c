package processor

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"time"

	"app/pkg/slg"
	"app/pkg/splitter"
)

// Flusher is implemented by sinks that buffer writes; the streamer flushes
// after every chunk so the consumer hears audio as soon as it exists.
type Flusher interface {
	Flush()
}

// terminal marker: a zero-length chunk header
const headerLen = 4

// Stream splits text, synthesizes every sentence in parallel and writes the
// chunks to sink in sentence order, each prefixed with a 4-byte big-endian
// length, ending with a 4-byte zero marker. Failed sentences produce no
// bytes; the client reconstructs audio by concatenation, so a silent gap is
// acceptable.
//
// A cancelled ctx (consumer gone) stops writes only: in-flight synthesis
// runs to completion so permits and handles are always returned, and results
// may still land in the cache for the next request.
//
// The concatenation of all successful chunks is returned for the caller's
// optional persistence.
func (s *Service) Stream(ctx context.Context, text, language string, sink io.Writer) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.StreamSeconds.Observe(time.Since(start).Seconds())
	}()

	logger := slg.GetSlog(ctx, s.logger)

	sentences := splitter.Split(text)

	logger.Info("starting stream", "sentences", len(sentences), "language", language)

	results := make([][]byte, len(sentences))
	done := make([]chan struct{}, len(sentences))

	// synthesis must not die with the request
	synthCtx := context.WithoutCancel(ctx)

	for i, sentence := range sentences {
		done[i] = make(chan struct{})

		go func(i int, sentence string) {
			defer close(done[i])

			chunk, err := s.SynthesizeSentence(synthCtx, sentence, language)
			if err != nil {
				logger.Error("sentence failed", "index", i, "err", err)
				return
			}

			results[i] = chunk
		}(i, sentence)
	}

	var combined bytes.Buffer
	header := make([]byte, headerLen)
	sinkClosed := false

	for i := range sentences {
		<-done[i]

		if ctx.Err() != nil {
			sinkClosed = true
		}

		chunk := results[i]
		if len(chunk) == 0 {
			continue
		}

		combined.Write(chunk)

		if sinkClosed {
			continue
		}

		binary.BigEndian.PutUint32(header, uint32(len(chunk)))

		if _, err := sink.Write(header); err != nil {
			logger.Info("sink closed mid-stream", "index", i, "err", err)
			sinkClosed = true
			continue
		}
		if _, err := sink.Write(chunk); err != nil {
			logger.Info("sink closed mid-stream", "index", i, "err", err)
			sinkClosed = true
			continue
		}

		metrics.ChunksWritten.Inc()

		if f, ok := sink.(Flusher); ok {
			f.Flush()
		}
	}

	// terminal marker even when nothing was produced; against a closed sink
	// the write fails silently, which keeps the exit path uniform
	binary.BigEndian.PutUint32(header, 0)
	if _, err := sink.Write(header); err == nil {
		if f, ok := sink.(Flusher); ok {
			f.Flush()
		}
	}

	logger.Info("stream finished",
		"sentences", len(sentences), "bytes", combined.Len(), "took", time.Since(start))

	return combined.Bytes(), nil
}
