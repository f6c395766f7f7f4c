package api

import (
	"encoding/json"
	"net/http"

	"app/pkg/slg"
)

type ttsRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// flushWriter pushes every chunk to the client immediately; the streamer
// flushes through the processor.Flusher interface.
type flushWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

func (fw *flushWriter) Write(p []byte) (int, error) {
	return fw.w.Write(p)
}

func (fw *flushWriter) Flush() {
	if fw.f != nil {
		fw.f.Flush()
	}
}

// HandleTTS streams length-prefixed audio chunks for the request text. The
// response body is the raw wire format; a client disconnect cancels
// r.Context(), which the streamer treats as sink closure.
func (api *API) HandleTTS(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Cache-Control", "no-store")

	sink := &flushWriter{w: w}
	if f, ok := w.(http.Flusher); ok {
		sink.f = f
	}

	ctx := slg.WithSlog(r.Context(), api.logger)

	if _, err := api.streamer.Stream(ctx, req.Text, req.Language, sink); err != nil {
		// headers are out already; all we can do is log
		api.logger.Error("stream failed", "err", err)
	}
}
