package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"eventhub/internal/logging"
	"eventhub/internal/poller"
)

// stream serves fetch as server-sent events: one snapshot immediately, then one per
// poll interval until the client disconnects or the server closes its streams. The first fetch runs before the
// response starts so request errors still get a normal status code.
func (s *Server) stream(w http.ResponseWriter, r *http.Request, fetch func(context.Context) (any, error)) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}

	first, err := fetch(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(s.streams, cancel)
	defer stop()

	primed := true
	err = poller.Every(ctx, s.pollInterval, func(ctx context.Context) error {
		if primed {
			primed = false
			return writeEvent(w, flusher, "snapshot", first)
		}

		payload, err := fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.WithContext(ctx).Warn().Err(err).Str("path", r.URL.Path).Msg("Stream refresh failed")
			return writeEvent(w, flusher, "error", errorResponse{Error: "refresh failed"})
		}
		return writeEvent(w, flusher, "snapshot", payload)
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		logging.WithContext(r.Context()).Debug().Err(err).Msg("Stream closed")
	}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
