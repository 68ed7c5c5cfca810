package checkin_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ms-checkin/internal/logger"
	"ms-checkin/internal/sse"
)

// SSEHandler streams accepted scans to dashboard clients over
// Server-Sent Events.
type SSEHandler struct {
	Logger *logger.Logger
	Feed   *sse.ScanFeed
}

func NewSSEHandler(log *logger.Logger, feed *sse.ScanFeed) *SSEHandler {
	return &SSEHandler{Logger: log, Feed: feed}
}

// HandleScanFeed streams every accepted gate scan and sale to the
// connected client until it disconnects.
func (h *SSEHandler) HandleScanFeed(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	h.setupSSEHeaders(w)

	ctx := r.Context()
	scanChan := h.Feed.Subscribe(ctx)

	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	if h.Logger != nil {
		h.Logger.Info("SSE", "Client connected to scan feed")
	}

	for {
		select {
		case record, ok := <-scanChan:
			if !ok {
				return
			}

			jsonData, err := json.Marshal(record)
			if err != nil {
				if h.Logger != nil {
					h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize scan record: %v", err))
				}
				continue
			}

			fmt.Fprintf(w, "event: scan\ndata: %s\n\n", jsonData)
			flusher.Flush()

		case <-ctx.Done():
			if h.Logger != nil {
				h.Logger.Debug("SSE", "Client disconnected from scan feed")
			}
			return
		}
	}
}

func (h *SSEHandler) setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
