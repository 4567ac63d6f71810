package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/photodiary/internal/livequery"
)

// keepAlive is how often an idle stream gets a comment line.
var keepAlive = 15 * time.Second

// Snapshot writes the controller state as JSON with a content ETag.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	state := h.gallery.State()

	body, err := json.Marshal(state)
	if err != nil {
		h.logger.Error(r.Context(), "encode state", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	fp, err := livequery.Fingerprint(state)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	etag := `"` + fp[:32] + `"`

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

// Stream sends a "snapshot" event with the state now and after every change.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	changes, stop := h.gallery.Watch()
	defer stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	send := func() error {
		b, err := json.Marshal(h.gallery.State())
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", b); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := send(); err != nil {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-changes:
			if err := send(); err != nil {
				h.logger.Debug(r.Context(), "stream closed", "error", err)
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// Health reports 200 once the gallery has loaded without a subscription
// error, and 503 otherwise.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status, code := "ok", http.StatusOK
	switch {
	case h.gallery.Err() != nil:
		status, code = "subscription failed", http.StatusServiceUnavailable
	case h.gallery.State().Loading:
		status, code = "loading", http.StatusServiceUnavailable
	}

	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
