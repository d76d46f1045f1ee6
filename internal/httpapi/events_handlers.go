package httpapi

import (
	"fmt"
	"net/http"

	"outreach-engine/internal/events"
)

// serveSSE streams full campaign snapshots for one job id. The subscription
// is registered before the initial read, so a commit that lands in between
// sits in the channel buffer rather than being missed; the client may see
// the same state twice, which is harmless since every message is a full
// snapshot. Disconnecting only tears down the subscription, never the
// pipeline.
func (h CampaignsHandler) serveSSE(jobID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "Streaming unsupported")
			return
		}

		ch := h.Hub.Subscribe(jobID)
		defer h.Hub.Unsubscribe(jobID, ch)

		c, err := h.Orch.Get(r.Context(), jobID)
		if err != nil {
			writeOpError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", events.Snapshot(c))
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case msg := <-ch:
				fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", msg)
				flusher.Flush()
			}
		}
	}
}
