package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"netpulse/app/internal/sink"
)

// sseKeepAlive is how often an idle stream gets a comment line
const sseKeepAlive = 15 * time.Second

// HandleEvents streams sink events as server-sent events until the client goes away
func HandleEvents(h *sink.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := http.NewResponseController(w)
		// The server write timeout would otherwise cut the stream
		_ = rc.SetWriteDeadline(time.Time{})

		events, unsubscribe := h.Subscribe()
		defer unsubscribe()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, ": connected\n\n")
		if err := rc.Flush(); err != nil {
			log.Printf("sse flush unsupported: %v", err)
			return
		}

		keepAlive := time.NewTicker(sseKeepAlive)
		defer keepAlive.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-keepAlive.C:
				fmt.Fprint(w, ": ping\n\n")
			case ev, ok := <-events:
				if !ok {
					return
				}
				data, err := json.Marshal(ev)
				if err != nil {
					log.Printf("sse encode error kind=%s err=%v", ev.Kind, err)
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data)
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
