package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/romshark/tojs/driver"
	"github.com/romshark/tojs/modules/msgbroker"
)

// newEventsHandler streams every build event as a server-sent event
// until the client disconnects.
func newEventsHandler(broker msgbroker.MessageBroker, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		sub, err := broker.Subscribe(r.Context(), msgbroker.NoMetrics{}, driver.SubjectGenerated)
		if err != nil {
			log.Error("subscribing to build events", slog.Any("err", err))
			http.Error(w, "subscribing failed", http.StatusInternalServerError)
			return
		}
		defer sub.Close()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case msg, ok := <-sub.C():
				if !ok {
					return
				}
				if _, err := fmt.Fprintf(w, "event: generated\ndata: %s\n\n", msg.Data); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	})
}
