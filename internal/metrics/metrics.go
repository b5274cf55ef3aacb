package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "envisalink2mqtt"

var FramesReceived = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "panel",
	Name:      "frames_received_total",
	Help:      "Frames received from the envisalink bridge.",
})

var CommandsSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "panel",
	Name:      "commands_sent_total",
	Help:      "Commands written to the envisalink bridge, by command code.",
}, []string{"code"})

var Reconnects = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "panel",
	Name:      "reconnects_total",
	Help:      "Reconnects after the bridge closed the connection.",
})

var PollRetries = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "panel",
	Name:      "poll_retries_total",
	Help:      "Keepalive polls resent because the previous one was not acknowledged.",
})

var SessionState = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "panel",
	Name:      "session_state",
	Help:      "Session state: 0 disconnected, 1 connecting, 2 awaiting login, 3 logged in, 4 faulted.",
})

var EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "bus",
	Name:      "events_published_total",
	Help:      "Events published to the bus, by event type.",
}, []string{"type"})

var CommandsDropped = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "bus",
	Name:      "commands_dropped_total",
	Help:      "Inbound bus commands discarded because they could not be decoded.",
})

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
