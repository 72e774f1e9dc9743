// Package metrics exposes prometheus instrumentation for the tracker pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsDecoded = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "pingr_events_decoded_total", Help: "Event records decoded from the log"},
	)
	LinesSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "pingr_lines_skipped_total", Help: "Malformed JSONL lines dropped"},
	)
	CyclesOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pingr_cycles_opened_total", Help: "Momentum cycles opened by alerts"},
		[]string{"symbol"},
	)
	CyclesReplaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pingr_cycles_replaced_total", Help: "Open cycles discarded by a newer alert"},
		[]string{"symbol"},
	)
	CyclesClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pingr_cycles_closed_total", Help: "Cycles closed by momentum_end or end-of-stream flush"},
		[]string{"symbol", "reason"},
	)
)

func init() {
	prometheus.MustRegister(EventsDecoded, LinesSkipped, CyclesOpened, CyclesReplaced, CyclesClosed)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
