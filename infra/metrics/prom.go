package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dispatchlab/fieldsched/core/logger"
)

// ServePrometheus exposes the default prometheus registry on addr under
// /metrics. It returns the server so callers can shut it down.
func ServePrometheus(addr string, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("prometheus endpoint: %v", err)
		}
	}()
	return srv
}
