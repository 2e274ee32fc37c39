// Package metrics exposes the console's prometheus collectors over a small
// local HTTP endpoint, so that a long-running console session can be
// scraped.
package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/civixvote/console/log"
)

// Agent serves the prometheus metrics endpoint.
type Agent struct {
	Path   string
	server *http.Server
}

// NewAgent starts an HTTP server on listenAddr serving the prometheus
// handler at path.
func NewAgent(path, listenAddr string) *Agent {
	r := chi.NewRouter()
	r.Get(path, promhttp.Handler().ServeHTTP)
	a := &Agent{
		Path: path,
		server: &http.Server{
			Addr:              listenAddr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warnf("metrics server stopped: %v", err)
		}
	}()
	log.Infof("prometheus metrics ready at: %s%s", listenAddr, path)
	return a
}

// Close shuts down the metrics endpoint.
func (a *Agent) Close() error {
	return a.server.Close()
}

// Register the provided prometheus collector, ignoring any duplicate
// registration (simply logs a Warn).
func Register(c prometheus.Collector) {
	if err := prometheus.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return
		}
		log.Warnf("cannot register metrics: %v", err)
	}
}
