package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/ascent/pkg/metrics"
)

// RegisterHealth exposes liveness plus the metric registry. Served off
// the API prefix so probes skip the identity middleware.
func RegisterHealth(mux *http.ServeMux) {
	mux.Handle("GET /healthz", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
}
