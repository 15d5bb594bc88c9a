package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the process-wide Prometheus registry and build info.
type Registry struct {
	*prometheus.Registry
	BuildInfo *prometheus.GaugeVec
}

// New creates a registry with Go runtime and process collectors attached.
func New(version string) *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	info := promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
		Name: "impactx_build_info",
		Help: "Build information of the running escrow core",
	}, []string{"version"})
	info.WithLabelValues(version).Set(1)
	return &Registry{Registry: reg, BuildInfo: info}
}
