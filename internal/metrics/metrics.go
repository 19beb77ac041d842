package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "royal_house"

// Registry holds every collector exposed on /metrics.
var Registry = prometheus.NewRegistry()

// AppInfo is 1 for the running build; the labels carry version details.
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// LoginCodesTotal counts login code requests by outcome.
var LoginCodesTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_codes_total",
		Help:      "Total number of login code requests",
	},
	[]string{"result"}, // sent|unknown_email|delivery_failed|error
)

// LoginVerificationsTotal counts code verifications by outcome.
var LoginVerificationsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_verifications_total",
		Help:      "Total number of login code verifications",
	},
	[]string{"result"}, // success|invalid|expired|error
)

// UploadsTotal counts stored uploads by detected media type.
var UploadsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_total",
		Help:      "Total number of stored uploads",
	},
	[]string{"type"},
)

var UploadBytes = promauto.With(Registry).NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upload_size_bytes",
		Help:      "Size of stored uploads in bytes",
		Buckets:   []float64{10000, 100000, 1000000, 5000000, 10000000, 50000000},
	},
)

var runtimeOnce sync.Once

// Init registers the Go and process collectors once and records the build.
func Init(version, commit, buildDate string) {
	runtimeOnce.Do(func() {
		Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
	AppInfo.Reset()
	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}
