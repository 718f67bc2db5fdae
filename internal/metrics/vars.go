package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Submissions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rocketbot_tx_submissions_total",
		Help: "Value-moving transaction submissions",
	})

	Approvals = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rocketbot_tx_approvals_total",
		Help: "Approval transactions submitted",
	})

	Confirmations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rocketbot_tx_confirmations_total",
		Help: "Transactions confirmed on chain",
	})

	Failures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rocketbot_tx_failures_total",
		Help: "Pipeline failures by reason",
	}, []string{"reason"})

	ConfirmLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rocketbot_tx_confirm_latency_seconds",
		Help:    "Time from submission to confirmed receipt",
		Buckets: prometheus.DefBuckets,
	})

	WatcherTicks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rocketbot_watcher_ticks_total",
		Help: "Listing watcher tick runs",
	})

	NewListings = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rocketbot_watcher_new_listings_total",
		Help: "New listings detected and notified",
	})

	NotifyFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rocketbot_watcher_notify_failures_total",
		Help: "Listing notifications that failed and will be retried",
	})
)

func init() {
	prometheus.MustRegister(
		Submissions,
		Approvals,
		Confirmations,
		Failures,
		ConfirmLatency,
		WatcherTicks,
		NewListings,
		NotifyFailures,
	)
}
