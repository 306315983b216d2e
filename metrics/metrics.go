package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder groups the service collectors. A nil *Recorder is valid and
// records nothing, which keeps tests free of registry setup.
type Recorder struct {
	calculations *prometheus.CounterVec
	pricePolls   *prometheus.CounterVec
	assetPrice   prometheus.Gauge
	waitlist     *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pledg",
			Name:      "calculations_total",
			Help:      "Calculator invocations by outcome.",
		}, []string{"outcome"}),
		pricePolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pledg",
			Name:      "price_polls_total",
			Help:      "Price feed polls by resulting snapshot source.",
		}, []string{"source"}),
		assetPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pledg",
			Name:      "asset_price_inr",
			Help:      "Most recent collateral asset price served to calculations.",
		}),
		waitlist: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pledg",
			Name:      "waitlist_signups_total",
			Help:      "Waitlist submissions by outcome.",
		}, []string{"outcome"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pledg",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
	reg.MustRegister(r.calculations, r.pricePolls, r.assetPrice, r.waitlist, r.httpDuration)
	return r
}

func (r *Recorder) ObserveCalculation(outcome string) {
	if r == nil {
		return
	}
	r.calculations.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ObservePricePoll(source string, price float64) {
	if r == nil {
		return
	}
	r.pricePolls.WithLabelValues(source).Inc()
	r.assetPrice.Set(price)
}

func (r *Recorder) ObserveWaitlist(outcome string) {
	if r == nil {
		return
	}
	r.waitlist.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ObserveHTTP(route, status string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.httpDuration.WithLabelValues(route, status).Observe(elapsed.Seconds())
}
