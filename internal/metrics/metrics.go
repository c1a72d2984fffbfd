package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "barberbook"

// Metrics структура для метрик Prometheus
type Metrics struct {
	UpdateProcessingTime prometheus.Histogram
	UpdatesRateLimited   prometheus.Counter
	ErrorsTotal          *prometheus.CounterVec
	RepliesTotal         *prometheus.CounterVec
	AppointmentsBooked   prometheus.Counter
	AppointmentsCanceled prometheus.Counter
	SideEffectFailures   *prometheus.CounterVec
	StaleResults         prometheus.Counter
	RemindersDelivered   *prometheus.CounterVec
}

// New registers the metrics with reg. Tests pass prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UpdateProcessingTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "update_processing_time_seconds",
			Help:      "Time spent processing Telegram updates.",
			Buckets:   prometheus.DefBuckets,
		}),
		UpdatesRateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_rate_limited_total",
			Help:      "Updates dropped by the per-user rate limit.",
		}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors by source.",
		}, []string{"source"}),
		RepliesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_total",
			Help:      "Chat replies by kind.",
		}, []string{"kind"}),
		AppointmentsBooked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_booked_total",
			Help:      "Appointments booked.",
		}),
		AppointmentsCanceled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_cancelled_total",
			Help:      "Appointments cancelled.",
		}),
		SideEffectFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effect_failures_total",
			Help:      "Best-effort side effects that failed, by effect.",
		}, []string{"effect"}),
		StaleResults: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_results_discarded_total",
			Help:      "Results dropped because the session was reset meanwhile.",
		}),
		RemindersDelivered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_total",
			Help:      "Reminder deliveries by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveUpdate(d time.Duration) {
	m.UpdateProcessingTime.Observe(d.Seconds())
}

func (m *Metrics) RateLimited() {
	m.UpdatesRateLimited.Inc()
}

func (m *Metrics) Error(source string) {
	m.ErrorsTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) ReplySent(kind string) {
	m.RepliesTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) AppointmentBooked() {
	m.AppointmentsBooked.Inc()
}

func (m *Metrics) AppointmentCancelled() {
	m.AppointmentsCanceled.Inc()
}

func (m *Metrics) SideEffectFailed(effect string) {
	m.SideEffectFailures.WithLabelValues(effect).Inc()
}

func (m *Metrics) StaleDiscarded() {
	m.StaleResults.Inc()
}

// Reminder counts one delivery attempt: sent, retry or failed.
func (m *Metrics) Reminder(result string) {
	m.RemindersDelivered.WithLabelValues(result).Inc()
}
