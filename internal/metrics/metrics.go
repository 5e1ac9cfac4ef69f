package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors of the widget service.
type Metrics struct {
	QueriesTotal        *prometheus.CounterVec
	IconFallbacksTotal  *prometheus.CounterVec
	EventsTotal         *prometheus.CounterVec
	ListenersNotified   prometheus.Counter
	SubscriptionActive  prometheus.Gauge
	SubscriptionChanges *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "weather_widget",
				Name:      "queries_total",
				Help:      "Weather queries by result",
			},
			[]string{"result"},
		),
		IconFallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "weather_widget",
				Name:      "icon_fallbacks_total",
				Help:      "Icon lookups that fell back",
			},
			[]string{"kind"},
		),
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "weather_widget",
				Name:      "events_dispatched_total",
				Help:      "Events fanned out to listeners",
			},
			[]string{"kind"},
		),
		ListenersNotified: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "weather_widget",
				Name:      "listener_deliveries_total",
				Help:      "Individual listener deliveries",
			},
		),
		SubscriptionActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "weather_widget",
				Name:      "subscription_active",
				Help:      "1 while the update channel subscription is open",
			},
		),
		SubscriptionChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "weather_widget",
				Name:      "subscription_changes_total",
				Help:      "Update channel subscribe/unsubscribe transitions",
			},
			[]string{"active"},
		),
	}
	reg.MustRegister(
		m.QueriesTotal,
		m.IconFallbacksTotal,
		m.EventsTotal,
		m.ListenersNotified,
		m.SubscriptionActive,
		m.SubscriptionChanges,
	)
	return m
}

// QueryCompleted implements weather.Recorder.
func (m *Metrics) QueryCompleted(result string) {
	m.QueriesTotal.WithLabelValues(result).Inc()
}

// IconFallback implements weather.Recorder.
func (m *Metrics) IconFallback(kind string) {
	m.IconFallbacksTotal.WithLabelValues(kind).Inc()
}

// EventDispatched implements events.Recorder.
func (m *Metrics) EventDispatched(kind string, listeners int) {
	m.EventsTotal.WithLabelValues(kind).Inc()
	m.ListenersNotified.Add(float64(listeners))
}

// SubscriptionChanged implements events.Recorder.
func (m *Metrics) SubscriptionChanged(active bool) {
	if active {
		m.SubscriptionActive.Set(1)
	} else {
		m.SubscriptionActive.Set(0)
	}
	m.SubscriptionChanges.WithLabelValues(strconv.FormatBool(active)).Inc()
}
