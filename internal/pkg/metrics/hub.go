package metrics

import "github.com/prometheus/client_golang/prometheus"

// HubMetrics tracks the notification hub.
type HubMetrics struct {
	channels    prometheus.Gauge
	subscribers prometheus.Gauge
	published   *prometheus.CounterVec
	delivered   prometheus.Counter
	slow        prometheus.Counter
	queueFull   prometheus.Counter
}

func NewHubMetrics(reg prometheus.Registerer) *HubMetrics {
	if reg == nil {
		return &HubMetrics{}
	}
	m := &HubMetrics{
		channels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "channels",
			Help:      "Order channels with at least one subscriber.",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "subscribers",
			Help:      "Connections subscribed across all channels.",
		}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "published_total",
			Help:      "Events accepted for dispatch.",
		}, []string{"event"}),
		delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "delivered_total",
			Help:      "Messages handed to subscriber queues.",
		}),
		slow: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "slow_subscribers_total",
			Help:      "Subscribers dropped because their queue was full.",
		}),
		queueFull: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "queue_full_total",
			Help:      "Events rejected because the dispatch queue was full.",
		}),
	}
	reg.MustRegister(m.channels, m.subscribers, m.published, m.delivered, m.slow, m.queueFull)
	return m
}

// SetSize records the current number of channels and subscribers.
func (m *HubMetrics) SetSize(channels, subscribers int) {
	if m == nil || m.channels == nil {
		return
	}
	m.channels.Set(float64(channels))
	m.subscribers.Set(float64(subscribers))
}

func (m *HubMetrics) IncPublished(event string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(event)).Inc()
}

func (m *HubMetrics) AddDelivered(n int) {
	if m == nil || m.delivered == nil {
		return
	}
	m.delivered.Add(float64(n))
}

func (m *HubMetrics) IncSlowSubscriber() {
	if m == nil || m.slow == nil {
		return
	}
	m.slow.Inc()
}

func (m *HubMetrics) IncQueueFull() {
	if m == nil || m.queueFull == nil {
		return
	}
	m.queueFull.Inc()
}
