package kafka_middleware

import (
	"context"
	"time"

	"marina/pkg/kafka"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

// Metrics holds the Kafka collectors. Create one per registry.
type Metrics struct {
	Published       *prometheus.CounterVec
	Consumed        *prometheus.CounterVec
	PublishDuration prometheus.Histogram
	ConsumeDuration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marina",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Messages published, by event type and result.",
		}, []string{"event_type", "result"}),
		Consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marina",
			Subsystem: "kafka",
			Name:      "messages_consumed_total",
			Help:      "Messages consumed, by event type and result.",
		}, []string{"event_type", "result"}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "marina",
			Subsystem: "kafka",
			Name:      "publish_duration_seconds",
			Help:      "Time spent writing a message to the broker.",
			Buckets:   prometheus.DefBuckets,
		}),
		ConsumeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "marina",
			Subsystem: "kafka",
			Name:      "consume_duration_seconds",
			Help:      "Time spent handling a consumed message.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.Published, m.Consumed, m.PublishDuration, m.ConsumeDuration)
	return m
}

func (m *Metrics) ProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		m.PublishDuration.Observe(time.Since(start).Seconds())
		m.Published.WithLabelValues(msg.GetEventType(), result(err)).Inc()
		return err
	}
}

func (m *Metrics) ConsumerMiddleware() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		m.ConsumeDuration.Observe(time.Since(start).Seconds())
		m.Consumed.WithLabelValues(msg.GetEventType(), result(err)).Inc()
		return err
	}
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultOK
}
