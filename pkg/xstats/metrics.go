package xstats

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "latency_test"

// Metrics exports samples as prometheus collectors.
type Metrics struct {
	packets *prometheus.CounterVec
	halfRTT *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		packets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_total",
			Help:      "Resolved packet indexes by outcome.",
		}, []string{"proto", "dest", "outcome"}),
		halfRTT: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "half_rtt_microseconds",
			Help:      "Measured RTT/2 in microseconds.",
			Buckets:   prometheus.ExponentialBuckets(10, 2, 16),
		}, []string{"proto", "dest"}),
	}
	for _, c := range []prometheus.Collector{m.packets, m.halfRTT} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Observe(s Sample) {
	m.packets.WithLabelValues(s.Conn.Proto, s.Conn.Dest, s.Outcome.String()).Inc()
	if s.Outcome == Measured {
		m.halfRTT.WithLabelValues(s.Conn.Proto, s.Conn.Dest).Observe(float64(s.Micros()))
	}
}
