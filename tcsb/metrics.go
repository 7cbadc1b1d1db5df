package tcsb

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are registered once per process, labeled per replica, the way
// _examples/DBAShand-cdc-sink-redshift/internal/staging/stage/metrics.go
// declares its promauto collectors as package-level vars.
var (
	eventsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tcsb_events_sent_total",
		Help: "Local operations tagged and broadcast by this replica.",
	}, []string{"replica"})
	eventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tcsb_events_received_total",
		Help: "Remote events accepted into the inbox/outbox.",
	}, []string{"replica"})
	eventsDuplicate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tcsb_events_duplicate_total",
		Help: "Remote events dropped as duplicates.",
	}, []string{"replica"})
	eventsStale = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tcsb_events_stale_total",
		Help: "Remote events dropped as stale (already known to be stable).",
	}, []string{"replica"})
	eventsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tcsb_events_delivered_total",
		Help: "Events handed to the log in causal order.",
	}, []string{"replica"})
	inboxDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tcsb_inbox_depth",
		Help: "Events buffered in the inbox awaiting causal readiness.",
	}, []string{"replica"})
	outboxDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tcsb_outbox_depth",
		Help: "Events retained in the outbox for anti-entropy pulls.",
	}, []string{"replica"})
)

type metrics struct {
	replica string
}

func newMetrics(replica string) *metrics { return &metrics{replica: replica} }

func (m *metrics) sent()        { eventsSent.WithLabelValues(m.replica).Inc() }
func (m *metrics) received()    { eventsReceived.WithLabelValues(m.replica).Inc() }
func (m *metrics) duplicate()   { eventsDuplicate.WithLabelValues(m.replica).Inc() }
func (m *metrics) stale()       { eventsStale.WithLabelValues(m.replica).Inc() }
func (m *metrics) delivered()   { eventsDelivered.WithLabelValues(m.replica).Inc() }
func (m *metrics) setInbox(n int)  { inboxDepth.WithLabelValues(m.replica).Set(float64(n)) }
func (m *metrics) setOutbox(n int) { outboxDepth.WithLabelValues(m.replica).Set(float64(n)) }
