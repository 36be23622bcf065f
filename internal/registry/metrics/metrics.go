package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"slotkeeper/pkg/domain"
)

type Metrics struct {
	RegistrationsTotal      *prometheus.CounterVec
	RegistrationAbortsTotal *prometheus.CounterVec
	EvictionsTotal          *prometheus.CounterVec
	OccupiedSlots           *prometheus.GaugeVec
}

func New() *Metrics {
	return &Metrics{
		RegistrationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "slotkeeper_registrations_total",
			Help: "Total number of committed registrations per network",
		}, []string{"netuid"}),
		RegistrationAbortsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "slotkeeper_registration_aborts_total",
			Help: "Total number of aborted registration transitions by reason",
		}, []string{"reason"}),
		EvictionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "slotkeeper_evictions_total",
			Help: "Total number of slot evictions per network",
		}, []string{"netuid"}),
		OccupiedSlots: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "slotkeeper_occupied_slots",
			Help: "Current number of occupied slots per network",
		}, []string{"netuid"}),
	}
}

func (m *Metrics) RecordRegistration(net domain.NetID, evicted bool, occupied uint16) {
	m.RegistrationsTotal.WithLabelValues(net.String()).Inc()
	if evicted {
		m.EvictionsTotal.WithLabelValues(net.String()).Inc()
	}
	m.OccupiedSlots.WithLabelValues(net.String()).Set(float64(occupied))
}

func (m *Metrics) RecordAbort(reason string) {
	m.RegistrationAbortsTotal.WithLabelValues(reason).Inc()
}
