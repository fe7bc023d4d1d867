package services

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts external capability calls and inventory writes. A nil
// *Metrics records nothing.
type Metrics struct {
	capabilityCalls    *prometheus.CounterVec
	inventoryMutations *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		capabilityCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wardrobe_capability_calls_total",
			Help: "Calls to the generative backend by capability and outcome.",
		}, []string{"capability", "outcome"}),
		inventoryMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wardrobe_inventory_mutations_total",
			Help: "Inventory mutations by operation and outcome.",
		}, []string{"op", "outcome"}),
	}
	reg.MustRegister(m.capabilityCalls, m.inventoryMutations)
	return m
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) CapabilityCall(capability string, err error) {
	if m == nil {
		return
	}
	m.capabilityCalls.WithLabelValues(capability, outcome(err)).Inc()
}

func (m *Metrics) InventoryMutation(op string, err error) {
	if m == nil {
		return
	}
	m.inventoryMutations.WithLabelValues(op, outcome(err)).Inc()
}
