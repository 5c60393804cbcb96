// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PEYP Contributors

package credential

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts resolution and registration attempts.
type Metrics struct {
	Resolutions   *prometheus.CounterVec
	Registrations *prometheus.CounterVec
	Repairs       prometheus.Counter
}

// NewMetrics creates and registers the credential metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "peyp_resolutions_total",
				Help: "Total number of credential resolutions by outcome",
			},
			[]string{"outcome"},
		),
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "peyp_registrations_total",
				Help: "Total number of registrations by status",
			},
			[]string{"status"},
		),
		Repairs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "peyp_inverse_repairs_total",
				Help: "Total number of inverse index memberships restored by reconciliation",
			},
		),
	}

	reg.MustRegister(m.Resolutions)
	reg.MustRegister(m.Registrations)
	reg.MustRegister(m.Repairs)

	return m
}

func (m *Metrics) observeResolution(outcome string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeRegistration(status string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(status).Inc()
}

func (m *Metrics) observeRepair() {
	if m == nil {
		return
	}
	m.Repairs.Inc()
}
