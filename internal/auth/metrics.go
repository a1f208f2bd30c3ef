// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

package auth

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/SolarMC-Dev/DataLoader-sub000/internal/identity"
)

// Metrics counts login path decisions. A nil *Metrics records nothing.
type Metrics struct {
	resolutions *prometheus.CounterVec
	accounts    *prometheus.CounterVec
	completions *prometheus.CounterVec
	violations  *prometheus.CounterVec
}

// NewMetrics creates and registers the auth metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dataloader_auth_resolutions_total",
			Help: "Total number of name ownership resolutions by outcome and identity kind",
		}, []string{"outcome", "kind"}),
		accounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dataloader_auth_accounts_total",
			Help: "Total number of cracked account creation attempts by result",
		}, []string{"result"}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dataloader_auth_completions_total",
			Help: "Total number of completed logins by result",
		}, []string{"result"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dataloader_auth_invariant_violations_total",
			Help: "Total number of storage invariant violations by operation",
		}, []string{"operation"}),
	}

	reg.MustRegister(m.resolutions, m.accounts, m.completions, m.violations)
	return m
}

func (m *Metrics) recordResolution(outcome Outcome, kind identity.Kind) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome.String(), kind.String()).Inc()
}

func (m *Metrics) recordCreation(result CreateResult) {
	if m == nil {
		return
	}
	m.accounts.WithLabelValues(result.String()).Inc()
}

func (m *Metrics) recordCompletion(result CompletionResult) {
	if m == nil {
		return
	}
	m.completions.WithLabelValues(result.String()).Inc()
}

func (m *Metrics) recordViolation(operation string) {
	if m == nil {
		return
	}
	m.violations.WithLabelValues(operation).Inc()
}
