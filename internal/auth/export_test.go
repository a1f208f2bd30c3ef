// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SolarMC Contributors

package auth

import "github.com/prometheus/client_golang/prometheus"

func (m *Metrics) Resolutions() *prometheus.CounterVec { return m.resolutions }
func (m *Metrics) Accounts() *prometheus.CounterVec    { return m.accounts }
func (m *Metrics) Completions() *prometheus.CounterVec { return m.completions }
func (m *Metrics) Violations() *prometheus.CounterVec  { return m.violations }
