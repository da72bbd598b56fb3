// Copyright (C) 2026 MOOSE Neuro (ashish@ncbs.res.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the simulation server.
//
// Metrics cover process lifecycle (launches, terminations, active count),
// the data relay (publishes, deliveries), and output streaming volume.
// They are exposed on /metrics; use with Prometheus + Grafana.
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "jardesigner"

const simulationSubsystem = "simulation"

// SimMetrics holds all Prometheus metrics for simulation orchestration.
// The promauto registration against the default registry happens exactly
// once, no matter how many callers race into InitMetrics or Metrics.
type SimMetrics struct {
	// LaunchesTotal counts launch attempts.
	// Labels: status (success, error)
	LaunchesTotal *prometheus.CounterVec

	// ActiveSimulations tracks currently registered processes.
	ActiveSimulations prometheus.Gauge

	// TerminationsTotal counts terminations by outcome.
	// Labels: outcome (graceful, killed, already_exited, not_found)
	TerminationsTotal *prometheus.CounterVec

	// RelayPublishesTotal counts relay publishes.
	// Labels: delivered (yes, dropped)
	RelayPublishesTotal *prometheus.CounterVec

	// StreamLinesTotal counts process output lines drained.
	// Labels: stream (stdout, stderr)
	StreamLinesTotal *prometheus.CounterVec

	// CommandsTotal counts interactive commands relayed to children.
	// Labels: status (sent, dropped)
	CommandsTotal *prometheus.CounterVec

	// SessionCleanupsTotal counts disconnect-driven session cleanups.
	SessionCleanupsTotal prometheus.Counter
}

// DefaultMetrics is the singleton instance initialized by InitMetrics.
var (
	DefaultMetrics *SimMetrics
	initOnce       sync.Once
)

// InitMetrics creates and registers all simulation metrics against the
// default Prometheus registry. Safe to call more than once; only the
// first call registers.
func InitMetrics() *SimMetrics {
	initOnce.Do(func() {
		DefaultMetrics = newSimMetrics()
	})
	return DefaultMetrics
}

// Metrics returns the singleton, initializing it on first use. Handy for
// tests that exercise packages recording metrics without a main.
func Metrics() *SimMetrics {
	return InitMetrics()
}

func newSimMetrics() *SimMetrics {
	return &SimMetrics{
		LaunchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: simulationSubsystem,
			Name:      "launches_total",
			Help:      "Total simulation launch attempts by status.",
		}, []string{"status"}),

		ActiveSimulations: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: simulationSubsystem,
			Name:      "active",
			Help:      "Number of currently registered simulation processes.",
		}),

		TerminationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: simulationSubsystem,
			Name:      "terminations_total",
			Help:      "Total terminations by outcome.",
		}, []string{"outcome"}),

		RelayPublishesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "relay",
			Name:      "publishes_total",
			Help:      "Total relay publishes, split by whether anyone was subscribed.",
		}, []string{"delivered"}),

		StreamLinesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: simulationSubsystem,
			Name:      "stream_lines_total",
			Help:      "Total output lines drained from child processes.",
		}, []string{"stream"}),

		CommandsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: simulationSubsystem,
			Name:      "commands_total",
			Help:      "Interactive commands relayed to child stdin by status.",
		}, []string{"status"}),

		SessionCleanupsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "sessions",
			Name:      "cleanups_total",
			Help:      "Disconnect-driven session directory cleanups.",
		}),
	}
}
