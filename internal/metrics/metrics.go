// Package metrics provides Prometheus metrics for corpus-mcp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "corpusmcp"

var (
	// SessionsOpened counts sessions bound to a server instance.
	SessionsOpened = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_opened_total",
			Help:      "Total number of sessions opened",
		},
	)

	// SessionsActive tracks sessions currently serving a request.
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of sessions currently open",
		},
	)

	// ToolCalls counts tool invocations by tool and outcome.
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Total number of tool calls",
		},
		[]string{"tool", "outcome"},
	)

	// WidgetResolutions counts widget resolution outcomes.
	WidgetResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "widget_resolutions_total",
			Help:      "Widget resolution attempts by widget and final state",
		},
		[]string{"widget", "state"},
	)

	// BootstrapFailures counts failed corpus/widget initializations.
	BootstrapFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bootstrap_failures_total",
			Help:      "Total number of failed bootstraps",
		},
	)
)

// RecordToolCall records one tool invocation.
func RecordToolCall(tool, outcome string) {
	ToolCalls.WithLabelValues(tool, outcome).Inc()
}

// RecordWidget records the terminal state reached by a widget.
func RecordWidget(widget, state string) {
	WidgetResolutions.WithLabelValues(widget, state).Inc()
}

// SessionOpened marks a session as opened and active.
func SessionOpened() {
	SessionsOpened.Inc()
	SessionsActive.Inc()
}

// SessionClosed marks a session as no longer active.
func SessionClosed() {
	SessionsActive.Dec()
}
