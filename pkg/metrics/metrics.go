// Package metrics holds the Prometheus collectors for the orchestration
// pipeline. Collectors register with the default registry and are exposed on
// /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the collector set, created once at startup.
type Metrics struct {
	// TurnCounter counts orchestrated turns.
	// Labels: query_type, status (success|error|timeout)
	TurnCounter *prometheus.CounterVec

	// TurnDuration measures whole-turn latency in seconds.
	TurnDuration prometheus.Histogram

	// AgentRunCounter counts agent executions.
	// Labels: agent, status (success|failure kind)
	AgentRunCounter *prometheus.CounterVec

	// AgentRunDuration measures per-agent turn latency in seconds.
	// Labels: agent
	AgentRunDuration *prometheus.HistogramVec

	// ToolDispatchCounter counts tool dispatches.
	// Labels: tool, status (success|failure kind)
	ToolDispatchCounter *prometheus.CounterVec

	// LLMCallCounter counts model calls.
	// Labels: status (success|error)
	LLMCallCounter *prometheus.CounterVec

	// LLMTokens tracks advisory token usage from the model.
	// Labels: type (prompt|completion)
	LLMTokens *prometheus.CounterVec
}

// New creates and registers all collectors with the default registry. Call
// once per process.
func New() *Metrics {
	return &Metrics{
		TurnCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lexmind_turns_total",
				Help: "Orchestrated turns by query type and outcome.",
			},
			[]string{"query_type", "status"},
		),
		TurnDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lexmind_turn_duration_seconds",
				Help:    "Whole-turn latency.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 90},
			},
		),
		AgentRunCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lexmind_agent_runs_total",
				Help: "Agent executions by agent and outcome.",
			},
			[]string{"agent", "status"},
		),
		AgentRunDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lexmind_agent_run_duration_seconds",
				Help:    "Per-agent turn latency.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"agent"},
		),
		ToolDispatchCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lexmind_tool_dispatches_total",
				Help: "Tool dispatches by tool and outcome.",
			},
			[]string{"tool", "status"},
		),
		LLMCallCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lexmind_llm_calls_total",
				Help: "Model calls by outcome.",
			},
			[]string{"status"},
		),
		LLMTokens: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lexmind_llm_tokens_total",
				Help: "Advisory token usage reported by the model.",
			},
			[]string{"type"},
		),
	}
}

// ObserveAgentRun records one agent execution.
func (m *Metrics) ObserveAgentRun(agent, status string, seconds float64) {
	if m == nil {
		return
	}
	m.AgentRunCounter.WithLabelValues(agent, status).Inc()
	m.AgentRunDuration.WithLabelValues(agent).Observe(seconds)
}

// ObserveTurn records one orchestrated turn.
func (m *Metrics) ObserveTurn(queryType, status string, seconds float64) {
	if m == nil {
		return
	}
	m.TurnCounter.WithLabelValues(queryType, status).Inc()
	m.TurnDuration.Observe(seconds)
}
