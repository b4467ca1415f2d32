// Package metrics exposes Prometheus collectors for scoring and session
// activity.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ecoscore"

// Metrics groups the collectors recorded by the server.
type Metrics struct {
	evaluations      *prometheus.CounterVec
	evaluationErrors *prometheus.CounterVec
	challengePoints  prometheus.Counter
	tipsRequests     *prometheus.CounterVec
	sessionsCreated  prometheus.Counter
	sessionsEnded    prometheus.Counter
}

// MustNewMetrics registers the collectors on reg, or on the default
// registerer when reg is nil. A collector that is already registered is
// reused; any other registration error panics.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Completed score evaluations by tier.",
		}, []string{"tier"}),
		evaluationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluation_errors_total",
			Help:      "Rejected evaluations by reason.",
		}, []string{"reason"}),
		challengePoints: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenge_points_total",
			Help:      "Challenge points awarded across all sessions.",
		}),
		tipsRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tips_requests_total",
			Help:      "Tips requests by outcome: ok, cached or error.",
		}, []string{"status"}),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Sessions started.",
		}),
		sessionsEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Sessions deleted or evicted.",
		}),
	}

	m.evaluations = register(reg, m.evaluations)
	m.evaluationErrors = register(reg, m.evaluationErrors)
	m.challengePoints = register(reg, m.challengePoints)
	m.tipsRequests = register(reg, m.tipsRequests)
	m.sessionsCreated = register(reg, m.sessionsCreated)
	m.sessionsEnded = register(reg, m.sessionsEnded)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// ObserveEvaluation counts a completed evaluation.
func (m *Metrics) ObserveEvaluation(tier string) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(tier).Inc()
}

// ObserveEvaluationError counts a rejected evaluation.
func (m *Metrics) ObserveEvaluationError(reason string) {
	if m == nil {
		return
	}
	m.evaluationErrors.WithLabelValues(reason).Inc()
}

// ObserveChallengePoints adds awarded challenge points.
func (m *Metrics) ObserveChallengePoints(points int) {
	if m == nil || points <= 0 {
		return
	}
	m.challengePoints.Add(float64(points))
}

// ObserveTips counts a tips request. Status is "ok" for a provider answer,
// "cached" for a cache hit and "error" for a failure.
func (m *Metrics) ObserveTips(status string) {
	if m == nil {
		return
	}
	m.tipsRequests.WithLabelValues(status).Inc()
}

// SessionCreated counts a new session.
func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.sessionsCreated.Inc()
}

// SessionEnded counts a session that was deleted or evicted.
func (m *Metrics) SessionEnded() {
	if m == nil {
		return
	}
	m.sessionsEnded.Inc()
}
