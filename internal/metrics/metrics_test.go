package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := MustNewMetrics(reg)

	m.ObserveEvaluation("good")
	m.ObserveEvaluation("good")
	m.ObserveEvaluationError("unknown_category_value")
	m.ObserveChallengePoints(2)
	m.ObserveChallengePoints(3)
	m.ObserveChallengePoints(0)
	m.ObserveTips("ok")
	m.SessionCreated()
	m.SessionEnded()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.evaluations.WithLabelValues("good")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.evaluationErrors.WithLabelValues("unknown_category_value")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.challengePoints))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tipsRequests.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsEnded))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["ecoscore_evaluations_total"])
	assert.True(t, names["ecoscore_challenge_points_total"])
}

func TestMustNewMetricsReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := MustNewMetrics(reg)
	second := MustNewMetrics(reg)

	first.SessionCreated()
	second.SessionCreated()
	assert.Equal(t, 2.0, testutil.ToFloat64(first.sessionsCreated))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveEvaluation("good")
		m.ObserveEvaluationError("x")
		m.ObserveChallengePoints(1)
		m.ObserveTips("ok")
		m.SessionCreated()
		m.SessionEnded()
	})
}
