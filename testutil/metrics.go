/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertSamplesCountInHistogram asserts that passed histogram (or a histogram vector with a single series)
// contains the specified number of samples.
func AssertSamplesCountInHistogram(t assert.TestingT, hist prometheus.Collector, wantSamplesCount int) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	metrics, ok := gatherSingleSeries(t, hist)
	if !ok {
		return false
	}
	if !assert.NotNil(t, metrics.GetHistogram(), "collector is not a histogram") {
		return false
	}
	return assert.Equal(t, wantSamplesCount, int(metrics.GetHistogram().GetSampleCount()))
}

// RequireSamplesCountInHistogram calls AssertSamplesCountInHistogram and fail test immediately in case of error.
func RequireSamplesCountInHistogram(t require.TestingT, hist prometheus.Collector, wantSamplesCount int) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if AssertSamplesCountInHistogram(t, hist, wantSamplesCount) {
		return
	}
	t.FailNow()
}

// AssertSamplesCountInCounter asserts that passed counter (or a counter vector with a single series) has proper value.
func AssertSamplesCountInCounter(t assert.TestingT, counter prometheus.Collector, wantCount int) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	metrics, ok := gatherSingleSeries(t, counter)
	if !ok {
		return false
	}
	if !assert.NotNil(t, metrics.GetCounter(), "collector is not a counter") {
		return false
	}
	return assert.Equal(t, wantCount, int(metrics.GetCounter().GetValue()))
}

// RequireSamplesCountInCounter calls AssertSamplesCountInCounter and fail test immediately in case of error.
func RequireSamplesCountInCounter(t require.TestingT, counter prometheus.Collector, wantCount int) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if AssertSamplesCountInCounter(t, counter, wantCount) {
		return
	}
	t.FailNow()
}

// AssertGaugeValue asserts that passed gauge (or a gauge vector with a single series) has proper value.
func AssertGaugeValue(t assert.TestingT, gauge prometheus.Collector, want float64) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	metrics, ok := gatherSingleSeries(t, gauge)
	if !ok {
		return false
	}
	if !assert.NotNil(t, metrics.GetGauge(), "collector is not a gauge") {
		return false
	}
	return assert.Equal(t, want, metrics.GetGauge().GetValue())
}

// RequireGaugeValue calls AssertGaugeValue and fail test immediately in case of error.
func RequireGaugeValue(t require.TestingT, gauge prometheus.Collector, want float64) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if AssertGaugeValue(t, gauge, want) {
		return
	}
	t.FailNow()
}

// gatherSingleSeries registers c in a new registry and returns its only series.
func gatherSingleSeries(t assert.TestingT, c prometheus.Collector) (*dto.Metric, bool) {
	reg := prometheus.NewPedanticRegistry()
	if !assert.NoError(t, reg.Register(c)) {
		return nil, false
	}
	gotMetrics, err := reg.Gather()
	if !assert.NoError(t, err) {
		return nil, false
	}
	if !assert.Equal(t, 1, len(gotMetrics)) || !assert.Equal(t, 1, len(gotMetrics[0].GetMetric())) {
		return nil, false
	}
	return gotMetrics[0].GetMetric()[0], true
}
