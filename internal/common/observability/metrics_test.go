package observability

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservability_RecordsSubmissions(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := New("admission-intake-test", reg)
	defer obs.Shutdown()

	ctx := context.Background()
	obs.RecordSubmission(ctx, "success")
	obs.RecordSubmission(ctx, "success")
	obs.RecordSubmission(ctx, "error")
	obs.RecordSubmissionDuration(ctx, 15*time.Millisecond, "success")

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := map[string]*dto.MetricFamily{}
	for _, mf := range families {
		assert.NotContains(t, mf.GetName(), ".")
		byName[mf.GetName()] = mf
	}

	processed, ok := byName["submissions_processed_total"]
	require.True(t, ok, "exported families: %v", keys(byName))
	var total float64
	for _, m := range processed.GetMetric() {
		total += m.GetCounter().GetValue()
	}
	assert.Equal(t, 3.0, total)

	duration, ok := byName["submissions_duration_milliseconds"]
	require.True(t, ok, "exported families: %v", keys(byName))
	require.Len(t, duration.GetMetric(), 1)
	assert.Equal(t, uint64(1), duration.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestObservability_NilSafe(t *testing.T) {
	var obs *Observability
	assert.NotPanics(t, func() {
		obs.RecordSubmission(context.Background(), "success")
		obs.RecordSubmissionDuration(context.Background(), time.Second, "success")
		obs.Shutdown()
	})
}

func keys(m map[string]*dto.MetricFamily) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
