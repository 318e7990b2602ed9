package metrics

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickforge/jobpool/core"
)

// gaugeValue collects the named gauge from c and returns its value.
func gaugeValue(t *testing.T, c prometheus.Collector, name string) float64 {
	t.Helper()

	ch := make(chan prometheus.Metric, 16)
	c.Collect(ch)
	close(ch)

	for m := range ch {
		if !strings.Contains(m.Desc().String(), `fqName: "`+name+`"`) {
			continue
		}
		var pb dto.Metric
		require.NoError(t, m.Write(&pb))
		return pb.GetGauge().GetValue()
	}
	t.Fatalf("metric %s not collected", name)
	return 0
}

func TestCollector_Gauges(t *testing.T) {
	p := core.New(core.WithWorkers(2))
	require.NoError(t, p.Start(context.Background()))
	defer p.Shutdown(2 * time.Second)

	c := NewCollector(p)

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	assert.Equal(t, 4, testutil.CollectAndCount(c))
	assert.Equal(t, float64(2), gaugeValue(t, c, "jobpool_workers"))
	assert.Equal(t, float64(0), gaugeValue(t, c, "jobpool_queued_jobs"))
}

func TestRecorder_CountsOutcomes(t *testing.T) {
	r := NewRecorder()

	r.Observe(core.JobEvent{Mode: core.ModeSync, Outcome: core.OutcomeCompleted, Duration: time.Millisecond})
	r.Observe(core.JobEvent{Mode: core.ModeSync, Outcome: core.OutcomeCompleted, Duration: time.Millisecond})
	r.Observe(core.JobEvent{Mode: core.ModeSyncStream, Outcome: core.OutcomeFailed, Duration: time.Millisecond})

	assert.Equal(t, float64(2), testutil.ToFloat64(r.jobs.WithLabelValues("sync", "completed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.jobs.WithLabelValues("sync-stream", "failed")))
	assert.Equal(t, float64(0), testutil.ToFloat64(r.jobs.WithLabelValues("async", "cancelled")),
		"label combinations are pre-initialized to zero")
}

func TestRecorder_RegistersCleanly(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewRecorder()))
}

func TestRecorder_ObservesFromPool(t *testing.T) {
	r := NewRecorder()
	p := core.New(core.WithWorkers(1), core.WithObserver(r.Observe))
	require.NoError(t, p.Start(context.Background()))
	defer p.Shutdown(2 * time.Second)

	_, err := core.Submit(p,
		func(ctx context.Context) (int, error) { return 1, nil },
		nil, nil,
	)
	require.NoError(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if testutil.ToFloat64(r.jobs.WithLabelValues("sync", "completed")) == 1 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("completed counter never incremented")
}
