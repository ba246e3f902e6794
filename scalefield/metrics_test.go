package scalefield_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/scalefield/scalefield/scalefield"
)

func TestMetricsRecordEmit(t *testing.T) {
	m := scalefield.NewMetrics(prometheus.NewRegistry())

	m.RecordEmit("price", scalefield.OutcomeEncoded)
	m.RecordEmit("price", scalefield.OutcomeEncoded)
	m.RecordEmit("price", scalefield.OutcomeIgnored)

	encoded := testutil.ToFloat64(m.EmitTotal.WithLabelValues("price", string(scalefield.OutcomeEncoded)))
	if encoded != 2 {
		t.Fatalf("encoded emits = %v, want 2", encoded)
	}
	ignored := testutil.ToFloat64(m.EmitTotal.WithLabelValues("price", string(scalefield.OutcomeIgnored)))
	if ignored != 1 {
		t.Fatalf("ignored emits = %v, want 1", ignored)
	}
}

func TestMetricsRecordPut(t *testing.T) {
	m := scalefield.NewMetrics(prometheus.NewRegistry())

	m.RecordPut("ok", 5*time.Millisecond)
	m.RecordPut("ok", 2*time.Millisecond)
	m.RecordPut("error", 0)

	if got := testutil.ToFloat64(m.PutsTotal.WithLabelValues("ok")); got != 2 {
		t.Fatalf("ok puts = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.PutsTotal.WithLabelValues("error")); got != 1 {
		t.Fatalf("error puts = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.PutDuration); got != 1 {
		t.Fatalf("histogram series = %d, want 1", got)
	}
}

func TestMetricsRecordQueries(t *testing.T) {
	m := scalefield.NewMetrics(prometheus.NewRegistry())

	m.RecordRange()
	m.RecordRange()
	m.RecordStats()

	if got := testutil.ToFloat64(m.RangesTotal); got != 2 {
		t.Fatalf("range queries = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.StatsTotal); got != 1 {
		t.Fatalf("stats queries = %v, want 1", got)
	}
}

// All record methods must be no-ops on a nil receiver so instrumentation
// stays optional.
func TestMetricsNilReceiver(t *testing.T) {
	var m *scalefield.Metrics
	m.RecordEmit("f", scalefield.OutcomeEncoded)
	m.RecordPut("ok", time.Millisecond)
	m.RecordRange()
	m.RecordStats()
}
