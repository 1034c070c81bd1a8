package middleware

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/treepatch/internal/errors"
	"github.com/vango-dev/treepatch/pkg/applier"
	"github.com/vango-dev/treepatch/pkg/dom"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func newInstrumented(t *testing.T) (*InstrumentedApplier, *dom.Element) {
	t.Helper()
	root := dom.NewElement("ul")
	return Instrument(applier.New(root), WithRegistry(prometheus.NewRegistry())), root
}

func TestInstrument_RecordsSuccessAndError(t *testing.T) {
	ia, root := newInstrumented(t)
	m := ia.metrics

	for i := 0; i < 3; i++ {
		if err := ia.InsertBottomUp(i, dom.NewElement("li")); err != nil {
			t.Fatalf("InsertBottomUp(%d) error = %v", i, err)
		}
	}
	if err := ia.Remove(5, 1); !errors.IsBounds(err) {
		t.Fatalf("Remove(5, 1) error = %v, want bounds", err)
	}

	if got := metricCounterValue(t, m.opsTotal.WithLabelValues(applier.OpInsertBottomUp, "ok")); got != 3 {
		t.Errorf("ops_total(insertBottomUp, ok) = %v, want 3", got)
	}
	if got := metricCounterValue(t, m.opsTotal.WithLabelValues(applier.OpRemove, "error")); got != 1 {
		t.Errorf("ops_total(remove, error) = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.opErrors.WithLabelValues(applier.OpRemove, errors.CodeBounds)); got != 1 {
		t.Errorf("op_errors_total(remove, E100) = %v, want 1", got)
	}
	if got := metricHistogramCount(t, m.opDuration.WithLabelValues(applier.OpInsertBottomUp)); got != 3 {
		t.Errorf("op_duration_seconds(insertBottomUp) count = %d, want 3", got)
	}
	if root.ChildCount() != 3 {
		t.Errorf("ChildCount() = %d, want 3", root.ChildCount())
	}
}

func TestInstrument_NodeCounters(t *testing.T) {
	ia, _ := newInstrumented(t)
	m := ia.metrics

	for i := 0; i < 5; i++ {
		if err := ia.InsertBottomUp(i, dom.NewText("x")); err != nil {
			t.Fatal(err)
		}
	}
	if err := ia.Move(0, 4, 2); err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if err := ia.Move(1, 1, 3); err != nil {
		t.Fatalf("Move() no-op error = %v", err)
	}
	if err := ia.Remove(0, 2); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := ia.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	if got := metricCounterValue(t, m.nodesMoved); got != 2 {
		t.Errorf("nodes_moved_total = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.nodesRemoved); got != 5 {
		t.Errorf("nodes_removed_total = %v, want 5 (remove 2 + clear 3)", got)
	}
}

func TestInstrument_CursorDepth(t *testing.T) {
	ia, root := newInstrumented(t)
	m := ia.metrics

	li := dom.NewElement("li")
	if err := ia.InsertBottomUp(0, li); err != nil {
		t.Fatal(err)
	}
	if err := ia.Down(li); err != nil {
		t.Fatalf("Down() error = %v", err)
	}
	if got := metricGaugeValue(t, m.cursorDepth); got != 1 {
		t.Errorf("cursor_depth = %v, want 1", got)
	}
	if ia.Current() != dom.Node(li) || ia.Depth() != 1 {
		t.Errorf("Current()/Depth() not forwarded")
	}
	if err := ia.Up(); err != nil {
		t.Fatalf("Up() error = %v", err)
	}
	if got := metricGaugeValue(t, m.cursorDepth); got != 0 {
		t.Errorf("cursor_depth = %v, want 0", got)
	}
	if ia.Current() != dom.Node(root) {
		t.Error("Current() should be root after Up")
	}
}

func TestInstrument_SharesCollectorsPerRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := Instrument(applier.New(dom.NewElement("div")), WithRegistry(reg))
	b := Instrument(applier.New(dom.NewElement("div")), WithRegistry(reg))
	if a.metrics != b.metrics {
		t.Fatal("appliers on one registry should share collectors")
	}

	if err := a.Clear(); err != nil {
		t.Fatal(err)
	}
	if err := b.Clear(); err != nil {
		t.Fatal(err)
	}
	if got := metricCounterValue(t, a.metrics.opsTotal.WithLabelValues(applier.OpClear, "ok")); got != 2 {
		t.Errorf("ops_total(clear, ok) = %v, want 2", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "treepatch_ops_total" {
			found = true
		}
	}
	if !found {
		t.Error("treepatch_ops_total not registered")
	}
}
