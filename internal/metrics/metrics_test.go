package metrics

import (
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"

	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/store"
)

type fixedItems []model.Item

func (f fixedItems) Version() uint64     { return 1 }
func (f fixedItems) Items() []model.Item { return f }

func gather(t *testing.T, m *Metrics) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func labelValue(metric *dto.Metric, name string) string {
	for _, l := range metric.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

func TestInventoryCollector(t *testing.T) {
	items := fixedItems{
		{ID: "a", Category: model.CategoryComputer, Status: model.StatusRecycled, Classification: model.Classification{Type: model.Recyclable}},
		{ID: "b", Category: model.CategoryComputer, Status: model.StatusReported, Classification: model.Classification{Type: model.Reusable}},
		{ID: "c", Category: model.CategoryBattery, Status: model.StatusReported, Classification: model.Classification{Type: model.Hazardous}},
	}
	m := New(items)
	families := gather(t, m)

	byStatus := families["ewaste_items"]
	if byStatus == nil {
		t.Fatal("ewaste_items not exported")
	}
	if len(byStatus.GetMetric()) != len(model.Statuses()) {
		t.Errorf("expected one series per status, got %d", len(byStatus.GetMetric()))
	}
	for _, metric := range byStatus.GetMetric() {
		want := 0.0
		switch labelValue(metric, "status") {
		case "Reported":
			want = 2
		case "Recycled":
			want = 1
		}
		if got := metric.GetGauge().GetValue(); got != want {
			t.Errorf("status %s: got %v, want %v", labelValue(metric, "status"), got, want)
		}
	}

	impact := families["ewaste_impact_kg_co2"]
	if impact == nil {
		t.Fatal("ewaste_impact_kg_co2 not exported")
	}
	for _, metric := range impact.GetMetric() {
		if labelValue(metric, "kind") == "avoided" && math.Abs(metric.GetGauge().GetValue()-7*1.8) > 1e-9 {
			t.Errorf("unexpected avoided impact %v", metric.GetGauge().GetValue())
		}
	}
}

func TestOnChangeCountsMutations(t *testing.T) {
	m := New(nil)
	m.OnChange(store.Change{Op: store.OpAddItem})
	m.OnChange(store.Change{Op: store.OpAddItem})
	m.OnChange(store.Change{Op: store.OpDispose})

	f := gather(t, m)["ewaste_store_mutations_total"]
	if f == nil {
		t.Fatal("mutation counter not exported")
	}
	for _, metric := range f.GetMetric() {
		op := labelValue(metric, "op")
		got := metric.GetCounter().GetValue()
		if (op == store.OpAddItem && got != 2) || (op == store.OpDispose && got != 1) {
			t.Errorf("op %s: got %v", op, got)
		}
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New(nil)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/items", nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	if !strings.Contains(string(body), `ewaste_http_requests_total{code="418",method="GET"} 1`) {
		t.Errorf("request counter missing from exposition:\n%s", body)
	}
}
