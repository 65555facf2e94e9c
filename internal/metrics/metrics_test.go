package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second Register() error = %v, want nil", err)
	}

	DataLoadsTotal.WithLabelValues(LayerBase).Inc()
	RegionsBuiltTotal.Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, want := range []string{"georegion_data_loads_total", "georegion_regions_built_total", "georegion_load_duration_ms"} {
		if !names[want] {
			t.Errorf("gathered metrics missing %s", want)
		}
	}
}
