package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegistry(t *testing.T) {
	if Registry == nil {
		t.Fatal("Registry should not be nil")
	}
	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
}

// The stage packages register through promauto, which targets the default
// registerer. Registry has to accept collectors the same way.
func TestRegistry_AcceptsCollectors(t *testing.T) {
	probe := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "etl_registry_probe_total",
		Help: "Probe counter for registry wiring",
	})
	if err := Registry.Register(probe); err != nil {
		t.Fatalf("Registering a collector: %v", err)
	}
	if !Registry.Unregister(probe) {
		t.Error("Expected collector to be registered and removable")
	}
}
