package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_IncrementCounter(t *testing.T) {
	registry := NewRegistry()

	registry.IncrementCounter("messages_total", nil, "messages seen")
	registry.IncrementCounter("messages_total", nil, "messages seen")
	registry.IncrementCounter("messages_total", nil, "messages seen")

	metrics := registry.GetAllMetrics()
	counters := metrics["counters"].(map[string]*Metric)
	require.Contains(t, counters, "messages_total")
	assert.Equal(t, 3.0, counters["messages_total"].Value)
	assert.Equal(t, Counter, counters["messages_total"].Type)
}

func TestRegistry_AddToCounter(t *testing.T) {
	registry := NewRegistry()

	registry.AddToCounter("bytes_total", 100, nil, "")
	registry.AddToCounter("bytes_total", 50, nil, "")

	counters := registry.GetAllMetrics()["counters"].(map[string]*Metric)
	assert.Equal(t, 150.0, counters["bytes_total"].Value)
}

func TestRegistry_CounterLabels(t *testing.T) {
	registry := NewRegistry()

	registry.IncrementCounter("failures_total", map[string]string{"outcome": "transient"}, "")
	registry.IncrementCounter("failures_total", map[string]string{"outcome": "permanent"}, "")
	registry.IncrementCounter("failures_total", map[string]string{"outcome": "transient"}, "")

	counters := registry.GetAllMetrics()["counters"].(map[string]*Metric)
	require.Contains(t, counters, "failures_total_outcome:transient")
	require.Contains(t, counters, "failures_total_outcome:permanent")
	assert.Equal(t, 2.0, counters["failures_total_outcome:transient"].Value)
	assert.Equal(t, 1.0, counters["failures_total_outcome:permanent"].Value)
}

func TestRegistry_SetGauge(t *testing.T) {
	registry := NewRegistry()

	registry.SetGauge("ledger_size", 42, nil, "active entries")
	registry.SetGauge("ledger_size", 17, nil, "active entries")

	gauges := registry.GetAllMetrics()["gauges"].(map[string]*Metric)
	require.Contains(t, gauges, "ledger_size")
	assert.Equal(t, 17.0, gauges["ledger_size"].Value, "gauge keeps only the latest value")
	assert.Equal(t, Gauge, gauges["ledger_size"].Type)
}

func TestMetricKey_StableLabelOrder(t *testing.T) {
	a := metricKey("m", map[string]string{"a": "1", "b": "2"})
	b := metricKey("m", map[string]string{"b": "2", "a": "1"})
	assert.Equal(t, a, b)
	assert.Equal(t, "m", metricKey("m", nil))
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			registry.IncrementCounter("concurrent_total", nil, "")
			registry.SetGauge("concurrent_gauge", 1, nil, "")
			_ = registry.GetAllMetrics()
		}()
	}
	wg.Wait()

	counters := registry.GetAllMetrics()["counters"].(map[string]*Metric)
	assert.Equal(t, 50.0, counters["concurrent_total"].Value)
}

func TestGlobalRegistry(t *testing.T) {
	IncrementCounter("global_test_total", nil, "")
	metrics := GetAllMetrics()
	counters := metrics["counters"].(map[string]*Metric)
	assert.Contains(t, counters, "global_test_total")
	assert.NotNil(t, GetRegistry())
}
