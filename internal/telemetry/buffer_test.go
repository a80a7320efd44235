package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingBuffer_AddAndItems(t *testing.T) {
	// Given: a buffer of capacity 3
	buf := NewRingBuffer[int](3)

	// When: adding fewer items than capacity
	buf.Add(1)
	buf.Add(2)

	// Then: items come back oldest first
	assert.Equal(t, []int{1, 2}, buf.Items())
	assert.Equal(t, 2, buf.Size())
}

func TestRingBuffer_EvictsOldest(t *testing.T) {
	buf := NewRingBuffer[string](3)
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		buf.Add(s)
	}

	assert.Equal(t, []string{"c", "d", "e"}, buf.Items())
	assert.Equal(t, 3, buf.Size())
}

func TestRingBuffer_Clear(t *testing.T) {
	buf := NewRingBuffer[int](2)
	buf.Add(1)
	buf.Clear()

	assert.Equal(t, 0, buf.Size())
	assert.Empty(t, buf.Items())

	// And: the buffer is reusable after clearing
	buf.Add(7)
	assert.Equal(t, []int{7}, buf.Items())
}

func TestRingBuffer_DefaultCapacity(t *testing.T) {
	buf := NewRingBuffer[int](0)
	for i := 0; i < 15; i++ {
		buf.Add(i)
	}
	assert.Equal(t, 10, buf.Size())
}

func TestNewMetrics_CountersRegisterAndCount(t *testing.T) {
	// Given: collectors on a private registry
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	// When: recording activity
	m.ReferencesIndexed.Inc()
	m.ReferencesIndexed.Inc()
	m.ReferencesFailed.Inc()
	m.ObserveQuery(2 * time.Millisecond)

	// Then: counters reflect it
	require.Equal(t, 2.0, testutil.ToFloat64(m.ReferencesIndexed))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ReferencesFailed))
	require.Equal(t, 0.0, testutil.ToFloat64(m.ReferencesExisted))
}

func TestMetrics_NilObserveIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveQuery(time.Millisecond) })
}
