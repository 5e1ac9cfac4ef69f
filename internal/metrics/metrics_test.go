package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorders(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.QueryCompleted("ok")
	m.QueryCompleted("ok")
	m.QueryCompleted("disabled")
	m.IconFallback("placeholder")
	m.EventDispatched("updated", 3)
	m.EventDispatched("error", 2)
	m.SubscriptionChanged(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("disabled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IconFallbacksTotal.WithLabelValues("placeholder")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("updated")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.ListenersNotified))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubscriptionActive))

	m.SubscriptionChanged(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SubscriptionActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubscriptionChanges.WithLabelValues("false")))
}

func TestRegisterTwicePanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
