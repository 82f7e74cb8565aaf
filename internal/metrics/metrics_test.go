package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		IncHTTP("/api/v1/services", "200")
		IncGRPC("/homebooking.catalog.v1.CatalogService/GetService", "OK")
		IncSubmissionCancelled()
		IncLogin("ok")
		AddSubscriber("bookings", 1)
		AddSubscriber("bookings", -1)
		IncSheetsTask("upsert", "ok")
	})
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(bookingsCreated)
	IncBookingCreated()
	assert.Equal(t, before+1, testutil.ToFloat64(bookingsCreated))

	IncStatusTransition("confirmed", "ok")
	assert.GreaterOrEqual(t, testutil.ToFloat64(statusTransitions.WithLabelValues("confirmed", "ok")), 1.0)
}
