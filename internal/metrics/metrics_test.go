package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Instrument)
	r.Get("/events/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/events/"+id, nil))
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/events/{id}", "418"))
	assert.Equal(t, 2.0, got)
}

func TestBookingAttemptsExposed(t *testing.T) {
	m := New()
	m.BookingAttempt(OutcomeConfirmed)
	m.BookingAttempt(OutcomeSoldOut)
	m.BookingAttempt(OutcomeSoldOut)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookingAttempts.WithLabelValues(OutcomeSoldOut)))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `eventix_booking_attempts_total{outcome="sold_out"} 2`)
}
