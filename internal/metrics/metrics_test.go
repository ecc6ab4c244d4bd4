package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barbercal/internal/model"
	"barbercal/internal/parser"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeOK, Outcome(nil))
	assert.Equal(t, OutcomeEmpty, Outcome(parser.ErrEmptyInput))
	assert.Equal(t, OutcomeNone, Outcome(parser.ErrNoRecords))
	assert.Equal(t, OutcomeFailure, Outcome(&parser.FailureError{Err: errors.New("boom")}))
}

func TestObserveParse(t *testing.T) {
	c := New()

	appts := []model.Appointment{{Format: model.Format1}, {Format: model.Format2}, {Format: model.Format2}}
	c.ObserveParse(appts, nil, 5*time.Millisecond)
	c.ObserveParse(nil, parser.ErrNoRecords, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.parseTotal.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.parseTotal.WithLabelValues(OutcomeNone)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.appointmentsTotal.WithLabelValues("Format 1")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.appointmentsTotal.WithLabelValues("Format 2")))
	assert.Greater(t, testutil.ToFloat64(c.lastSuccessTS), 0.0)
}

func TestObserveExport(t *testing.T) {
	c := New()
	c.ObserveExport("file", 2)
	c.ObserveExport("file", 1)
	assert.Equal(t, 3.0, testutil.ToFloat64(c.exportsTotal.WithLabelValues("file")))
}

func TestHandler(t *testing.T) {
	c := New()
	c.ObserveParse([]model.Appointment{{Format: model.Format1}}, nil, time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `barbercal_parse_total{outcome="ok"} 1`)
	assert.Contains(t, rec.Body.String(), `barbercal_appointments_total{format="Format 1"} 1`)
}

func TestNew_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
