package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCheck(t *testing.T) {
	before := testutil.ToFloat64(checksTotal.WithLabelValues("industrial", "failed"))
	RecordCheck("industrial", "failed", 70, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(checksTotal.WithLabelValues("industrial", "failed")))
}

func TestRecordExport(t *testing.T) {
	okBefore := testutil.ToFloat64(reportExportsTotal.WithLabelValues("pdf", "success"))
	errBefore := testutil.ToFloat64(reportExportsTotal.WithLabelValues("pdf", "error"))

	RecordExport("pdf", nil)
	RecordExport("pdf", errors.New("disk full"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(reportExportsTotal.WithLabelValues("pdf", "success")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(reportExportsTotal.WithLabelValues("pdf", "error")))
}

func TestRecordViolationAndResolved(t *testing.T) {
	before := testutil.ToFloat64(violationsTotal.WithLabelValues("critical", SourceManual))
	resolvedBefore := testutil.ToFloat64(violationsResolvedTotal)

	RecordViolation("critical", SourceManual)
	RecordResolved()

	assert.Equal(t, before+1, testutil.ToFloat64(violationsTotal.WithLabelValues("critical", SourceManual)))
	assert.Equal(t, resolvedBefore+1, testutil.ToFloat64(violationsResolvedTotal))
}

func TestHandler(t *testing.T) {
	RecordReport()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "daritana_compliance_reports_generated_total"))
}
