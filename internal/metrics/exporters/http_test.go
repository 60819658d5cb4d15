package exporters

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smazurov/statusled/internal/metrics"
)

func TestHTTPHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	handler := HTTPHandler(reg)
	if handler == nil {
		t.Fatal("expected non-nil handler")
	}

	recorder := metrics.NewIndicatorRecorder(reg)
	recorder.LineChanged(true)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	if !strings.Contains(body, "statusled_indicator_line_transitions_total") {
		t.Error("expected indicator metrics in response")
	}
}
