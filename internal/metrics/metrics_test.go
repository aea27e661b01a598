package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CollectorがMetricsCollectorインターフェースを満たすことを保証する。
var _ MetricsCollector = NewCollector(prometheus.NewRegistry())

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) (float64, bool) {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() == name {
			total := 0.0
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
			return total, true
		}
	}
	return 0, false
}

// TestRecordIdentityResolved_IncrementsCounter はID解決カウンタがソース別に増加することを検証する。
func TestRecordIdentityResolved_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordIdentityResolved("user")
	c.RecordIdentityResolved("user")
	c.RecordIdentityResolved("job_seeker")

	val, found := counterValue(t, reg, "careerlink_identity_resolved_total")
	if !found {
		t.Fatal("careerlink_identity_resolved_total metric not found")
	}
	if val != 3 {
		t.Errorf("identity_resolved_total = %v, want 3", val)
	}
}

// TestRecordIdentityCreated_IncrementsCounter は遅延作成カウンタが増加することを検証する。
func TestRecordIdentityCreated_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordIdentityCreated()

	val, found := counterValue(t, reg, "careerlink_identity_created_total")
	if !found {
		t.Fatal("careerlink_identity_created_total metric not found")
	}
	if val != 1 {
		t.Errorf("identity_created_total = %v, want 1", val)
	}
}

// TestRecordConnectionTransition_LabelsByStatus は状態遷移カウンタが遷移先別に増加することを検証する。
func TestRecordConnectionTransition_LabelsByStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordConnectionTransition("accepted")
	c.RecordConnectionTransition("declined")
	c.RecordConnectionTransition("accepted")

	val, found := counterValue(t, reg, "careerlink_connection_transition_total")
	if !found {
		t.Fatal("careerlink_connection_transition_total metric not found")
	}
	if val != 3 {
		t.Errorf("connection_transition_total = %v, want 3", val)
	}
}

// TestRecordNotificationFailure_IncrementsCounter は通知失敗カウンタが増加することを検証する。
func TestRecordNotificationFailure_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordNotificationFailure()
	c.RecordNotificationFailure()

	val, found := counterValue(t, reg, "careerlink_notification_fail_total")
	if !found {
		t.Fatal("careerlink_notification_fail_total metric not found")
	}
	if val != 2 {
		t.Errorf("notification_fail_total = %v, want 2", val)
	}
}

// TestRecordSuggestionLatency_ObservesHistogram はレイテンシのヒストグラムが記録されることを検証する。
func TestRecordSuggestionLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSuggestionLatency(120 * time.Millisecond)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "careerlink_suggestion_latency_seconds" {
			found = true
			count := mf.GetMetric()[0].GetHistogram().GetSampleCount()
			if count != 1 {
				t.Errorf("sample count = %d, want 1", count)
			}
		}
	}
	if !found {
		t.Error("careerlink_suggestion_latency_seconds metric not found")
	}
}

// TestSetupMetricsRoute_ServesMetrics は/metricsパスでメトリクスが返ることを検証する。
func TestSetupMetricsRoute_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordConnectionRequested()

	handler := SetupMetricsRoute(reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if !strings.Contains(string(body), "careerlink_connection_requested_total") {
		t.Error("expected careerlink_connection_requested_total in metrics output")
	}
}
