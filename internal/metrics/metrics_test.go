package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestCounters(t *testing.T) {
	m := New()
	m.LoginAttempt()
	m.LoginAttempt()
	m.LoginResult("success")
	m.LoginResult("unreachable")
	m.LoginResult("unreachable")
	m.QuestionsSent(3)
	m.ReportDownloaded()
	m.ReportShared()
	m.GateDecision("/staff-dashboard", "redirect_login")
	m.HTTPRequest("/login", "2xx")

	body := scrape(t, m)
	for _, want := range []string{
		"ccf_login_attempts_total 2",
		`ccf_login_results_total{result="unreachable"} 2`,
		`ccf_login_results_total{result="success"} 1`,
		"ccf_questions_sent_total 3",
		"ccf_report_downloads_total 1",
		"ccf_report_shares_total 1",
		`ccf_gate_decisions_total{decision="redirect_login",route="/staff-dashboard"} 1`,
		`ccf_http_requests_total{route="/login",status="2xx"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.LoginAttempt()
	m.LoginResult("success")
	m.QuestionsSent(1)
	m.ReportDownloaded()
	m.ReportShared()
	m.GateDecision("/", "render")
	m.HTTPRequest("/", "2xx")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerIncludesRuntimeCollectors(t *testing.T) {
	if body := scrape(t, New()); !strings.Contains(body, "go_goroutines") {
		t.Error("exposition missing runtime collector")
	}
}
