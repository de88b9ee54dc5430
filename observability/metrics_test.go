package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}

	// Verify all metrics are initialized
	if m.DispatchTotal == nil {
		t.Error("DispatchTotal is nil")
	}
	if m.DispatchDuration == nil {
		t.Error("DispatchDuration is nil")
	}
	if m.DispatchErrorsTotal == nil {
		t.Error("DispatchErrorsTotal is nil")
	}
	if m.DispatchTokens == nil {
		t.Error("DispatchTokens is nil")
	}
	if m.CredentialsCreated == nil {
		t.Error("CredentialsCreated is nil")
	}
	if m.CredentialsDeleted == nil {
		t.Error("CredentialsDeleted is nil")
	}
	if m.DBQueryDuration == nil {
		t.Error("DBQueryDuration is nil")
	}
	if m.DBQueryTotal == nil {
		t.Error("DBQueryTotal is nil")
	}
	if m.DBErrorsTotal == nil {
		t.Error("DBErrorsTotal is nil")
	}
	if m.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal is nil")
	}
	if m.HTTPRequestDuration == nil {
		t.Error("HTTPRequestDuration is nil")
	}
	if m.HTTPResponseSize == nil {
		t.Error("HTTPResponseSize is nil")
	}
}

func TestRecordDispatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordDispatch("anthropic", "200", 100*time.Millisecond)
	m.RecordDispatch("anthropic", "200", 50*time.Millisecond)
	m.RecordDispatch("openai", "429", 10*time.Millisecond)

	anthropicCount := testutil.ToFloat64(m.DispatchTotal.WithLabelValues("anthropic", "200"))
	if anthropicCount != 2 {
		t.Errorf("Expected anthropic 200 count to be 2, got %f", anthropicCount)
	}

	openaiCount := testutil.ToFloat64(m.DispatchTotal.WithLabelValues("openai", "429"))
	if openaiCount != 1 {
		t.Errorf("Expected openai 429 count to be 1, got %f", openaiCount)
	}
}

func TestRecordDispatchError(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordDispatchError("anthropic", "expired")
	m.RecordDispatchError("anthropic", "expired")
	m.RecordDispatchError("openai", "bad_body")

	expiredCount := testutil.ToFloat64(m.DispatchErrorsTotal.WithLabelValues("anthropic", "expired"))
	if expiredCount != 2 {
		t.Errorf("Expected anthropic expired count to be 2, got %f", expiredCount)
	}

	badBodyCount := testutil.ToFloat64(m.DispatchErrorsTotal.WithLabelValues("openai", "bad_body"))
	if badBodyCount != 1 {
		t.Errorf("Expected openai bad_body count to be 1, got %f", badBodyCount)
	}
}

func TestRecordTokens(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordTokens("anthropic", 100, 250)
	m.RecordTokens("anthropic", 50, 0)

	requestTokens := testutil.ToFloat64(m.DispatchTokens.WithLabelValues("anthropic", "request"))
	if requestTokens != 150 {
		t.Errorf("Expected request tokens to be 150, got %f", requestTokens)
	}

	responseTokens := testutil.ToFloat64(m.DispatchTokens.WithLabelValues("anthropic", "response"))
	if responseTokens != 250 {
		t.Errorf("Expected response tokens to be 250, got %f", responseTokens)
	}
}

func TestRecordCredentialCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordCredentialCreated("anthropic")
	m.RecordCredentialCreated("anthropic")
	m.RecordCredentialDeleted()

	created := testutil.ToFloat64(m.CredentialsCreated.WithLabelValues("anthropic"))
	if created != 2 {
		t.Errorf("Expected created count to be 2, got %f", created)
	}

	deleted := testutil.ToFloat64(m.CredentialsDeleted)
	if deleted != 1 {
		t.Errorf("Expected deleted count to be 1, got %f", deleted)
	}
}

func TestRecordDBQuery(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordDBQuery("insert", "credentials", 5*time.Millisecond)
	m.RecordDBQuery("insert", "credentials", 3*time.Millisecond)
	m.RecordDBError("insert", "credentials")

	queryCount := testutil.ToFloat64(m.DBQueryTotal.WithLabelValues("insert", "credentials"))
	if queryCount != 2 {
		t.Errorf("Expected query count to be 2, got %f", queryCount)
	}

	errorCount := testutil.ToFloat64(m.DBErrorsTotal.WithLabelValues("insert", "credentials"))
	if errorCount != 1 {
		t.Errorf("Expected error count to be 1, got %f", errorCount)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordHTTPRequest("POST", "/keys", "201", 10*time.Millisecond, 512)
	m.RecordHTTPRequest("POST", "/keys", "201", 12*time.Millisecond, 512)

	count := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/keys", "201"))
	if count != 2 {
		t.Errorf("Expected request count to be 2, got %f", count)
	}
}

func TestTimer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	timer := m.NewTimer()
	time.Sleep(time.Millisecond)

	if timer.Duration() <= 0 {
		t.Error("Timer duration should be positive")
	}

	timer.ObserveDispatch("anthropic", "200")
	count := testutil.ToFloat64(m.DispatchTotal.WithLabelValues("anthropic", "200"))
	if count != 1 {
		t.Errorf("Expected dispatch count to be 1, got %f", count)
	}

	timer.ObserveDB("select", "credentials")
	dbCount := testutil.ToFloat64(m.DBQueryTotal.WithLabelValues("select", "credentials"))
	if dbCount != 1 {
		t.Errorf("Expected db query count to be 1, got %f", dbCount)
	}
}

func TestGetMetricsInitializesGlobal(t *testing.T) {
	globalMetrics = nil
	m := GetMetrics()
	if m == nil {
		t.Fatal("GetMetrics returned nil")
	}
	if GetMetrics() != m {
		t.Error("GetMetrics should return the same instance")
	}
}
