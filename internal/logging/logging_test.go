package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: LevelWarn, Format: FormatText, Output: &buf})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message", nil)

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("output should not contain filtered levels: %s", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("output missing expected messages: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"Warning": LevelWarn,
		"error":   LevelError,
		"none":    LevelNone,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: LevelDebug, Format: FormatJSON, Output: &buf})

	logger.Info("hello", Fields{"key": "value"})

	var e struct {
		Level   string `json:"level"`
		Message string `json:"message"`
		Fields  Fields `json:"fields"`
	}
	if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if e.Level != "INFO" || e.Message != "hello" || e.Fields["key"] != "value" {
		t.Errorf("entry = %+v", e)
	}
}

func TestDebugEnabled(t *testing.T) {
	logger := New(Options{Level: LevelInfo})
	if logger.DebugEnabled() {
		t.Error("DebugEnabled() = true at info level")
	}
	logger.SetLevel(LevelDebug)
	if !logger.DebugEnabled() {
		t.Error("DebugEnabled() = false at debug level")
	}
}

func TestRoundTripperRedactsCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := New(Options{Level: LevelDebug, Format: FormatText, Output: &buf})
	client := &http.Client{Transport: NewLoggingRoundTripper(nil, NewHTTPLogger(logger), true)}

	req, err := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader(`{"access_token":"super-secret"}`))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Authorization", "Bearer super-secret")
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	resp.Body.Close()

	out := buf.String()
	if strings.Contains(out, "super-secret") {
		t.Errorf("log output leaked a credential: %s", out)
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Errorf("log output should mark redactions: %s", out)
	}
}

func TestRoundTripperSkipsStreamBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: chunk\n"))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := New(Options{Level: LevelDebug, Format: FormatText, Output: &buf})
	client := &http.Client{Transport: NewLoggingRoundTripper(nil, NewHTTPLogger(logger), true)}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()

	// The middleware must leave the stream for the consumer.
	body := make([]byte, 64)
	n, _ := resp.Body.Read(body)
	if !strings.Contains(string(body[:n]), "data: chunk") {
		t.Errorf("stream body drained by middleware, got %q", string(body[:n]))
	}
}
