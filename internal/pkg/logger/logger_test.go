package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func TestRedactEmail(t *testing.T) {
	cases := map[string]string{
		"kari.nordmann@example.no": "ka***@example.no",
		"ab@example.no":            "***@example.no",
		"not-an-email":             "***@***",
	}
	for in, want := range cases {
		if got := RedactEmail(in); got != want {
			t.Errorf("RedactEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLogRedactsEmbeddedEmails(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	Info("transport failure", "error", "550 mailbox kari.nordmann@example.no unavailable")

	var entry map[string]string
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if strings.Contains(entry["error"], "kari.nordmann@") {
		t.Fatalf("email leaked into log: %s", entry["error"])
	}
	if !strings.Contains(entry["error"], "ka***@example.no") {
		t.Fatalf("expected redacted address, got: %s", entry["error"])
	}
	if entry["level"] != "INFO" {
		t.Fatalf("expected INFO, got %s", entry["level"])
	}
}
