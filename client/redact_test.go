package client

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRedactPayload_ReplacesLongStrings(t *testing.T) {
	long := strings.Repeat("x", 150)
	payload := []byte(`{"type":"success","message":"ok","data":{"image":"` + long + `","width":854,"tags":["short","` + long + `"]}}`)

	got := redactPayload(payload)

	var v map[string]any
	if err := json.Unmarshal([]byte(got), &v); err != nil {
		t.Fatalf("Expected redacted payload to be JSON, got %q: %v", got, err)
	}
	data := v["data"].(map[string]any)
	if data["image"] != "[IMAGE_DATA_TRUNCATED:150_chars]" {
		t.Errorf("Expected image placeholder, got %v", data["image"])
	}
	tags := data["tags"].([]any)
	if tags[0] != "short" || tags[1] != "[IMAGE_DATA_TRUNCATED:150_chars]" {
		t.Errorf("Expected array strings redacted by length, got %v", tags)
	}
	if v["message"] != "ok" {
		t.Errorf("Expected short message kept, got %v", v["message"])
	}
	if !strings.Contains(got, `"width":854`) {
		t.Errorf("Expected numbers kept verbatim, got %s", got)
	}
	if !strings.Contains(string(payload), long) {
		t.Error("Expected original payload to be left unchanged")
	}
}

func TestRedactPayload_BoundaryLength(t *testing.T) {
	exact := strings.Repeat("y", maxLoggedString)
	got := redactPayload([]byte(`{"image":"` + exact + `"}`))
	if !strings.Contains(got, exact) {
		t.Errorf("Expected a %d-char string to be kept, got %s", maxLoggedString, got)
	}

	// Counted in characters, not bytes.
	multi := strings.Repeat("é", 60)
	got = redactPayload([]byte(`{"image":"` + multi + `"}`))
	if !strings.Contains(got, multi) {
		t.Errorf("Expected 60 two-byte characters to be kept, got %s", got)
	}
}

func TestRedactPayload_Unparseable(t *testing.T) {
	if got := redactPayload([]byte("not json")); got != "not json" {
		t.Errorf("Expected short unparseable payload kept, got %q", got)
	}

	long := []byte("garbage " + strings.Repeat("z", 200))
	got := redactPayload(long)
	if got != "[UNPARSEABLE_PAYLOAD_TRUNCATED:208_bytes]" {
		t.Errorf("Expected unparseable placeholder, got %q", got)
	}
}
