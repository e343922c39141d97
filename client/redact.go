package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// maxLoggedString is the longest string value kept verbatim in a redacted log
// payload.
const maxLoggedString = 100

// redactPayload returns a copy of a JSON payload for logging in which every
// string longer than maxLoggedString is replaced by a length placeholder.
// The payload itself is not modified.
func redactPayload(payload []byte) string {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if utf8.RuneCount(payload) > maxLoggedString {
			return fmt.Sprintf("[UNPARSEABLE_PAYLOAD_TRUNCATED:%d_bytes]", len(payload))
		}
		return string(payload)
	}

	out, err := json.Marshal(redactValue(v))
	if err != nil {
		return fmt.Sprintf("[PAYLOAD_TRUNCATED:%d_bytes]", len(payload))
	}
	return string(out)
}

func redactValue(v any) any {
	switch t := v.(type) {
	case string:
		if n := utf8.RuneCountInString(t); n > maxLoggedString {
			return fmt.Sprintf("[IMAGE_DATA_TRUNCATED:%d_chars]", n)
		}
		return t
	case map[string]any:
		for k, e := range t {
			t[k] = redactValue(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = redactValue(e)
		}
		return t
	default:
		return v
	}
}
