package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewTagsServiceAndEnv(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "warn", "gemwallet", "test")

	logger.Info("dropped")
	logger.Warn("kept")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected exactly one json line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "kept" {
		t.Fatalf("unexpected message %v", entry["msg"])
	}
	if entry["service"] != "gemwallet" || entry["env"] != "test" {
		t.Fatalf("missing service/env attributes: %v", entry)
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "loud", "gemwallet", "test")

	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered at info level, got %q", buf.String())
	}
	logger.Info("shown")
	if buf.Len() == 0 {
		t.Fatalf("expected info output")
	}
}
