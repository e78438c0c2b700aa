package utils

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

type logRecord struct {
	Level string `json:"level"`
	Msg   string `json:"msg"`
	CID   string `json:"cid"`
}

func TestLogger_JSONModeWritesJSONWithCID(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ORI_LOG_DIR", dir)
	t.Setenv("ORI_JSON_LOGS", "1")
	t.Setenv("ORI_CORRELATION_ID", "abc123")

	l := GetLogger(true)
	l.Log("hello world")
	_ = l.Close()

	// Read the last JSON object from the log file; lumberjack writes raw JSON lines
	f, err := os.Open(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	var lastLine string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lastLine = scanner.Text()
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	var rec logRecord
	if err := json.Unmarshal([]byte(lastLine), &rec); err != nil {
		t.Fatalf("unmarshal: %v; content=%q", err, lastLine)
	}
	if rec.Level != "info" || rec.Msg != "hello world" || rec.CID != "abc123" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if l.UserInteractionEnabled() {
		t.Fatalf("expected user interaction to be disabled when skipping prompts")
	}
}
