package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithOutput(&buf, "warn", "json")
	if err != nil {
		t.Fatal(err)
	}
	log.Info("hidden")
	LogError(log, "store", "insert_rows", map[string]int{"rows": 3}, errors.New("boom"))

	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "hidden") {
		t.Fatalf("info should be filtered at warn level: %s", line)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("not json: %v (%s)", err, line)
	}
	if entry["msg"] != "boom" || entry["module"] != "store" || entry["operation"] != "insert_rows" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := New("loud", "text"); err == nil {
		t.Fatal("bad level accepted")
	}
	if _, err := New("info", "xml"); err == nil {
		t.Fatal("bad format accepted")
	}
	log, err := New("", "")
	if err != nil {
		t.Fatal(err)
	}
	if log.GetLevel() != logrus.InfoLevel {
		t.Fatalf("default level = %v", log.GetLevel())
	}
}
