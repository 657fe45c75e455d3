package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLevels(t *testing.T) {
	log := New(LoggingConfig{Level: "debug"})
	if log.Logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", log.Logger.GetLevel())
	}

	// Unknown levels fall back to info instead of failing startup.
	log = New(LoggingConfig{Level: "shouting"})
	if log.Logger.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info fallback, got %s", log.Logger.GetLevel())
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(LoggingConfig{Level: "info", Format: "json"})
	log.SetOutput(&buf)

	log.Named("catalog").WithField("app_id", "figma").Info("resolved")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if line["component"] != "catalog" || line["app_id"] != "figma" {
		t.Fatalf("missing structured fields: %v", line)
	}
	if line["msg"] != "resolved" {
		t.Fatalf("unexpected message %v", line["msg"])
	}
}

func TestNamed(t *testing.T) {
	var buf bytes.Buffer
	log := NewDefault("requests")
	log.SetOutput(&buf)

	log.Info("started")
	if !strings.Contains(buf.String(), "component=requests") {
		t.Fatalf("expected component field in %q", buf.String())
	}
}
