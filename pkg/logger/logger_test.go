package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerTextOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithOutput(&buf, FormatText); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Get().Info(context.Background(), "prediction scored", String("verdict", "fraud"), Float64("probability", 0.91))

	out := buf.String()
	if !strings.Contains(out, "prediction scored") {
		t.Fatalf("message missing from output: %q", out)
	}
	if !strings.Contains(out, "verdict=fraud") {
		t.Fatalf("field missing from output: %q", out)
	}
	if !strings.Contains(out, "logger_test.go") {
		t.Fatalf("caller should point at the test file: %q", out)
	}
}

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithOutput(&buf, FormatJSON); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = InitWithOutput(&bytes.Buffer{}, FormatText) }()

	Named("scorer").Error(context.Background(), "scoring failed", Error(errors.New("boom")), Bool("recoverable", true))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not json: %v (%q)", err, buf.String())
	}
	if rec["component"] != "scorer" {
		t.Fatalf("expected component=scorer, got %v", rec["component"])
	}
	if rec["error"] != "boom" {
		t.Fatalf("expected error=boom, got %v", rec["error"])
	}
	if rec["recoverable"] != true {
		t.Fatalf("expected recoverable=true, got %v", rec["recoverable"])
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithOutput(&buf, FormatText); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	if err := SetLevelString("warn"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = SetLevelString("info") }()

	ctx := context.Background()
	Get().Info(ctx, "hidden")
	Get().Warn(ctx, "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info message should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn message should be emitted: %q", out)
	}
}

func TestSetLevelString(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "", "WARN", "warning", "error"} {
		if err := SetLevelString(lvl); err != nil {
			t.Errorf("level %q should be accepted: %v", lvl, err)
		}
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
	_ = SetLevelString("info")
}

func TestSetFormat(t *testing.T) {
	if err := InitWithOutput(&bytes.Buffer{}, FormatText); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	if err := SetFormat("json"); err != nil {
		t.Fatalf("json should be accepted: %v", err)
	}
	if err := SetFormat("xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if err := InitWithOutput(nil, FormatText); err == nil {
		t.Fatal("expected error for nil output")
	}
	_ = SetFormat(FormatText)
}
