package logger

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func restore(t *testing.T) {
	t.Helper()
	prevLevel := level.Level()
	prevLogger := current.Load()
	t.Cleanup(func() {
		level.Set(prevLevel)
		current.Store(prevLogger)
	})
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: " INFO ", want: slog.LevelInfo},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", want: slog.LevelInfo, wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestConfigureJSONFileCarriesService(t *testing.T) {
	restore(t)

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	if err := Configure(Options{Level: "debug", Format: "json", File: path}); err != nil {
		t.Fatalf("Configure returned error: %v", err)
	}
	Debug("reminder fired", "word_reminder_id", 7)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &rec); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", data, err)
	}
	if rec["msg"] != "reminder fired" || rec["service"] != "wordreminder" || rec["word_reminder_id"] != float64(7) {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestConfigureInvalidLevelKeepsPrevious(t *testing.T) {
	restore(t)

	SetLevel(slog.LevelError)
	if err := Configure(Options{Level: "nope", Format: "yaml"}); err == nil {
		t.Fatal("expected error for invalid level and format")
	}
	if Level() != slog.LevelError {
		t.Fatalf("level = %v, want previous ERROR", Level())
	}
}

func TestSetLevelFiltersBelow(t *testing.T) {
	restore(t)

	path := filepath.Join(t.TempDir(), "app.log")
	if err := Configure(Options{Level: "info", File: path}); err != nil {
		t.Fatal(err)
	}
	SetLevel(slog.LevelWarn)
	Info("dropped")
	Warn("kept")

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "dropped") || !strings.Contains(string(data), "msg=kept") {
		t.Fatalf("unexpected log contents %q", data)
	}
}
