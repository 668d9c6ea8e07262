package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestFileRotation(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "ragdoll.log")

	cfg := FileConfig{
		Path:       logFile,
		MaxSizeMB:  1, // smallest size lumberjack accepts
		MaxBackups: 2,
		MaxAgeDays: 1,
	}
	l, err := New("debug", cfg, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	pad := strings.Repeat("w", 200)
	for i := 0; i < 15000; i++ {
		l.Info("frame", zap.Int("n", i), zap.String("pad", pad))
	}
	_ = l.Sync()

	if _, err := os.Stat(logFile); err != nil {
		t.Fatalf("active log file: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	rotated := 0
	for _, e := range entries {
		name := e.Name()
		if name == "ragdoll.log" || !strings.HasPrefix(name, "ragdoll-") {
			continue
		}
		rotated++
		// lumberjack appends a timestamp: ragdoll-2006-01-02T15-04-05.000.log
		if !strings.Contains(name, "-20") {
			t.Errorf("rotated file %s has no timestamp", name)
		}
	}
	if rotated == 0 {
		t.Errorf("no rotated files in %v", entries)
	}
}

func TestLevels(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{"error", []string{"ERROR"}, []string{"WARN", "INFO", "DEBUG"}},
		{"warn", []string{"ERROR", "WARN"}, []string{"INFO", "DEBUG"}},
		{"info", []string{"ERROR", "WARN", "INFO"}, []string{"DEBUG"}},
		{"debug", []string{"ERROR", "WARN", "INFO", "DEBUG"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			path := filepath.Join(dir, tt.level+".log")
			if err := Init(tt.level, FileConfig{Path: path, MaxSizeMB: 10}, false); err != nil {
				t.Fatalf("Init: %v", err)
			}
			t.Cleanup(func() { Log = zap.NewNop(); Sugar = Log.Sugar() })

			Debug("debug message")
			Info("info message")
			Warn("warn message")
			Error("error message")
			Sync()

			content, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read log: %v", err)
			}
			for _, want := range tt.expected {
				if !strings.Contains(string(content), want) {
					t.Errorf("missing %s in output", want)
				}
			}
			for _, bad := range tt.excluded {
				if strings.Contains(string(content), bad) {
					t.Errorf("unexpected %s at level %s", bad, tt.level)
				}
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"DEBUG", zapcore.DebugLevel, false},
		{" warning ", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", FileConfig{}, false); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNamedLogger(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "named.log")
	if err := Init("info", FileConfig{Path: path, MaxSizeMB: 1}, false); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { Log = zap.NewNop(); Sugar = Log.Sugar() })

	Named("ragdoll").Info("attached")
	Sync()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(content), "ragdoll") || !strings.Contains(string(content), "attached") {
		t.Errorf("unexpected output %q", content)
	}
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/ragdoll.log")
	want := FileConfig{Path: "/tmp/ragdoll.log", MaxSizeMB: 20, MaxBackups: 5, MaxAgeDays: 14, Compress: true}
	if cfg != want {
		t.Errorf("DefaultFileConfig = %+v, want %+v", cfg, want)
	}
}
