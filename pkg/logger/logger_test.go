package logger

import (
	"context"
	"log/slog"
	"testing"
)

func TestInitAndGet(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	log := Get()
	if log == nil {
		t.Fatal("logger is nil after initialization")
	}

	// Get installs a default even without Init.
	mu.Lock()
	global = nil
	mu.Unlock()
	if Get() == nil {
		t.Fatal("Get did not install a fallback logger")
	}
}

func TestLoggingWithFields(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	log := Get().Named("test")

	log.Debug(ctx, "debug message", String("k", "v"))
	log.Info(ctx, "info message", Int("count", 3), Float64("score", 0.5))
	log.Warn(ctx, "warn message", Int64("big", 1<<40))
	log.Error(ctx, "error message", Error(context.Canceled), Any("extra", []int{1, 2}))

	if Named("child") == nil {
		t.Fatal("Named returned nil")
	}
}

func TestSetLevelString(t *testing.T) {
	cases := []struct {
		input   string
		wantErr bool
		level   slog.Level
	}{
		{"debug", false, slog.LevelDebug},
		{"info", false, slog.LevelInfo},
		{"", false, slog.LevelInfo},
		{"warn", false, slog.LevelWarn},
		{"WARNING", false, slog.LevelWarn},
		{"error", false, slog.LevelError},
		{"verbose", true, 0},
	}

	for _, tc := range cases {
		err := SetLevelString(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("SetLevelString(%q) expected an error", tc.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("SetLevelString(%q) failed: %v", tc.input, err)
			continue
		}
		if got := levelVar.Level(); got != tc.level {
			t.Errorf("SetLevelString(%q) set level %v, want %v", tc.input, got, tc.level)
		}
	}

	_ = SetLevelString("info")
}
