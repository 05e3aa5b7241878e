package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/example/availability-scheduler/internal/timerange"
)

// chdir changes into dir for the duration of the test, restoring the
// previous working directory on cleanup (t.Chdir needs Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("Chdir back: %v", err)
		}
	})
}

// clearSchedulerEnv unsets every SCHEDULER_ variable for the duration of the
// test. t.Setenv registers the restore; the unset makes .env files apply.
func clearSchedulerEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SCHEDULER_HTTP_PORT",
		"SCHEDULER_SQLITE_PATH",
		"SCHEDULER_SLOT_STEP_MINUTES",
		"SCHEDULER_BUSINESS_START",
		"SCHEDULER_BUSINESS_END",
		"SCHEDULER_RECURRENCE_CAP",
		"SCHEDULER_RECURRENCE_BOUNDED_CAP",
		"SCHEDULER_SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearSchedulerEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTPPort != 8080 || cfg.Addr() != ":8080" {
		t.Errorf("port %d addr %q", cfg.HTTPPort, cfg.Addr())
	}
	if cfg.SQLitePath != "scheduler.db" {
		t.Errorf("sqlite path %q", cfg.SQLitePath)
	}
	if cfg.SlotStepMinutes != 60 {
		t.Errorf("slot step %d", cfg.SlotStepMinutes)
	}
	if cfg.BusinessHours.Start != timerange.TimeOfDay(9*60) || cfg.BusinessHours.End != timerange.TimeOfDay(17*60) {
		t.Errorf("business hours %v", cfg.BusinessHours)
	}
	if cfg.UnboundedCap != 52 || cfg.BoundedCap != 365 {
		t.Errorf("caps %d %d", cfg.UnboundedCap, cfg.BoundedCap)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("shutdown timeout %v", cfg.ShutdownTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearSchedulerEnv(t)
	chdir(t, t.TempDir())

	t.Setenv("SCHEDULER_HTTP_PORT", "9090")
	t.Setenv("SCHEDULER_SQLITE_PATH", "/tmp/availability.db")
	t.Setenv("SCHEDULER_SLOT_STEP_MINUTES", "30")
	t.Setenv("SCHEDULER_BUSINESS_START", "08:30")
	t.Setenv("SCHEDULER_BUSINESS_END", "18:00")
	t.Setenv("SCHEDULER_RECURRENCE_CAP", "104")
	t.Setenv("SCHEDULER_SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HTTPPort != 9090 {
		t.Errorf("port %d", cfg.HTTPPort)
	}
	if cfg.SQLitePath != "/tmp/availability.db" {
		t.Errorf("sqlite path %q", cfg.SQLitePath)
	}
	if cfg.SlotSearchConfig().StepMinutes != 30 {
		t.Errorf("slot step %d", cfg.SlotSearchConfig().StepMinutes)
	}
	if cfg.Policy().FallbackHours.Start != timerange.TimeOfDay(8*60+30) {
		t.Errorf("fallback hours %v", cfg.Policy().FallbackHours)
	}
	if cfg.RecurrenceConfig().UnboundedCap != 104 {
		t.Errorf("unbounded cap %d", cfg.RecurrenceConfig().UnboundedCap)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("shutdown timeout %v", cfg.ShutdownTimeout)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	clearSchedulerEnv(t)
	chdir(t, t.TempDir())

	t.Setenv("SCHEDULER_HTTP_PORT", "not-a-port")
	t.Setenv("SCHEDULER_SHUTDOWN_TIMEOUT", "-5s")

	_, err := Load()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, key := range []string{"SCHEDULER_HTTP_PORT", "SCHEDULER_SHUTDOWN_TIMEOUT"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q misses %s", err, key)
		}
	}
}

func TestLoadInvertedBusinessHours(t *testing.T) {
	clearSchedulerEnv(t)
	chdir(t, t.TempDir())

	t.Setenv("SCHEDULER_BUSINESS_START", "17:00")
	t.Setenv("SCHEDULER_BUSINESS_END", "09:00")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error")
	}
}

func TestLoadReadsDotenvFile(t *testing.T) {
	clearSchedulerEnv(t)
	dir := t.TempDir()
	chdir(t, dir)

	if err := os.WriteFile(dir+"/.env", []byte("SCHEDULER_HTTP_PORT=7070\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPPort != 7070 {
		t.Errorf("port %d", cfg.HTTPPort)
	}
}
