package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/availability-scheduler/internal/availability"
	"github.com/example/availability-scheduler/internal/recurrence"
	"github.com/example/availability-scheduler/internal/scheduler"
	"github.com/example/availability-scheduler/internal/timerange"
)

// Config captures environment driven configuration values for the scheduler
// service.
type Config struct {
	HTTPPort        int
	SQLitePath      string
	SlotStepMinutes int
	BusinessHours   timerange.Range
	UnboundedCap    int
	BoundedCap      int
	ShutdownTimeout time.Duration
}

// Load reads an optional .env file and then parses configuration values from
// the current process environment. Environment entries win over .env entries.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		HTTPPort:        8080,
		SQLitePath:      "scheduler.db",
		SlotStepMinutes: scheduler.DefaultSlotSearchConfig().StepMinutes,
		BusinessHours:   scheduler.DefaultSlotSearchConfig().Window,
		UnboundedCap:    recurrence.DefaultConfig().UnboundedCap,
		BoundedCap:      recurrence.DefaultConfig().BoundedCap,
		ShutdownTimeout: 10 * time.Second,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("SCHEDULER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "SCHEDULER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if path := strings.TrimSpace(os.Getenv("SCHEDULER_SQLITE_PATH")); path != "" {
		cfg.SQLitePath = path
	}

	if stepValue := strings.TrimSpace(os.Getenv("SCHEDULER_SLOT_STEP_MINUTES")); stepValue != "" {
		step, err := strconv.Atoi(stepValue)
		if err != nil || step <= 0 {
			invalid = append(invalid, "SCHEDULER_SLOT_STEP_MINUTES")
		} else {
			cfg.SlotStepMinutes = step
		}
	}

	startValue := strings.TrimSpace(os.Getenv("SCHEDULER_BUSINESS_START"))
	endValue := strings.TrimSpace(os.Getenv("SCHEDULER_BUSINESS_END"))
	if startValue != "" || endValue != "" {
		window := cfg.BusinessHours
		var err error
		if startValue != "" {
			if window.Start, err = timerange.ParseTimeOfDay(startValue); err != nil {
				invalid = append(invalid, "SCHEDULER_BUSINESS_START")
			}
		}
		if endValue != "" {
			if window.End, err = timerange.ParseTimeOfDay(endValue); err != nil {
				invalid = append(invalid, "SCHEDULER_BUSINESS_END")
			}
		}
		if len(invalid) == 0 {
			if err := window.Validate(); err != nil {
				invalid = append(invalid, "SCHEDULER_BUSINESS_START", "SCHEDULER_BUSINESS_END")
			} else {
				cfg.BusinessHours = window
			}
		}
	}

	if capValue := strings.TrimSpace(os.Getenv("SCHEDULER_RECURRENCE_CAP")); capValue != "" {
		limit, err := strconv.Atoi(capValue)
		if err != nil || limit <= 0 {
			invalid = append(invalid, "SCHEDULER_RECURRENCE_CAP")
		} else {
			cfg.UnboundedCap = limit
		}
	}

	if capValue := strings.TrimSpace(os.Getenv("SCHEDULER_RECURRENCE_BOUNDED_CAP")); capValue != "" {
		limit, err := strconv.Atoi(capValue)
		if err != nil || limit <= 0 {
			invalid = append(invalid, "SCHEDULER_RECURRENCE_BOUNDED_CAP")
		} else {
			cfg.BoundedCap = limit
		}
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("SCHEDULER_SHUTDOWN_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "SCHEDULER_SHUTDOWN_TIMEOUT")
		} else {
			cfg.ShutdownTimeout = timeout
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Addr returns the listen address derived from the configured port.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// Policy returns the availability fallback policy with the configured
// business hours.
func (c Config) Policy() availability.Policy {
	policy := availability.DefaultPolicy()
	policy.FallbackHours = c.BusinessHours
	return policy
}

// SlotSearchConfig returns the candidate enumeration settings for common
// slot searches.
func (c Config) SlotSearchConfig() scheduler.SlotSearchConfig {
	return scheduler.SlotSearchConfig{
		StepMinutes: c.SlotStepMinutes,
		Window:      c.BusinessHours,
	}
}

// RecurrenceConfig returns the expansion caps for recurring slots and events.
func (c Config) RecurrenceConfig() recurrence.Config {
	return recurrence.Config{
		UnboundedCap: c.UnboundedCap,
		BoundedCap:   c.BoundedCap,
	}
}
