package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/me/goplan/pkg/model"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds configuration for the goplan server.
type ServerConfig struct {
	Addr        string // Listen address (default ":8080")
	LogLevel    string // Log level: debug, info, warn, error
	LogFormat   string // Log format: text, json
	DBPath      string // SQLite database path (default ~/.goplan/goplan.db, ":memory:" for testing)
	WeightsFile string // Optional YAML file with scheduler weight overrides
	SyncFeedURL string // Optional calendar feed URL for /sync/feed
	SyncCron    string // Optional cron spec for periodic feed sync + CP run
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:      ":8080",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// SchedulerConfig holds the scheduling engine settings. Values come from the
// environment (see FromEnv) with the defaults below.
type SchedulerConfig struct {
	Module                model.Module
	WorkdayStartHour      int
	WorkdayEndHour        int
	CPGranularityMinutes  int
	SWOGranularityMinutes int
	SolverTimeLimit       time.Duration
	Weights               Weights
}

// Weights carries the objective weights for both schedulers. Overridable via a
// YAML file (see LoadWeights).
type Weights struct {
	CP  CPWeights  `yaml:"cp"`
	SWO SWOWeights `yaml:"swo"`
}

// CPWeights are the CP/LNS objective weights.
type CPWeights struct {
	Unscheduled int `yaml:"unscheduled"`
	Tardiness   int `yaml:"tardiness"`
	Stability   int `yaml:"stability"`
	StartTime   int `yaml:"start_time"`
}

// SWOWeights are the SWO penalty weights and iteration bound.
type SWOWeights struct {
	UnscheduledPenalty int `yaml:"unscheduled_penalty"`
	Deviation          int `yaml:"deviation"`
	Slack              int `yaml:"slack"`
	MaxIterations      int `yaml:"max_iterations"`
}

// DefaultWeights returns the stock objective weights.
func DefaultWeights() Weights {
	return Weights{
		CP: CPWeights{
			Unscheduled: 10_000,
			Tardiness:   200,
			Stability:   30,
			StartTime:   1,
		},
		SWO: SWOWeights{
			UnscheduledPenalty: 10_000,
			Deviation:          50,
			Slack:              5,
			MaxIterations:      6,
		},
	}
}

// DefaultSchedulerConfig returns the stock engine settings.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Module:                model.ModuleCPLNS,
		WorkdayStartHour:      9,
		WorkdayEndHour:        17,
		CPGranularityMinutes:  5,
		SWOGranularityMinutes: 15,
		SolverTimeLimit:       15 * time.Second,
		Weights:               DefaultWeights(),
	}
}

// FromEnv builds a SchedulerConfig from environment variables, falling back to
// defaults for anything unset.
//
//	SCHEDULER_MODULE            CP_LNS | SWO (default CP_LNS)
//	PLAN_WORKDAY_START_HOUR     default 9
//	PLAN_WORKDAY_END_HOUR       default 17
//	PLAN_CP_GRANULARITY         minutes, default 5
//	PLAN_SWO_GRANULARITY        minutes, default 15
//	PLAN_SOLVER_TIME_LIMIT      Go duration, default 15s
func FromEnv() (SchedulerConfig, error) {
	cfg := DefaultSchedulerConfig()

	if v := os.Getenv("SCHEDULER_MODULE"); v != "" {
		switch model.Module(v) {
		case model.ModuleCPLNS, model.ModuleSWO:
			cfg.Module = model.Module(v)
		default:
			return cfg, fmt.Errorf("SCHEDULER_MODULE: unknown module %q", v)
		}
	}

	var err error
	if cfg.WorkdayStartHour, err = envInt("PLAN_WORKDAY_START_HOUR", cfg.WorkdayStartHour); err != nil {
		return cfg, err
	}
	if cfg.WorkdayEndHour, err = envInt("PLAN_WORKDAY_END_HOUR", cfg.WorkdayEndHour); err != nil {
		return cfg, err
	}
	if cfg.CPGranularityMinutes, err = envInt("PLAN_CP_GRANULARITY", cfg.CPGranularityMinutes); err != nil {
		return cfg, err
	}
	if cfg.SWOGranularityMinutes, err = envInt("PLAN_SWO_GRANULARITY", cfg.SWOGranularityMinutes); err != nil {
		return cfg, err
	}
	if v := os.Getenv("PLAN_SOLVER_TIME_LIMIT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("PLAN_SOLVER_TIME_LIMIT: %w", err)
		}
		cfg.SolverTimeLimit = d
	}

	if cfg.WorkdayStartHour < 0 || cfg.WorkdayStartHour >= cfg.WorkdayEndHour || cfg.WorkdayEndHour > 24 {
		return cfg, fmt.Errorf("working day hours must satisfy 0 <= start < end <= 24, got [%d, %d)",
			cfg.WorkdayStartHour, cfg.WorkdayEndHour)
	}
	if cfg.CPGranularityMinutes <= 0 || cfg.SWOGranularityMinutes <= 0 {
		return cfg, fmt.Errorf("granularity must be positive")
	}

	return cfg, nil
}

// LoadWeights reads weight overrides from a YAML file and merges them over the
// defaults. Zero-valued fields in the file keep their defaults.
func LoadWeights(path string) (Weights, error) {
	w := DefaultWeights()
	data, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("read weights file: %w", err)
	}

	var overrides Weights
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return w, fmt.Errorf("parse weights file %s: %w", path, err)
	}
	mergeInt(&w.CP.Unscheduled, overrides.CP.Unscheduled)
	mergeInt(&w.CP.Tardiness, overrides.CP.Tardiness)
	mergeInt(&w.CP.Stability, overrides.CP.Stability)
	mergeInt(&w.CP.StartTime, overrides.CP.StartTime)
	mergeInt(&w.SWO.UnscheduledPenalty, overrides.SWO.UnscheduledPenalty)
	mergeInt(&w.SWO.Deviation, overrides.SWO.Deviation)
	mergeInt(&w.SWO.Slack, overrides.SWO.Slack)
	mergeInt(&w.SWO.MaxIterations, overrides.SWO.MaxIterations)
	return w, nil
}

func mergeInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func envInt(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}
