package config

import (
	"time"

	"github.com/kiti15237/American-Gut/internal/scheduler"
)

// DefaultConfig returns a configuration with sensible defaults. Dataset
// and reference paths have no defaults and must come from the config
// file.
func DefaultConfig() *Config {
	return &Config{
		TrimLength: 100,
		Stages: map[string]scheduler.ResourceProfile{
			"fecal-filter": {Queue: scheduler.QueueShort, Cores: 1, WallTime: 4 * time.Hour},
			"bloom-detect": {Queue: scheduler.QueueShort, Cores: 4, WallTime: 4 * time.Hour},
			"bloom-remove": {Queue: scheduler.QueueShort, Cores: 1, WallTime: 4 * time.Hour},
			"otu-pick":     {Queue: scheduler.QueueLong, Cores: 8, WallTime: 48 * time.Hour},
		},
		Scheduler: SchedulerConfig{
			PollInterval: scheduler.DefaultPollInterval,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
