// Package config defines the pipeline run configuration and its loading
// and validation. No process-wide state: a Config is built once and
// passed explicitly into the driver.
package config

import (
	"time"

	"github.com/kiti15237/American-Gut/internal/scheduler"
)

// Config is the root configuration for a pipeline run.
type Config struct {
	// WorkingDir is the single directory holding all intermediate and
	// final artifacts.
	WorkingDir string `mapstructure:"working_dir" yaml:"working_dir" validate:"required"`

	// Datasets are the raw input datasets the pipeline fans out over.
	Datasets []Dataset `mapstructure:"datasets" yaml:"datasets" validate:"required,min=1,dive"`

	// References are the fixed reference inputs shared by all datasets.
	References References `mapstructure:"references" yaml:"references" validate:"required"`

	// TrimLength is the fixed truncation length in nucleotides for the
	// local trim step.
	TrimLength int `mapstructure:"trim_length" yaml:"trim_length" validate:"min=1"`

	// Stages maps stage names to their cluster resource profiles.
	Stages map[string]scheduler.ResourceProfile `mapstructure:"stages" yaml:"stages" validate:"required"`

	// Scheduler holds scheduler client settings.
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`

	// Journal holds the run journal settings.
	Journal JournalConfig `mapstructure:"journal" yaml:"journal,omitempty"`

	// Resume skips stages whose expected outputs all pre-exist.
	Resume bool `mapstructure:"resume" yaml:"resume"`

	// Logging holds logging settings.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// Dataset is one raw input dataset plus the metadata predicate that
// identifies its valid body-site category.
type Dataset struct {
	// Sequences is the path to the raw sequence file.
	Sequences string `mapstructure:"sequences" yaml:"sequences" validate:"required"`

	// Metadata is the path to the per-sample metadata mapping file.
	Metadata string `mapstructure:"metadata" yaml:"metadata" validate:"required"`

	// Category is the metadata column identifying the body site,
	// e.g. "BODY_SITE".
	Category string `mapstructure:"category" yaml:"category" validate:"required"`

	// Value is the category value to keep, e.g. "UBERON:feces".
	Value string `mapstructure:"value" yaml:"value" validate:"required"`
}

// References holds the fixed reference inputs.
type References struct {
	// Bloom is the bloom sequence reference file.
	Bloom string `mapstructure:"bloom" yaml:"bloom" validate:"required"`

	// Sequences is the full closed-reference sequence set.
	Sequences string `mapstructure:"sequences" yaml:"sequences" validate:"required"`

	// Taxonomy is the reference taxonomy file.
	Taxonomy string `mapstructure:"taxonomy" yaml:"taxonomy" validate:"required"`

	// Params is an optional clustering parameter file.
	Params string `mapstructure:"params" yaml:"params,omitempty"`
}

// SchedulerConfig holds scheduler client settings.
type SchedulerConfig struct {
	// PollInterval is the stage barrier's polling cadence.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// JournalConfig holds run journal settings. An empty path disables the
// journal.
type JournalConfig struct {
	Path string `mapstructure:"path" yaml:"path,omitempty"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// ScheduledStageNames are the stages that submit cluster jobs and
// therefore need a resource profile. The local trim step is absent on
// purpose.
var ScheduledStageNames = []string{"fecal-filter", "bloom-detect", "bloom-remove", "otu-pick"}
