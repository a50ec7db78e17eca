package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiti15237/American-Gut/internal/scheduler"
	"github.com/kiti15237/American-Gut/internal/types"
)

const validYAML = `
working_dir: /data/run1
datasets:
  - sequences: /data/raw/round1.fna
    metadata: /data/raw/round1_map.txt
    category: BODY_SITE
    value: UBERON:feces
  - sequences: /data/raw/round2.fna
    metadata: /data/raw/round2_map.txt
    category: BODY_SITE
    value: UBERON:feces
references:
  bloom: /refs/BLOOM.fasta
  sequences: /refs/97_otus.fasta
  taxonomy: /refs/97_otu_taxonomy.txt
  params: /refs/params.txt
trim_length: 100
stages:
  fecal-filter:
    queue: short
    cores: 1
    wall_time: 2h
  bloom-detect:
    queue: short
    cores: 4
    wall_time: 4h
  bloom-remove:
    queue: short
    cores: 1
    wall_time: 2h
  otu-pick:
    queue: long
    cores: 8
    wall_time: 24h
scheduler:
  poll_interval: 15s
journal:
  path: /data/run1/agp.db
logging:
  level: debug
  format: json
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_Load(t *testing.T) {
	loader := NewLoader(NewValidator())

	cfg, err := loader.Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "/data/run1", cfg.WorkingDir)
	require.Len(t, cfg.Datasets, 2)
	assert.Equal(t, "BODY_SITE", cfg.Datasets[0].Category)
	assert.Equal(t, "UBERON:feces", cfg.Datasets[0].Value)
	assert.Equal(t, "/refs/BLOOM.fasta", cfg.References.Bloom)
	assert.Equal(t, 100, cfg.TrimLength)
	assert.Equal(t, scheduler.QueueLong, cfg.Stages["otu-pick"].Queue)
	assert.Equal(t, 24*time.Hour, cfg.Stages["otu-pick"].WallTime)
	assert.Equal(t, 15*time.Second, cfg.Scheduler.PollInterval)
	assert.Equal(t, "/data/run1/agp.db", cfg.Journal.Path)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoader_Load_AppliesDefaults(t *testing.T) {
	minimal := `
working_dir: /data/run1
datasets:
  - sequences: /data/raw/round1.fna
    metadata: /data/raw/round1_map.txt
    category: BODY_SITE
    value: UBERON:feces
references:
  bloom: /refs/BLOOM.fasta
  sequences: /refs/97_otus.fasta
  taxonomy: /refs/97_otu_taxonomy.txt
`
	loader := NewLoader(NewValidator())

	cfg, err := loader.Load(writeConfig(t, minimal))
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig().TrimLength, cfg.TrimLength)
	assert.Equal(t, scheduler.DefaultPollInterval, cfg.Scheduler.PollInterval)
	assert.Equal(t, scheduler.QueueShort, cfg.Stages["fecal-filter"].Queue)
	assert.Empty(t, cfg.Journal.Path)
}

func TestLoader_Load_MissingFile(t *testing.T) {
	loader := NewLoader(NewValidator())

	_, err := loader.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.CONFIG_LOAD_FAILED))
}

func TestValidator_MissingRequiredFields(t *testing.T) {
	loader := NewLoader(NewValidator())

	_, err := loader.Load(writeConfig(t, "datasets:\n  - sequences: /a.fna\n"))
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.CONFIG_VALIDATION_FAILED))
	assert.Contains(t, err.Error(), "working_dir")
}

func TestValidator_RejectsBadStageProfile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WorkingDir = "/data/run1"
	cfg.Datasets = []Dataset{{
		Sequences: "/a.fna", Metadata: "/a_map.txt", Category: "BODY_SITE", Value: "UBERON:feces",
	}}
	cfg.References = References{Bloom: "/b.fasta", Sequences: "/s.fasta", Taxonomy: "/t.txt"}
	cfg.Stages["otu-pick"] = scheduler.ResourceProfile{Queue: "weekend", Cores: 0, WallTime: 0}

	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "otu-pick.queue")
	assert.Contains(t, err.Error(), "otu-pick.cores")
	assert.Contains(t, err.Error(), "otu-pick.wall_time")
}

func TestValidator_RequiresEveryScheduledStage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WorkingDir = "/data/run1"
	cfg.Datasets = []Dataset{{
		Sequences: "/a.fna", Metadata: "/a_map.txt", Category: "BODY_SITE", Value: "UBERON:feces",
	}}
	cfg.References = References{Bloom: "/b.fasta", Sequences: "/s.fasta", Taxonomy: "/t.txt"}
	delete(cfg.Stages, "bloom-detect")

	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stages.bloom-detect")
}

func TestValidator_NilConfig(t *testing.T) {
	assert.Error(t, NewValidator().Validate(nil))
}
