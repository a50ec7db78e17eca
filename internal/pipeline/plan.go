package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/kiti15237/American-Gut/internal/artifact"
	"github.com/kiti15237/American-Gut/internal/config"
	"github.com/kiti15237/American-Gut/internal/template"
	"github.com/kiti15237/American-Gut/internal/trim"
)

// StepKind distinguishes scheduled stages from local steps.
type StepKind string

const (
	// StepScheduled is a stage fanned out as cluster jobs.
	StepScheduled StepKind = "scheduled"

	// StepLocal is a synchronous step run on the submit host.
	StepLocal StepKind = "local"
)

// Step is one entry in a plan: exactly one of Stage or Local is set,
// according to Kind.
type Step struct {
	Kind  StepKind
	Stage *Stage
	Local *LocalStep
}

// Name returns the name of the underlying stage or local step.
func (s Step) Name() string {
	if s.Kind == StepLocal {
		return s.Local.Name
	}
	return s.Stage.Name
}

// Plan is the fully resolved sequence of pipeline steps. Stage order is
// strictly total: a later step never starts while an earlier scheduled
// stage has any non-terminal job.
type Plan struct {
	Steps []Step
}

// otuMapRel is where a closed-reference clustering run leaves its
// cluster-assignment map, relative to the run's output directory.
func otuMapRel(stem string) string {
	return filepath.Join("uclust_ref_picked_otus", stem+"_otus.txt")
}

// BuildRegistry constructs the command template registry for the bloom
// pipeline. The clustering templates carry the parameter file argument
// only when one is configured.
func BuildRegistry(cfg *config.Config) *template.Registry {
	reg := template.NewRegistry()

	reg.MustRegister(template.Template{
		Name:    "fecal-filter",
		Program: "filter_fasta.py",
		Args: []template.Arg{
			template.Bind("-f", "input"),
			template.Bind("--mapping_fp", "metadata"),
			template.Bind("--valid_states", "predicate"),
			template.Bind("-o", "output"),
		},
	})

	clusterArgs := func(withTaxonomy bool) []template.Arg {
		args := []template.Arg{
			template.Bind("-i", "input"),
			template.Bind("-r", "reference"),
		}
		if withTaxonomy {
			args = append(args, template.Bind("-t", "taxonomy"))
		}
		if cfg.References.Params != "" {
			args = append(args, template.Literal("-p", cfg.References.Params))
		}
		return append(args, template.Bind("-o", "output_dir"))
	}

	reg.MustRegister(template.Template{
		Name:    "bloom-detect",
		Program: "pick_closed_reference_otus.py",
		Args:    clusterArgs(false),
	})

	// Subtract the matched bloom reads: -m takes the match map, -n
	// negates it. Keep = absent from the bloom match list.
	reg.MustRegister(template.Template{
		Name:    "bloom-remove",
		Program: "filter_fasta.py",
		Args: []template.Arg{
			template.Bind("-f", "input"),
			template.Bind("-m", "otu_map"),
			template.Switch("-n"),
			template.Bind("-o", "output"),
		},
	})

	reg.MustRegister(template.Template{
		Name:    "otu-pick",
		Program: "pick_closed_reference_otus.py",
		Args:    clusterArgs(true),
	})

	return reg
}

// BuildPlan resolves the configuration into the concrete five-step
// bloom pipeline:
//
//  1. fecal-filter: per raw dataset, keep reads whose sample metadata
//     matches the configured body-site category/value.
//  2. bloom-detect: per fecal subset, closed-reference clustering
//     against the bloom reference; its cluster-assignment map records
//     which reads matched a bloom sequence.
//  3. bloom-remove: per ORIGINAL dataset, drop the reads named in the
//     bloom match map.
//  4. trim: local truncation of every bloom-removed dataset.
//  5. otu-pick: per untrimmed AND trimmed dataset, closed-reference
//     clustering against the full reference.
func BuildPlan(cfg *config.Config) *Plan {
	var (
		fecalItems  []FanOutItem
		detectItems []FanOutItem
		removeItems []FanOutItem
		trimItems   []LocalItem
		pickItems   []FanOutItem
	)

	for _, ds := range cfg.Datasets {
		raw := artifact.Input(ds.Sequences)

		fecal := artifact.DeriveIn(raw, cfg.WorkingDir, "fecal-filter", "fecal")
		fecalItems = append(fecalItems, FanOutItem{
			Input: raw,
			Bindings: map[string]string{
				"input":     raw.Path,
				"metadata":  ds.Metadata,
				"predicate": ds.Category + ":" + ds.Value,
				"output":    fecal.Path,
			},
			Output:  fecal,
			JobName: "fecal-filter-" + raw.Stem(),
		})

		bloomDir := artifact.DeriveDir(fecal, "bloom-detect", "bloomed")
		detectItems = append(detectItems, FanOutItem{
			Input: fecal,
			Bindings: map[string]string{
				"input":      fecal.Path,
				"reference":  cfg.References.Bloom,
				"output_dir": bloomDir.Path,
			},
			Output:  bloomDir,
			JobName: "bloom-detect-" + raw.Stem(),
		})

		// The match map is the detect run's classification output at a
		// deterministic relative path; no central index needed.
		otuMap := artifact.Child(bloomDir, otuMapRel(fecal.Stem()))

		nobloom := artifact.DeriveIn(raw, cfg.WorkingDir, "bloom-remove", "nobloom")
		removeItems = append(removeItems, FanOutItem{
			Input: raw,
			Bindings: map[string]string{
				"input":   raw.Path,
				"otu_map": otuMap.Path,
				"output":  nobloom.Path,
			},
			Output:  nobloom,
			JobName: "bloom-remove-" + raw.Stem(),
		})

		trimmed := artifact.Derive(nobloom, "trim", fmt.Sprintf("%dnt", cfg.TrimLength))
		trimItems = append(trimItems, LocalItem{Input: nobloom, Output: trimmed})

		for _, in := range []*artifact.Artifact{nobloom, trimmed} {
			outDir := artifact.DeriveDir(in, "otu-pick", "otus")
			pickItems = append(pickItems, FanOutItem{
				Input: in,
				Bindings: map[string]string{
					"input":      in.Path,
					"reference":  cfg.References.Sequences,
					"taxonomy":   cfg.References.Taxonomy,
					"output_dir": outDir.Path,
				},
				Output:  outDir,
				JobName: "otu-pick-" + in.Stem(),
			})
		}
	}

	trimmer := trim.NewTrimmer(cfg.TrimLength, nil)

	return &Plan{
		Steps: []Step{
			{Kind: StepScheduled, Stage: &Stage{
				Name:      "fecal-filter",
				Template:  "fecal-filter",
				Items:     fecalItems,
				Resources: cfg.Stages["fecal-filter"],
			}},
			{Kind: StepScheduled, Stage: &Stage{
				Name:      "bloom-detect",
				Template:  "bloom-detect",
				Items:     detectItems,
				Resources: cfg.Stages["bloom-detect"],
			}},
			{Kind: StepScheduled, Stage: &Stage{
				Name:      "bloom-remove",
				Template:  "bloom-remove",
				Items:     removeItems,
				Resources: cfg.Stages["bloom-remove"],
			}},
			{Kind: StepLocal, Local: &LocalStep{
				Name:  "trim",
				Items: trimItems,
				Run:   trimmer.TrimFile,
			}},
			{Kind: StepScheduled, Stage: &Stage{
				Name:      "otu-pick",
				Template:  "otu-pick",
				Items:     pickItems,
				Resources: cfg.Stages["otu-pick"],
			}},
		},
	}
}
