package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kiti15237/American-Gut/internal/pipeline"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the resolved pipeline plan without submitting anything",
	Long: `Resolve the configuration into the concrete stage plan and print
it as YAML: every stage, its fan-out items, the exact command each job
would run, and the expected output artifacts. Nothing is submitted.`,
	RunE: printPlan,
}

// planView is the YAML shape of a resolved plan.
type planView struct {
	Steps []stepView `yaml:"steps"`
}

type stepView struct {
	Name  string     `yaml:"name"`
	Kind  string     `yaml:"kind"`
	Queue string     `yaml:"queue,omitempty"`
	Items []itemView `yaml:"items"`
}

type itemView struct {
	Job     string `yaml:"job,omitempty"`
	Input   string `yaml:"input"`
	Output  string `yaml:"output"`
	Command string `yaml:"command,omitempty"`
}

func printPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	registry := pipeline.BuildRegistry(cfg)
	plan := pipeline.BuildPlan(cfg)

	view := planView{}
	for _, step := range plan.Steps {
		sv := stepView{Name: step.Name(), Kind: string(step.Kind)}

		switch step.Kind {
		case pipeline.StepLocal:
			for _, item := range step.Local.Items {
				sv.Items = append(sv.Items, itemView{
					Input:  item.Input.Path,
					Output: item.Output.Path,
				})
			}
		default:
			sv.Queue = step.Stage.Resources.Queue.String()
			for _, item := range step.Stage.Items {
				command, err := registry.Resolve(step.Stage.Template, item.Bindings)
				if err != nil {
					return err
				}
				sv.Items = append(sv.Items, itemView{
					Job:     item.JobName,
					Input:   item.Input.Path,
					Output:  item.Output.Path,
					Command: command,
				})
			}
		}
		view.Steps = append(view.Steps, sv)
	}

	out, err := yaml.Marshal(view)
	if err != nil {
		return err
	}
	cmd.Print(string(out))
	return nil
}
