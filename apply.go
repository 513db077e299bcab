package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/amidaware/schedctl/console/forms"
	"github.com/amidaware/schedctl/shared"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Create or update scripts from a YAML file",
	Long: `Apply scripts from a YAML file. Scripts are matched by name: an existing
script is replaced, a new one is created. Several documents may be separated
with '---'.

Example:
  apiVersion: schedctl/v1
  kind: Script
  metadata:
    name: backup
  spec:
    type: shell
    schedule: "0 3 * * *"
    content: |
      #!/bin/bash
      tar czf /tmp/etc.tgz /etc`,
	Args: cobra.NoArgs,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringP("file", "f", "", "YAML file to apply, - for stdin (required)")
	_ = applyCmd.MarkFlagRequired("file")
}

type ScriptResource struct {
	APIVersion string           `yaml:"apiVersion"`
	Kind       string           `yaml:"kind"`
	Metadata   ResourceMetadata `yaml:"metadata"`
	Spec       ScriptSpec       `yaml:"spec"`
}

type ResourceMetadata struct {
	Name string `yaml:"name"`
}

type ScriptSpec struct {
	Type     string `yaml:"type"`
	Schedule string `yaml:"schedule"`
	Content  string `yaml:"content"`
}

func (r ScriptResource) Script() shared.Script {
	t := shared.ScriptType(r.Spec.Type)
	if t == "" {
		t = shared.ScriptShell
	}
	return shared.Script{
		Name:     r.Metadata.Name,
		Type:     t,
		Schedule: r.Spec.Schedule,
		Content:  r.Spec.Content,
	}
}

func parseManifests(r io.Reader) ([]ScriptResource, error) {
	ret := make([]ScriptResource, 0)
	dec := yaml.NewDecoder(r)
	for i := 1; ; i++ {
		var res ScriptResource
		err := dec.Decode(&res)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML document %d: %v", i, err)
		}
		if res.Kind == "" && res.Metadata.Name == "" {
			continue
		}
		if res.Kind != "Script" {
			return nil, fmt.Errorf("document %d: unsupported resource kind: %s", i, res.Kind)
		}
		ret = append(ret, res)
	}
	return ret, nil
}

type applyStep struct {
	// ID is 0 when the script has to be created
	ID     int64
	Script shared.Script
}

// planApply validates every resource before anything is sent so a bad
// document does not leave the backend half applied
func planApply(existing []shared.Script, resources []ScriptResource) ([]applyStep, error) {
	byName := make(map[string]int64, len(existing))
	for _, s := range existing {
		byName[s.Name] = s.ID
	}

	seen := make(map[string]bool, len(resources))
	ret := make([]applyStep, 0, len(resources))
	for _, res := range resources {
		script := res.Script()
		form := forms.ScriptForm{Values: script}
		if err := form.Validate(); err != nil {
			return nil, fmt.Errorf("script %q: %w", script.Name, err)
		}
		if seen[script.Name] {
			return nil, fmt.Errorf("script %q is defined twice", script.Name)
		}
		seen[script.Name] = true
		ret = append(ret, applyStep{ID: byName[script.Name], Script: script})
	}
	return ret, nil
}

func runApply(cmd *cobra.Command, args []string) error {
	filename, _ := cmd.Flags().GetString("file")

	var data io.Reader
	if filename == "-" {
		data = cmd.InOrStdin()
	} else {
		f, err := os.Open(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %v", err)
		}
		defer f.Close()
		data = f
	}

	resources, err := parseManifests(data)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := cons.Dashboard.FetchScripts(ctx); err != nil {
		return err
	}
	steps, err := planApply(cons.Dashboard.State().Scripts, resources)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, step := range steps {
		if step.ID != 0 {
			fmt.Fprintf(out, "Updating script: %s\n", step.Script.Name)
			if err := cons.Dashboard.UpdateScript(ctx, step.ID, step.Script); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(out, "Creating script: %s\n", step.Script.Name)
		if err := cons.Dashboard.AddScript(ctx, step.Script); err != nil {
			return err
		}
	}
	return nil
}
