package synth

import (
	"fmt"
	"io/fs"
	"sort"

	"gopkg.in/yaml.v3"

	vferrors "github.com/veriforge/veriforge/internal/errors"
	"github.com/veriforge/veriforge/internal/templates"
)

// Component is one manifest entry: a template body and the path it is
// written to.
type Component struct {
	Name        string `yaml:"name"`
	Stage       string `yaml:"stage"`
	Template    string `yaml:"template"`
	Path        string `yaml:"path"`
	Requires    string `yaml:"requires"`
	PerScenario bool   `yaml:"per_scenario"`
	CheckVIF    bool   `yaml:"check_vif"`
	CheckYAML   bool   `yaml:"check_yaml"`
}

// Manifest is the ordered component list. Components are sorted by stage,
// keeping document order within a stage.
type Manifest struct {
	Stages     []string    `yaml:"stages"`
	Components []Component `yaml:"components"`
}

// Scenario is a built-in verification scenario.
type Scenario struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Protocols   []string `yaml:"protocols"` // protocol kinds; empty means every built-in kind
	Reset       bool     `yaml:"reset"`
	Reads       int      `yaml:"reads"`
	Writes      int      `yaml:"writes"`
	Burst       bool     `yaml:"burst"`
	BackToBack  bool     `yaml:"back_to_back"`
}

type scenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// LoadManifest reads and orders the component manifest in fsys.
func LoadManifest(fsys fs.FS) (*Manifest, error) {
	content, err := fs.ReadFile(fsys, templates.ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(content, &m); err != nil {
		return nil, vferrors.Wrap(vferrors.EInternalConsistency, templates.ManifestFile, "parse manifest", err)
	}

	rank := make(map[string]int, len(m.Stages))
	for i, s := range m.Stages {
		rank[s] = i
	}
	names := make(map[string]bool, len(m.Components))
	for _, c := range m.Components {
		switch {
		case c.Name == "" || c.Template == "" || c.Path == "":
			return nil, vferrors.InternalConsistency(templates.ManifestFile, fmt.Sprintf("component %q is missing name, template or path", c.Name))
		case names[c.Name]:
			return nil, vferrors.InternalConsistency(c.Name, "component defined twice in manifest")
		}
		if _, ok := rank[c.Stage]; !ok {
			return nil, vferrors.InternalConsistency(c.Name, fmt.Sprintf("unknown stage %q", c.Stage))
		}
		names[c.Name] = true
	}
	sort.SliceStable(m.Components, func(i, j int) bool {
		return rank[m.Components[i].Stage] < rank[m.Components[j].Stage]
	})
	return &m, nil
}

// LoadScenarios reads the scenario catalog in fsys, keyed by name.
func LoadScenarios(fsys fs.FS) (map[string]Scenario, error) {
	content, err := fs.ReadFile(fsys, templates.ScenariosFile)
	if err != nil {
		return nil, fmt.Errorf("read scenarios: %w", err)
	}
	var f scenarioFile
	if err := yaml.Unmarshal(content, &f); err != nil {
		return nil, vferrors.Wrap(vferrors.EInternalConsistency, templates.ScenariosFile, "parse scenarios", err)
	}
	out := make(map[string]Scenario, len(f.Scenarios))
	for _, sc := range f.Scenarios {
		if _, dup := out[sc.Name]; dup {
			return nil, vferrors.InternalConsistency(sc.Name, "scenario defined twice")
		}
		out[sc.Name] = sc
	}
	return out, nil
}
