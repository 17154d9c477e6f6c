// Package catalog loads catalog documents from YAML into the domain
// catalog. Every document is checked against the embedded JSON schema
// before it is decoded, so schema violations name the offending key.
package catalog

import (
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	domain "github.com/veriforge/veriforge/internal/domain/catalog"
	"github.com/veriforge/veriforge/internal/templates"
)

// CatalogFile is the root structure of a catalog document.
type CatalogFile struct {
	Naming     *NamingDef     `yaml:"naming"`
	Features   []FeatureDef   `yaml:"features"`
	Simulators []SimulatorDef `yaml:"simulators"`
	Protocols  []ProtocolDef  `yaml:"protocols"`
	Templates  []TemplateDef  `yaml:"templates"`
}

type NamingDef struct {
	ModuleCase string `yaml:"module_case"`
	FileCase   string `yaml:"file_case"`
	ClassCase  string `yaml:"class_case"`
	SignalCase string `yaml:"signal_case"`
}

type FeatureDef struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Requires    []string `yaml:"requires"`
}

type SimulatorDef struct {
	Name         string   `yaml:"name"`
	CompileFlags []string `yaml:"compile_flags"`
	WaveFormat   string   `yaml:"wave_format"`
}

type ProtocolDef struct {
	Name              string      `yaml:"name"`
	DefaultSimulator  string      `yaml:"default_simulator"`
	BurstCapable      bool        `yaml:"burst_capable"`
	SupportedFeatures []string    `yaml:"supported_features"`
	DefaultScenarios  []string    `yaml:"default_scenarios"`
	Signals           []SignalDef `yaml:"signals"`
}

type SignalDef struct {
	Name      string `yaml:"name"`
	Width     int    `yaml:"width"`
	Direction string `yaml:"direction"`
	Role      string `yaml:"role"`
}

type TemplateDef struct {
	Name      string   `yaml:"name"`
	Protocol  string   `yaml:"protocol"`
	Simulator string   `yaml:"simulator"`
	Features  []string `yaml:"features"`
	Scenarios []string `yaml:"scenarios"`
}

var schemaLoader = gojsonschema.NewBytesLoader(templates.Schema())

// ParseDefinition validates and decodes one catalog document. name is used
// in error messages only.
func ParseDefinition(name string, content []byte) (domain.Definition, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return domain.Definition{}, fmt.Errorf("parse %s: %w", name, &domain.SchemaError{Key: "(root)", Reason: err.Error()})
	}
	if raw == nil {
		raw = map[string]any{}
	}
	if err := validateSchema(raw); err != nil {
		return domain.Definition{}, fmt.Errorf("validate %s: %w", name, err)
	}

	var file CatalogFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return domain.Definition{}, fmt.Errorf("parse %s: %w", name, &domain.SchemaError{Key: "(root)", Reason: err.Error()})
	}
	return file.toDefinition(), nil
}

// LoadDefinition reads and decodes the catalog document at path in fsys.
func LoadDefinition(fsys fs.FS, path string) (domain.Definition, error) {
	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return domain.Definition{}, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseDefinition(path, content)
}

// LoadBuiltin decodes the embedded catalog.
func LoadBuiltin() (domain.Definition, error) {
	return LoadDefinition(templates.FS(), templates.CatalogFile)
}

func validateSchema(raw map[string]any) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(raw))
	if err != nil {
		return &domain.SchemaError{Key: "(root)", Reason: err.Error()}
	}
	if result.Valid() {
		return nil
	}

	errs := result.Errors()
	sort.SliceStable(errs, func(i, j int) bool { return schemaKey(errs[i]) < schemaKey(errs[j]) })
	first := errs[0]
	return &domain.SchemaError{Key: schemaKey(first), Reason: first.Description()}
}

var indexSegment = regexp.MustCompile(`\.(\d+)(\.|$)`)

// schemaKey turns a gojsonschema field path ("protocols.0.signals.2") into
// the dotted form used by catalog errors ("protocols[0].signals[2]"), and
// appends the property named by required/additional-property errors.
func schemaKey(e gojsonschema.ResultError) string {
	field := e.Field()
	for indexSegment.MatchString(field) {
		field = indexSegment.ReplaceAllString(field, "[$1]$2")
	}
	if prop, ok := e.Details()["property"].(string); ok && prop != "" {
		if field == "(root)" {
			return prop
		}
		return field + "." + prop
	}
	return field
}

func (f CatalogFile) toDefinition() domain.Definition {
	var def domain.Definition
	if f.Naming != nil {
		def.Naming = &domain.NamingConventions{
			Module: domain.Casing(f.Naming.ModuleCase),
			File:   domain.Casing(f.Naming.FileCase),
			Class:  domain.Casing(f.Naming.ClassCase),
			Signal: domain.Casing(f.Naming.SignalCase),
		}
	}
	for _, fd := range f.Features {
		def.Features = append(def.Features, domain.Feature{
			Name:        fd.Name,
			Description: strings.TrimSpace(fd.Description),
			Requires:    fd.Requires,
		})
	}
	for _, sd := range f.Simulators {
		def.Simulators = append(def.Simulators, domain.SimulatorProfile{
			Name:         sd.Name,
			CompileFlags: sd.CompileFlags,
			WaveFormat:   sd.WaveFormat,
		})
	}
	for _, pd := range f.Protocols {
		p := domain.ProtocolDef{
			Name:              pd.Name,
			DefaultSimulator:  pd.DefaultSimulator,
			SupportedFeatures: pd.SupportedFeatures,
			DefaultScenarios:  pd.DefaultScenarios,
			BurstCapable:      pd.BurstCapable,
		}
		for _, s := range pd.Signals {
			p.Signals = append(p.Signals, domain.SignalDecl{
				Name:      s.Name,
				Width:     s.Width,
				Direction: domain.Direction(s.Direction),
				Role:      s.Role,
			})
		}
		def.Protocols = append(def.Protocols, p)
	}
	for _, td := range f.Templates {
		def.Templates = append(def.Templates, domain.NamedTemplate{
			Name:      td.Name,
			Protocol:  td.Protocol,
			Simulator: td.Simulator,
			Features:  td.Features,
			Scenarios: td.Scenarios,
		})
	}
	return def
}
