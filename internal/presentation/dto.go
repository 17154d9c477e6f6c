package presentation

import (
	"github.com/veriforge/veriforge/internal/domain/catalog"
)

// CatalogDTO represents the catalog for presentation
type CatalogDTO struct {
	Protocols  []ProtocolDTO  `json:"protocols"`
	Simulators []SimulatorDTO `json:"simulators"`
	Features   []FeatureDTO   `json:"features"`
	Templates  []TemplateDTO  `json:"templates"`
}

// ProtocolDTO represents one protocol with its signal set
type ProtocolDTO struct {
	Name              string      `json:"name"`
	Kind              string      `json:"kind"`
	DefaultSimulator  string      `json:"default_simulator"`
	BurstCapable      bool        `json:"burst_capable"`
	SupportedFeatures []string    `json:"supported_features"`
	DefaultScenarios  []string    `json:"default_scenarios"`
	Signals           []SignalDTO `json:"signals"`
}

// SignalDTO represents one protocol signal
type SignalDTO struct {
	Name      string `json:"name"`
	Width     int    `json:"width"`
	Direction string `json:"direction"`
	Role      string `json:"role,omitempty"`
}

// SimulatorDTO represents a simulator profile
type SimulatorDTO struct {
	Name         string   `json:"name"`
	CompileFlags []string `json:"compile_flags"`
	WaveFormat   string   `json:"wave_format"`
}

// FeatureDTO represents a feature flag
type FeatureDTO struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Requires    []string `json:"requires,omitempty"`
}

// TemplateDTO represents a named request preset
type TemplateDTO struct {
	Name      string   `json:"name"`
	Protocol  string   `json:"protocol"`
	Simulator string   `json:"simulator,omitempty"`
	Features  []string `json:"features"`
	Scenarios []string `json:"scenarios"`
}

// FromProtocol converts a domain protocol to a DTO.
func FromProtocol(p catalog.Protocol) ProtocolDTO {
	prof := p.Profile()
	dto := ProtocolDTO{
		Name:              p.Name(),
		Kind:              p.Kind().String(),
		SupportedFeatures: nonNil(prof.SupportedFeatures()),
		DefaultScenarios:  nonNil(prof.DefaultScenarios()),
		DefaultSimulator:  prof.DefaultSimulator(),
		BurstCapable:      prof.BurstCapable(),
		Signals:           make([]SignalDTO, 0),
	}
	for _, s := range prof.Signals() {
		dto.Signals = append(dto.Signals, SignalDTO{
			Name:      s.Name,
			Width:     s.Width,
			Direction: string(s.Direction),
			Role:      s.Role,
		})
	}
	return dto
}

// FromCatalog converts the whole catalog, keeping declaration order.
func FromCatalog(c *catalog.Catalog) CatalogDTO {
	dto := CatalogDTO{
		Protocols:  make([]ProtocolDTO, 0),
		Simulators: make([]SimulatorDTO, 0),
		Features:   make([]FeatureDTO, 0),
		Templates:  make([]TemplateDTO, 0),
	}
	for _, p := range c.Protocols() {
		dto.Protocols = append(dto.Protocols, FromProtocol(p))
	}
	for _, s := range c.Simulators() {
		dto.Simulators = append(dto.Simulators, SimulatorDTO{
			Name:         s.Name,
			CompileFlags: nonNil(s.CompileFlags),
			WaveFormat:   s.WaveFormat,
		})
	}
	for _, f := range c.Features() {
		dto.Features = append(dto.Features, FeatureDTO{
			Name:        f.Name,
			Description: f.Description,
			Requires:    f.Requires,
		})
	}
	for _, t := range c.Templates() {
		dto.Templates = append(dto.Templates, TemplateDTO{
			Name:      t.Name,
			Protocol:  t.Protocol,
			Simulator: t.Simulator,
			Features:  nonNil(t.Features),
			Scenarios: nonNil(t.Scenarios),
		})
	}
	return dto
}

// nonNil keeps empty lists as [] in JSON output.
func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
