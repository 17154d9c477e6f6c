// Package templates embeds the built-in catalog, the component manifest,
// the scenario catalog and every template body.
package templates

import (
	"embed"
	"io/fs"
)

// The structure is:
//   - catalog.yaml, catalog.schema.json
//   - manifest.yaml, scenarios.yaml
//   - components/*.tmpl (generic bodies)
//   - components/<kind>/*.tmpl (protocol-specific bodies)
//
//go:embed catalog.yaml catalog.schema.json manifest.yaml scenarios.yaml components
var builtin embed.FS

const (
	CatalogFile   = "catalog.yaml"
	SchemaFile    = "catalog.schema.json"
	ManifestFile  = "manifest.yaml"
	ScenariosFile = "scenarios.yaml"
	ComponentsDir = "components"
)

// FS returns the embedded filesystem.
func FS() fs.FS {
	return builtin
}

// Schema returns the JSON schema every catalog document must satisfy.
func Schema() []byte {
	data, err := builtin.ReadFile(SchemaFile)
	if err != nil {
		panic("templates: embedded schema missing: " + err.Error())
	}
	return data
}
