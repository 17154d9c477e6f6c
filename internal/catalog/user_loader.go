package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	domain "github.com/veriforge/veriforge/internal/domain/catalog"
	"github.com/veriforge/veriforge/internal/log"
)

// LoadOverlay decodes every *.yaml and *.yml document under dir, in
// lexical path order. A missing directory yields no overlays. Unlike the
// built-in catalog, a broken overlay document is a configuration error.
func LoadOverlay(dir string) ([]domain.Definition, error) {
	if dir == "" {
		return nil, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat catalog dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, &domain.SchemaError{Key: "catalog_dir", Reason: fmt.Sprintf("%s is not a directory", dir)}
	}

	var paths []string
	for _, pattern := range []string{"**/*.yaml", "**/*.yml"} {
		matches, err := doublestar.FilepathGlob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	defs := make([]domain.Definition, 0, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		def, err := ParseDefinition(p, content)
		if err != nil {
			return nil, err
		}
		log.Debug(log.CatCatalog, "loaded catalog overlay", "path", p,
			"protocols", len(def.Protocols), "simulators", len(def.Simulators), "templates", len(def.Templates))
		defs = append(defs, def)
	}
	return defs, nil
}

// Load builds the catalog from the embedded document plus any overlays
// found in overlayDir.
func Load(overlayDir string) (*domain.Catalog, error) {
	base, err := LoadBuiltin()
	if err != nil {
		return nil, fmt.Errorf("load built-in catalog: %w", err)
	}
	overlays, err := LoadOverlay(overlayDir)
	if err != nil {
		return nil, fmt.Errorf("load catalog overlay: %w", err)
	}
	c, err := domain.NewCatalog(base, overlays...)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	log.Info(log.CatCatalog, "catalog ready",
		"protocols", len(c.Protocols()), "simulators", len(c.Simulators()), "overlays", len(overlays))
	return c, nil
}
