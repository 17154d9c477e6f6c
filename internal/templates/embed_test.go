package templates

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFS_ContainsDocuments(t *testing.T) {
	for _, name := range []string{CatalogFile, SchemaFile, ManifestFile, ScenariosFile} {
		data, err := fs.ReadFile(FS(), name)
		require.NoError(t, err, name)
		require.NotEmpty(t, data, name)
	}
	require.NotEmpty(t, Schema())
}

func TestFS_ManifestTemplatesExist(t *testing.T) {
	data, err := fs.ReadFile(FS(), ManifestFile)
	require.NoError(t, err)

	var doc struct {
		Components []struct {
			Template string `yaml:"template"`
		} `yaml:"components"`
	}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	require.NotEmpty(t, doc.Components)

	for _, c := range doc.Components {
		_, err := fs.Stat(FS(), ComponentsDir+"/"+c.Template)
		require.NoError(t, err, "generic body for %s", c.Template)
	}
}

func TestFS_NoTimestamps(t *testing.T) {
	var matches []string
	err := fs.WalkDir(FS(), ComponentsDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(path, ".tmpl") {
			return nil
		}
		data, err := fs.ReadFile(FS(), path)
		if err != nil {
			return err
		}
		if strings.Contains(string(data), "Generated:") || strings.Contains(string(data), "$time") {
			matches = append(matches, path)
		}
		return nil
	})

	require.NoError(t, err)
	require.Empty(t, matches, "templates must render deterministically: %v", matches)
}
