package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	domain "github.com/veriforge/veriforge/internal/domain/catalog"
	vferrors "github.com/veriforge/veriforge/internal/errors"
)

const myBusOverlay = `
protocols:
  - name: MyBus
    default_simulator: verilator
    supported_features: [uvm_environment]
    signals:
      - {name: clk, width: 1, direction: input, role: clock}
      - {name: req, width: 1, direction: output}
      - {name: gnt, width: 1, direction: input}
templates:
  - name: mybus-basic
    protocol: MyBus
    features: [uvm_environment]
`

func TestLoadBuiltin(t *testing.T) {
	def, err := LoadBuiltin()
	require.NoError(t, err)

	c, err := domain.NewCatalog(def)
	require.NoError(t, err)

	require.Equal(t, []string{"APB", "AXI4", "AXI4-Lite", "UART"}, c.ProtocolNames())
	require.Equal(t, []string{"dsim", "questa", "vcs", "verilator", "xcelium"}, c.SimulatorNames())
	require.Contains(t, c.FeatureNames(), "nightly_regression")

	axi, err := c.Protocol("AXI4")
	require.NoError(t, err)
	require.Equal(t, domain.KindAXI4, axi.Kind())
	require.True(t, axi.Profile().BurstCapable())
	require.Equal(t, "dsim", axi.Profile().DefaultSimulator())

	lite, err := c.Protocol("axi4-lite")
	require.NoError(t, err)
	require.Equal(t, domain.KindAXI4Lite, lite.Kind())
}

func TestParseDefinition_SchemaErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantKey string
	}{
		{
			name:    "unknown top-level key",
			yaml:    "protocol: []\n",
			wantKey: "protocol",
		},
		{
			name: "bad casing",
			yaml: `
naming: {module_case: kebab, file_case: snake, class_case: snake, signal_case: snake}
`,
			wantKey: "naming.module_case",
		},
		{
			name: "missing naming key",
			yaml: `
naming: {module_case: snake, file_case: snake, class_case: snake}
`,
			wantKey: "naming.signal_case",
		},
		{
			name: "zero width signal",
			yaml: `
protocols:
  - name: Bad
    default_simulator: dsim
    signals:
      - {name: a, width: 1, direction: input}
      - {name: b, width: 0, direction: output}
`,
			wantKey: "protocols[0].signals[1].width",
		},
		{
			name: "bad direction",
			yaml: `
protocols:
  - name: Bad
    default_simulator: dsim
    signals:
      - {name: a, width: 1, direction: inout}
`,
			wantKey: "protocols[0].signals[0].direction",
		},
		{
			name: "simulator missing wave format",
			yaml: `
simulators:
  - name: ghdl
`,
			wantKey: "simulators[0].wave_format",
		},
		{
			name:    "not a mapping",
			yaml:    "- just\n- a list\n",
			wantKey: "(root)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDefinition("test.yaml", []byte(tt.yaml))

			var schemaErr *domain.SchemaError
			require.ErrorAs(t, err, &schemaErr)
			require.Equal(t, tt.wantKey, schemaErr.Key)
			require.Contains(t, err.Error(), "test.yaml")
			require.Equal(t, vferrors.EConfiguration, vferrors.GetCode(err))
		})
	}
}

func TestLoadDefinition_FromMapFS(t *testing.T) {
	fsys := fstest.MapFS{
		"overlay/mybus.yaml": &fstest.MapFile{Data: []byte(myBusOverlay)},
	}

	def, err := LoadDefinition(fsys, "overlay/mybus.yaml")
	require.NoError(t, err)
	require.Len(t, def.Protocols, 1)
	require.Equal(t, "MyBus", def.Protocols[0].Name)
	require.Equal(t, domain.DirOutput, def.Protocols[0].Signals[1].Direction)
	require.Equal(t, "clock", def.Protocols[0].Signals[0].Role)

	_, err = LoadDefinition(fsys, "overlay/missing.yaml")
	require.Error(t, err)
}

func TestParseDefinition_Empty(t *testing.T) {
	def, err := ParseDefinition("empty.yaml", nil)
	require.NoError(t, err)
	require.Nil(t, def.Naming)
	require.Empty(t, def.Protocols)
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "buses"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "buses", "mybus.yaml"), []byte(myBusOverlay), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sims.yml"), []byte("simulators:\n  - {name: riviera, wave_format: asdb}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	defs, err := LoadOverlay(dir)
	require.NoError(t, err)
	require.Len(t, defs, 2)

	c, err := Load(dir)
	require.NoError(t, err)

	p, err := c.Protocol("mybus")
	require.NoError(t, err)
	require.True(t, p.IsCustom())

	_, err = c.Simulator("riviera")
	require.NoError(t, err)

	_, err = c.Template("mybus-basic")
	require.NoError(t, err)
}

func TestLoadOverlay_MissingDir(t *testing.T) {
	defs, err := LoadOverlay(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	require.Nil(t, defs)

	defs, err = LoadOverlay("")
	require.NoError(t, err)
	require.Nil(t, defs)
}

func TestLoad_OverlayCannotRedefineBuiltin(t *testing.T) {
	dir := t.TempDir()
	overlay := `
protocols:
  - name: axi4
    default_simulator: dsim
    signals:
      - {name: clk, width: 1, direction: input}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "axi.yaml"), []byte(overlay), 0o644))

	_, err := Load(dir)

	var schemaErr *domain.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Equal(t, "protocols.axi4", schemaErr.Key)
}

func TestLoad_InvalidOverlayIsFatal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("protocols: {oops: 1}\n"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	require.Equal(t, vferrors.EConfiguration, vferrors.GetCode(err))
}
