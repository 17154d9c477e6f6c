package materialize

import (
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/veriforge/veriforge/internal/artifact"
	vferrors "github.com/veriforge/veriforge/internal/errors"
)

// faultyFs fails the Nth write-mode open, the Nth rename or the Nth stat
// of statPath. Mkdir of racePath creates the directory and then reports
// EEXIST, as if another process got there first.
type faultyFs struct {
	afero.Fs
	failWriteAt  int
	failRenameAt int
	writes       int
	renames      int

	statPath   string
	failStatAt int
	stats      int

	racePath string
}

func (f *faultyFs) Stat(name string) (os.FileInfo, error) {
	if name == f.statPath {
		f.stats++
		if f.stats == f.failStatAt {
			return nil, &os.PathError{Op: "stat", Path: name, Err: syscall.EIO}
		}
	}
	return f.Fs.Stat(name)
}

func (f *faultyFs) Mkdir(name string, perm os.FileMode) error {
	if name == f.racePath {
		if err := f.Fs.Mkdir(name, perm); err != nil {
			return err
		}
		return &os.PathError{Op: "mkdir", Path: name, Err: syscall.EEXIST}
	}
	return f.Fs.Mkdir(name, perm)
}

func (f *faultyFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		f.writes++
		if f.writes == f.failWriteAt {
			return nil, &os.PathError{Op: "open", Path: name, Err: syscall.ENOSPC}
		}
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func (f *faultyFs) Rename(oldname, newname string) error {
	f.renames++
	if f.renames == f.failRenameAt {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: syscall.EIO}
	}
	return f.Fs.Rename(oldname, newname)
}

func fiveArtifacts() []artifact.FileArtifact {
	return []artifact.FileArtifact{
		{RelativePath: "rtl/interfaces/bus_if.sv", Content: []byte("interface bus_if;\nendinterface\n")},
		{RelativePath: "verification/common/bus_transaction.sv", Content: []byte("class bus_transaction;\nendclass\n")},
		{RelativePath: "verification/uvm/agents/bus_agent/bus_driver.sv", Content: []byte("class bus_driver;\nendclass\n")},
		{RelativePath: ".github/workflows/ci.yml", Content: []byte("name: ci\n")},
		{RelativePath: ".gitignore", Content: []byte("sim/output/\n")},
	}
}

// snapshot returns every regular file under dir keyed by slash path.
func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := map[string]string{}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return out
	}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, p)
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

func entries(t *testing.T, dir string) []string {
	t.Helper()
	des, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, de := range des {
		names = append(names, de.Name())
	}
	return names
}

func TestMaterialize_WritesEverything(t *testing.T) {
	root := t.TempDir()
	res, err := NewOS().Materialize(root, "sample", fiveArtifacts(), OnConflictAbort)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)
	require.Empty(t, res.Conflicts)
	require.Equal(t, artifact.Paths(fiveArtifacts()), sorted(res.Written))
	for _, a := range res.Artifacts {
		require.True(t, a.IsNew, a.RelativePath)
	}

	files := snapshot(t, filepath.Join(root, "sample"))
	require.Len(t, files, 5)
	require.Equal(t, "name: ci\n", files[".github/workflows/ci.yml"])
	require.Equal(t, []string{"sample"}, entries(t, root), "staging directory must be removed")
}

func TestMaterialize_AbortOnConflictWritesNothing(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "sample", ".gitignore")
	require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0o755))
	require.NoError(t, os.WriteFile(existing, []byte("hand edited\n"), 0o644))
	before := snapshot(t, root)

	res, err := NewOS().Materialize(root, "sample", fiveArtifacts(), OnConflictAbort)
	require.NoError(t, err)
	require.Equal(t, StatusConflict, res.Status)
	require.Equal(t, []string{".gitignore"}, res.Conflicts)
	require.Empty(t, res.Written)
	require.Equal(t, before, snapshot(t, root))
}

func TestMaterialize_ProjectPathIsAFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "sample"), []byte("x"), 0o644))

	res, err := NewOS().Materialize(root, "sample", fiveArtifacts(), OnConflictAbort)
	require.NoError(t, err)
	require.Equal(t, StatusConflict, res.Status)
	require.Contains(t, res.Conflicts, ".")
}

func TestMaterialize_OverwriteIsIdempotent(t *testing.T) {
	root := t.TempDir()
	m := NewOS()

	_, err := m.Materialize(root, "sample", fiveArtifacts(), OnConflictOverwrite)
	require.NoError(t, err)
	once := snapshot(t, root)

	res, err := m.Materialize(root, "sample", fiveArtifacts(), OnConflictOverwrite)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)
	require.Len(t, res.Conflicts, 5)
	for _, a := range res.Artifacts {
		require.False(t, a.IsNew)
	}
	require.Equal(t, once, snapshot(t, root))
}

func TestMaterialize_OverwriteReplacesContent(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "sample", ".gitignore")
	require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0o755))
	require.NoError(t, os.WriteFile(existing, []byte("old\n"), 0o644))

	res, err := NewOS().Materialize(root, "sample", fiveArtifacts(), OnConflictOverwrite)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)
	require.Equal(t, "sim/output/\n", snapshot(t, filepath.Join(root, "sample"))[".gitignore"])
}

func TestMaterialize_WriteFailureLeavesNothing(t *testing.T) {
	root := t.TempDir()
	m := New(&faultyFs{Fs: afero.NewOsFs(), failWriteAt: 3})

	res, err := m.Materialize(root, "sample", fiveArtifacts(), OnConflictAbort)
	require.Error(t, err)
	require.Equal(t, StatusFailed, res.Status)
	require.Equal(t, vferrors.EIO, vferrors.GetCode(err))
	require.Equal(t, "verification/uvm/agents/bus_agent/bus_driver.sv", vferrors.Describe(err).Subject)

	require.Empty(t, snapshot(t, root))
	require.Empty(t, entries(t, root))
}

func TestMaterialize_PromotionFailureRestoresPreviousTree(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "sample", "rtl", "interfaces", "bus_if.sv")
	require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0o755))
	require.NoError(t, os.WriteFile(existing, []byte("previous\n"), 0o644))
	before := snapshot(t, root)

	// Renames: backup of bus_if.sv, promote bus_if.sv, promote transaction (fails).
	m := New(&faultyFs{Fs: afero.NewOsFs(), failRenameAt: 3})
	res, err := m.Materialize(root, "sample", fiveArtifacts(), OnConflictOverwrite)
	require.Error(t, err)
	require.Equal(t, StatusFailed, res.Status)
	require.Equal(t, vferrors.EIO, vferrors.GetCode(err))

	require.Equal(t, before, snapshot(t, root))
	require.Equal(t, []string{"sample"}, entries(t, root))
	require.Equal(t, []string{"rtl"}, entries(t, filepath.Join(root, "sample")))
}

func TestMaterialize_StatFailureBeforeReplaceKeepsExistingFile(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "sample", "rtl", "interfaces", "bus_if.sv")
	require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0o755))
	require.NoError(t, os.WriteFile(existing, []byte("previous\n"), 0o644))
	before := snapshot(t, root)

	// Stats of the target: conflict check, then the pre-promotion check (fails).
	m := New(&faultyFs{Fs: afero.NewOsFs(), statPath: existing, failStatAt: 2})
	res, err := m.Materialize(root, "sample", fiveArtifacts(), OnConflictOverwrite)
	require.Error(t, err)
	require.Equal(t, StatusFailed, res.Status)
	require.Equal(t, vferrors.EIO, vferrors.GetCode(err))
	require.Equal(t, "rtl/interfaces/bus_if.sv", vferrors.Describe(err).Subject)

	require.Equal(t, before, snapshot(t, root))
	require.Equal(t, []string{"sample"}, entries(t, root))
}

func TestMkdirs_SkipsDirectoriesCreatedConcurrently(t *testing.T) {
	root := t.TempDir()
	raced := filepath.Join(root, "a")
	m := New(&faultyFs{Fs: afero.NewOsFs(), racePath: raced})

	created, err := m.mkdirs(filepath.Join(raced, "b"))
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(raced, "b")}, created)

	m.rollback(nil, created)
	require.DirExists(t, raced)
	require.NoDirExists(t, filepath.Join(raced, "b"))
}

func TestMaterialize_RejectsEscapingPath(t *testing.T) {
	root := t.TempDir()
	arts := []artifact.FileArtifact{{RelativePath: "../escape.sv", Content: []byte("x")}}

	_, err := NewOS().Materialize(root, "sample", arts, OnConflictOverwrite)
	require.Equal(t, vferrors.EInternalConsistency, vferrors.GetCode(err))
	require.Empty(t, entries(t, root))
}

func TestMaterialize_MemFs(t *testing.T) {
	mem := afero.NewMemMapFs()
	m := New(mem)
	m.newID = func() string { return "fixed" }

	res, err := m.Materialize("/work", "sample", fiveArtifacts(), OnConflictAbort)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)

	data, err := afero.ReadFile(mem, "/work/sample/.gitignore")
	require.NoError(t, err)
	require.Equal(t, "sim/output/\n", string(data))

	exists, err := afero.Exists(mem, "/work/.sample.staging-fixed")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    ConflictPolicy
		wantErr bool
	}{
		{in: "abort", want: OnConflictAbort},
		{in: "Overwrite", want: OnConflictOverwrite},
		{in: " abort ", want: OnConflictAbort},
		{in: "merge", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				require.Equal(t, vferrors.EConfiguration, vferrors.GetCode(err))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func sorted(in []string) []string {
	arts := make([]artifact.FileArtifact, 0, len(in))
	for _, p := range in {
		arts = append(arts, artifact.FileArtifact{RelativePath: p})
	}
	return artifact.Paths(arts)
}
