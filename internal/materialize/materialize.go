// Package materialize commits a batch of generated files under
// root/<project> with all-or-nothing semantics.
//
// Files are first written to a sibling staging directory and only then
// promoted into place one rename at a time. A failure at any point restores
// the target tree to its previous state. The conflict check and the commit
// are not atomic with respect to other processes: callers targeting the
// same project directory concurrently must serialize themselves.
package materialize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/veriforge/veriforge/internal/artifact"
	vferrors "github.com/veriforge/veriforge/internal/errors"
	"github.com/veriforge/veriforge/internal/log"
)

// ConflictPolicy decides what happens when a target file already exists.
type ConflictPolicy string

const (
	OnConflictAbort     ConflictPolicy = "abort"
	OnConflictOverwrite ConflictPolicy = "overwrite"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (ConflictPolicy, error) {
	switch p := ConflictPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case OnConflictAbort, OnConflictOverwrite:
		return p, nil
	}
	return "", vferrors.New(vferrors.EConfiguration, "on_conflict",
		fmt.Sprintf("on_conflict must be %q or %q, got %q", OnConflictAbort, OnConflictOverwrite, s))
}

// Status is the outcome of a materialization.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusConflict Status = "conflict"
	StatusFailed   Status = "failed"
)

// Result reports what was written. Paths are relative to the project
// directory, in artifact order.
type Result struct {
	Status    Status
	Written   []string
	Conflicts []string
	Artifacts []artifact.FileArtifact // input artifacts with IsNew filled in
}

const (
	filePerm = 0o644
	dirPerm  = 0o755
)

// Materializer writes artifacts through an afero filesystem.
type Materializer struct {
	fs    afero.Fs
	newID func() string
}

// New returns a Materializer over fs.
func New(fs afero.Fs) *Materializer {
	return &Materializer{fs: fs, newID: func() string { return uuid.NewString() }}
}

// NewOS returns a Materializer over the real filesystem.
func NewOS() *Materializer {
	return New(afero.NewOsFs())
}

// Materialize writes arts under root/project.
//
// Every existing target is a conflict. With OnConflictAbort any conflict
// returns StatusConflict and nothing is written. Otherwise all artifacts are
// committed, or none are: a failed write leaves the target tree as it was
// and returns an IOFailure error alongside StatusFailed.
func (m *Materializer) Materialize(root, project string, arts []artifact.FileArtifact, policy ConflictPolicy) (Result, error) {
	projectDir := filepath.Join(root, project)
	staged, conflicts, err := m.stage(projectDir, arts)
	if err != nil {
		return Result{Status: StatusFailed}, err
	}
	res := Result{Artifacts: staged, Conflicts: conflicts}

	if len(conflicts) > 0 && policy != OnConflictOverwrite {
		log.Info(log.CatMaterialize, "conflicts found, nothing written", "project", projectDir, "conflicts", len(conflicts))
		res.Status = StatusConflict
		return res, nil
	}

	if err := m.commit(root, project, staged); err != nil {
		res.Status = StatusFailed
		return res, err
	}

	res.Status = StatusSuccess
	for _, a := range staged {
		res.Written = append(res.Written, a.RelativePath)
	}
	log.Info(log.CatMaterialize, "project written", "project", projectDir, "files", len(res.Written), "overwritten", len(conflicts))
	return res, nil
}

// stage fills IsNew and collects conflicts without touching the disk.
func (m *Materializer) stage(projectDir string, arts []artifact.FileArtifact) ([]artifact.FileArtifact, []string, error) {
	var conflicts []string
	if info, err := m.fs.Stat(projectDir); err == nil && !info.IsDir() {
		conflicts = append(conflicts, ".")
	}

	staged := make([]artifact.FileArtifact, len(arts))
	for i, a := range arts {
		if err := checkRelative(a.RelativePath); err != nil {
			return nil, nil, err
		}
		exists, err := afero.Exists(m.fs, target(projectDir, a.RelativePath))
		if err != nil {
			return nil, nil, vferrors.IOFailure(a.RelativePath, err)
		}
		a.IsNew = !exists
		if exists {
			conflicts = append(conflicts, a.RelativePath)
		}
		staged[i] = a
	}
	return staged, conflicts, nil
}

// promotion records one renamed file so it can be undone.
type promotion struct {
	dst    string
	backup string // empty when dst did not exist
}

func (m *Materializer) commit(root, project string, arts []artifact.FileArtifact) error {
	stageDir := filepath.Join(root, "."+project+".staging-"+m.newID())
	filesDir := filepath.Join(stageDir, "files")
	backupDir := filepath.Join(stageDir, "backup")
	defer func() {
		if err := m.fs.RemoveAll(stageDir); err != nil {
			log.ErrorErr(log.CatMaterialize, "failed to remove staging directory", err, "dir", stageDir)
		}
	}()

	for _, a := range arts {
		p := target(filesDir, a.RelativePath)
		if err := m.fs.MkdirAll(filepath.Dir(p), dirPerm); err != nil {
			return vferrors.IOFailure(a.RelativePath, err)
		}
		if err := afero.WriteFile(m.fs, p, a.Content, filePerm); err != nil {
			return vferrors.IOFailure(a.RelativePath, err)
		}
	}
	log.Debug(log.CatMaterialize, "staged files", "dir", stageDir, "files", len(arts))

	projectDir := filepath.Join(root, project)
	var done []promotion
	var created []string
	for _, a := range arts {
		dst := target(projectDir, a.RelativePath)
		dirs, err := m.mkdirs(filepath.Dir(dst))
		created = append(created, dirs...)
		if err != nil {
			m.rollback(done, created)
			return vferrors.IOFailure(a.RelativePath, err)
		}

		p := promotion{dst: dst}
		exists, err := afero.Exists(m.fs, dst)
		if err != nil {
			m.rollback(done, created)
			return vferrors.IOFailure(a.RelativePath, err)
		}
		if exists {
			p.backup = target(backupDir, a.RelativePath)
			if err := m.fs.MkdirAll(filepath.Dir(p.backup), dirPerm); err != nil {
				m.rollback(done, created)
				return vferrors.IOFailure(a.RelativePath, err)
			}
			if err := m.fs.Rename(dst, p.backup); err != nil {
				m.rollback(done, created)
				return vferrors.IOFailure(a.RelativePath, err)
			}
		}
		if err := m.fs.Rename(target(filesDir, a.RelativePath), dst); err != nil {
			if p.backup != "" {
				_ = m.fs.Rename(p.backup, dst)
			}
			m.rollback(done, created)
			return vferrors.IOFailure(a.RelativePath, err)
		}
		done = append(done, p)
	}
	return nil
}

// rollback undoes promotions in reverse order, then removes directories
// this run created.
func (m *Materializer) rollback(done []promotion, created []string) {
	for i := len(done) - 1; i >= 0; i-- {
		p := done[i]
		if err := m.fs.Remove(p.dst); err != nil && !os.IsNotExist(err) {
			log.ErrorErr(log.CatMaterialize, "rollback: remove failed", err, "path", p.dst)
		}
		if p.backup != "" {
			if err := m.fs.Rename(p.backup, p.dst); err != nil {
				log.ErrorErr(log.CatMaterialize, "rollback: restore failed", err, "path", p.dst)
			}
		}
	}
	for i := len(created) - 1; i >= 0; i-- {
		_ = m.fs.Remove(created[i])
	}
	log.Warn(log.CatMaterialize, "rolled back partial commit", "files", len(done), "dirs", len(created))
}

// mkdirs creates dir and any missing parents, returning the directories it
// created, outermost first.
func (m *Materializer) mkdirs(dir string) ([]string, error) {
	var missing []string
	for d := dir; ; d = filepath.Dir(d) {
		exists, err := afero.DirExists(m.fs, d)
		if err != nil {
			return nil, err
		}
		if exists {
			break
		}
		missing = append(missing, d)
		if parent := filepath.Dir(d); parent == d {
			break
		}
	}
	var created []string
	for i := len(missing) - 1; i >= 0; i-- {
		err := m.fs.Mkdir(missing[i], dirPerm)
		switch {
		case os.IsExist(err):
			// Created by someone else since the check; not ours to remove.
			continue
		case err != nil:
			return created, err
		}
		created = append(created, missing[i])
	}
	return created, nil
}

func target(base, rel string) string {
	return filepath.Join(base, filepath.FromSlash(rel))
}

func checkRelative(rel string) error {
	clean := filepath.ToSlash(filepath.Clean(filepath.FromSlash(rel)))
	if rel == "" || filepath.IsAbs(rel) || clean != rel || clean == ".." || strings.HasPrefix(clean, "../") {
		return vferrors.InternalConsistency(rel, "artifact path must be relative to the project root")
	}
	return nil
}
