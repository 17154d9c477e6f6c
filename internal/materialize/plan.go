package materialize

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/afero"

	"github.com/veriforge/veriforge/internal/artifact"
	vferrors "github.com/veriforge/veriforge/internal/errors"
)

// Action is what a commit would do to one file.
type Action string

const (
	ActionCreate    Action = "create"
	ActionUpdate    Action = "update"
	ActionUnchanged Action = "unchanged"
)

// PlannedFile is one entry of a dry run.
type PlannedFile struct {
	Path   string `json:"path"`
	Action Action `json:"action"`
	Diff   string `json:"diff,omitempty"` // set for updates only
}

// diffContext is the number of unchanged lines kept around each change.
const diffContext = 3

// Plan reports what Materialize would do with OnConflictOverwrite. It never
// writes.
func (m *Materializer) Plan(root, project string, arts []artifact.FileArtifact) ([]PlannedFile, error) {
	projectDir := filepath.Join(root, project)
	out := make([]PlannedFile, 0, len(arts))
	for _, a := range arts {
		if err := checkRelative(a.RelativePath); err != nil {
			return nil, err
		}
		p := target(projectDir, a.RelativePath)
		exists, err := afero.Exists(m.fs, p)
		if err != nil {
			return nil, vferrors.IOFailure(a.RelativePath, err)
		}
		if !exists {
			out = append(out, PlannedFile{Path: a.RelativePath, Action: ActionCreate})
			continue
		}
		current, err := afero.ReadFile(m.fs, p)
		if err != nil {
			return nil, vferrors.Wrap(vferrors.EIO, a.RelativePath, "read "+a.RelativePath, err)
		}
		if bytes.Equal(current, a.Content) {
			out = append(out, PlannedFile{Path: a.RelativePath, Action: ActionUnchanged})
			continue
		}
		out = append(out, PlannedFile{
			Path:   a.RelativePath,
			Action: ActionUpdate,
			Diff:   lineDiff(a.RelativePath, string(current), string(a.Content)),
		})
	}
	return out, nil
}

// lineDiff renders a line-oriented diff from old to new, collapsing long
// unchanged runs to diffContext lines on each side.
func lineDiff(path, old, new string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(old, new)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", path, path)
	for i, d := range diffs {
		text := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			writeLines(&sb, "+", text)
		case diffmatchpatch.DiffDelete:
			writeLines(&sb, "-", text)
		default:
			head, tail := diffContext, diffContext
			if i == 0 {
				head = 0
			}
			if i == len(diffs)-1 {
				tail = 0
			}
			if len(text) <= head+tail+1 {
				writeLines(&sb, " ", text)
				continue
			}
			writeLines(&sb, " ", text[:head])
			fmt.Fprintf(&sb, "@@ %d unchanged lines @@\n", len(text)-head-tail)
			writeLines(&sb, " ", text[len(text)-tail:])
		}
	}
	return sb.String()
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func writeLines(sb *strings.Builder, prefix string, lines []string) {
	for _, l := range lines {
		sb.WriteString(prefix)
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
}
