// Package artifact holds the file artifacts passed from the synthesizer to
// the materializer.
package artifact

import "sort"

// FileArtifact is one generated file. RelativePath is slash-separated and
// relative to the project root.
type FileArtifact struct {
	RelativePath string
	Content      []byte
	Component    string // manifest component that produced the file
	IsNew        bool   // set by the materializer: no file exists at the target yet
}

// Paths returns the relative paths of arts in sorted order.
func Paths(arts []FileArtifact) []string {
	out := make([]string, 0, len(arts))
	for _, a := range arts {
		out = append(out, a.RelativePath)
	}
	sort.Strings(out)
	return out
}
