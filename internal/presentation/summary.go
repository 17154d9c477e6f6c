package presentation

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/veriforge/veriforge/internal/engine"
	"github.com/veriforge/veriforge/internal/materialize"
)

var (
	successColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	warningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	errorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"}
	accentColor  = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#54A0FF"}

	successStyle = lipgloss.NewStyle().Bold(true).Foreground(successColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(errorColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
)

// actionMarks prefixes each planned file in a dry run.
var actionMarks = map[materialize.Action]string{
	materialize.ActionCreate:    "+",
	materialize.ActionUpdate:    "~",
	materialize.ActionUnchanged: "=",
}

// WriteSummary prints a human-readable report of a generation result.
func WriteSummary(w io.Writer, res *engine.GenerationResult) error {
	var sb strings.Builder

	switch res.Status {
	case materialize.StatusSuccess:
		if res.Plan != nil {
			fmt.Fprintf(&sb, "%s %s\n", headerStyle.Render("Dry run:"), res.ProjectDir)
			for _, p := range res.Plan {
				fmt.Fprintf(&sb, "  %s %s\n", actionMarks[p.Action], p.Path)
				if p.Diff != "" {
					for _, line := range strings.Split(strings.TrimSuffix(p.Diff, "\n"), "\n") {
						sb.WriteString("      " + mutedStyle.Render(line) + "\n")
					}
				}
			}
			break
		}
		fmt.Fprintf(&sb, "%s %s (%d files)\n", successStyle.Render("Created"), res.ProjectDir, len(res.ArtifactsWritten))
		for _, p := range res.ArtifactsWritten {
			sb.WriteString("  " + mutedStyle.Render(p) + "\n")
		}
	case materialize.StatusConflict:
		fmt.Fprintf(&sb, "%s %d existing files in %s\n", errorStyle.Render("Conflict:"), len(res.Conflicts), res.ProjectDir)
		for _, p := range res.Conflicts {
			sb.WriteString("  " + p + "\n")
		}
		if res.Error != nil {
			sb.WriteString(mutedStyle.Render(res.Error.Message) + "\n")
		}
	default:
		sb.WriteString(errorStyle.Render("Failed:") + " ")
		if res.Error != nil {
			fmt.Fprintf(&sb, "[%s] %s", res.Error.Code, res.Error.Message)
		}
		sb.WriteString("\n")
	}

	for _, warn := range res.Warnings {
		sb.WriteString(warningStyle.Render("warning: "+warn) + "\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteCatalog prints the catalog as sections of aligned name/detail rows.
func WriteCatalog(w io.Writer, c CatalogDTO) error {
	var sb strings.Builder

	section := func(title string, rows [][2]string) {
		sb.WriteString(headerStyle.Render(title) + "\n")
		width := 0
		for _, r := range rows {
			width = max(width, lipgloss.Width(r[0]))
		}
		for _, r := range rows {
			fmt.Fprintf(&sb, "  %-*s  %s\n", width, r[0], mutedStyle.Render(r[1]))
		}
		sb.WriteString("\n")
	}

	var rows [][2]string
	for _, p := range c.Protocols {
		detail := fmt.Sprintf("%d signals, sim %s", len(p.Signals), p.DefaultSimulator)
		if p.BurstCapable {
			detail += ", burst"
		}
		if p.Kind == "custom" {
			detail += ", custom"
		}
		rows = append(rows, [2]string{p.Name, detail})
	}
	section("Protocols", rows)

	rows = nil
	for _, s := range c.Simulators {
		rows = append(rows, [2]string{s.Name, "waves: " + s.WaveFormat})
	}
	section("Simulators", rows)

	rows = nil
	for _, f := range c.Features {
		detail := f.Description
		if len(f.Requires) > 0 {
			detail += " (requires " + strings.Join(f.Requires, ", ") + ")"
		}
		rows = append(rows, [2]string{f.Name, detail})
	}
	section("Features", rows)

	rows = nil
	for _, t := range c.Templates {
		rows = append(rows, [2]string{t.Name, t.Protocol + ": " + strings.Join(t.Features, ", ")})
	}
	section("Templates", rows)

	_, err := io.WriteString(w, strings.TrimSuffix(sb.String(), "\n"))
	return err
}
