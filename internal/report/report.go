// Package report prints run summaries for humans.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/drpaneas/resonance/internal/evaluate"
	"github.com/drpaneas/resonance/internal/persona"
	"github.com/drpaneas/resonance/internal/textutil"
)

// TopN is how many messages the summary lists.
const TopN = 3

// SampleSize is how many personas the cohort summary shows per role.
const SampleSize = 3

// Printer renders summaries to w, styling only when w is a terminal.
type Printer struct {
	w     io.Writer
	title lipgloss.Style
	score lipgloss.Style
	label lipgloss.Style
	dim   lipgloss.Style
	warn  lipgloss.Style
}

// NewPrinter returns a Printer for w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:     w,
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		score: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575")),
		label: r.NewStyle().Bold(true),
		dim:   r.NewStyle().Foreground(lipgloss.Color("#626262")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("#FF5555")),
	}
}

// Top prints the highest ranked evaluations. evals must already be ranked.
func (p *Printer) Top(evals []evaluate.MessageEvaluation) {
	n := min(TopN, len(evals))
	fmt.Fprintf(p.w, "\n%s\n", p.title.Render(fmt.Sprintf("Top %d Most Resonant Messages:", n)))
	for i, ev := range evals[:n] {
		line := fmt.Sprintf("\n%d. Score: %s", i+1, p.score.Render(fmt.Sprintf("%.2f", ev.AverageScore)))
		if ev.NoCoverage {
			line += " " + p.warn.Render("(no valid responses)")
		}
		fmt.Fprintln(p.w, line)
		fmt.Fprintf(p.w, "%s %s\n", p.label.Render("Message:"), ev.Message)
		fmt.Fprintf(p.w, "\n%s\n", p.label.Render("Key Themes:"))
		fmt.Fprintf(p.w, "Strengths: %s\n", formatList(ev.KeyThemes.Strengths))
		fmt.Fprintf(p.w, "Concerns: %s\n", formatList(ev.KeyThemes.Concerns))
		fmt.Fprintln(p.w, p.dim.Render(fmt.Sprintf("(%d evaluated, %d valid, %d rejected, %d failed)",
			ev.Evaluated, len(ev.DetailedResponses), ev.Rejected, ev.Failed)))
	}
}

// Cohorts prints the size of every non-empty cohort with a few sample
// personas.
func (p *Printer) Cohorts(c *persona.Cohorts) {
	roles := c.Roles()
	if len(roles) == 0 {
		fmt.Fprintln(p.w, p.warn.Render("No personas matched any role."))
		return
	}
	for _, role := range roles {
		members := c.Members(role)
		fmt.Fprintf(p.w, "\n%s %s\n", p.title.Render(role.Selector()), p.dim.Render(fmt.Sprintf("(%d personas)", len(members))))
		for _, m := range members[:min(SampleSize, len(members))] {
			fmt.Fprintf(p.w, "  - %s\n", textutil.Truncate(m, 100, "..."))
		}
	}
	if dropped := c.Dropped(); dropped > 0 {
		fmt.Fprintln(p.w, p.dim.Render(fmt.Sprintf("\n%d personas matched no role", dropped)))
	}
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, "; ")
}
