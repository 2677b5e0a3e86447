// Package report renders run results on a terminal.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"nlu-regress/internal/matcher"
	"nlu-regress/internal/runner"
)

const (
	intentGlyph = "#"
	entityGlyph = "*"
)

// Renderer prints glyphs while results arrive and the issue report once the
// run is complete. It implements runner.Observer.
type Renderer struct {
	mu  sync.Mutex
	out io.Writer

	severity map[matcher.Severity]lipgloss.Style
	unknown  lipgloss.Style
	summary  lipgloss.Style
	muted    lipgloss.Style
}

// NewRenderer returns a renderer writing to out. With color disabled, or when
// out is not a terminal, output is plain text.
func NewRenderer(out io.Writer, color bool) *Renderer {
	lr := lipgloss.NewRenderer(out)
	if !color {
		lr.SetColorProfile(termenv.Ascii)
	}
	return &Renderer{
		out: out,
		severity: map[matcher.Severity]lipgloss.Style{
			matcher.SeverityNone:     lr.NewStyle().Foreground(lipgloss.Color("2")),
			matcher.SeverityLow:      lr.NewStyle().Foreground(lipgloss.Color("3")),
			matcher.SeverityMedium:   lr.NewStyle().Foreground(lipgloss.Color("1")),
			matcher.SeverityCritical: lr.NewStyle().Foreground(lipgloss.Color("5")),
		},
		unknown: lr.NewStyle().Background(lipgloss.Color("6")),
		summary: lr.NewStyle().Foreground(lipgloss.Color("6")),
		muted:   lr.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (r *Renderer) paint(s string, sev matcher.Severity) string {
	if style, ok := r.severity[sev]; ok {
		return style.Render(s)
	}
	return r.unknown.Render(s)
}

// Header prints the run banner.
func (r *Renderer) Header() {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(r.out, "\n\nREGRESSION TESTS\n\n")
}

// OnResult streams one glyph for the intent and one per entity.
func (r *Renderer) OnResult(res runner.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var b strings.Builder
	b.WriteString(r.paint(intentGlyph, res.Intent.Severity))
	for _, e := range res.Entities {
		b.WriteString(r.paint(entityGlyph, e.Severity))
	}
	fmt.Fprint(r.out, b.String())
}

// OnComplete prints the summary line and the issue details.
func (r *Renderer) OnComplete(rep *runner.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()

	model := rep.Model
	if model == "" {
		model = "unknown model"
	}
	fmt.Fprintf(r.out, "\n\n%s\n", r.summary.Render(fmt.Sprintf("%d tests run on %s in %s", len(rep.Results), model, rep.Endpoint)))

	if n := rep.Count(runner.OutcomeTransportFail); n > 0 {
		fmt.Fprintln(r.out, r.paint(fmt.Sprintf("%d requests failed", n), matcher.SeverityCritical))
	}
	if n := rep.Count(runner.OutcomeLabelMissing); n > 0 {
		fmt.Fprintln(r.out, r.paint(fmt.Sprintf("%d expected intents missing from the model (check the suite)", n), matcher.SeverityCritical))
	}

	if rep.Clean() {
		fmt.Fprintln(r.out, r.summary.Render("Clean run!"))
		return
	}

	fmt.Fprintln(r.out, r.paint(fmt.Sprintf("%d have issues", len(rep.Issues)), matcher.SeverityCritical))
	for _, issue := range rep.Issues {
		r.writeIssue(issue)
	}
	fmt.Fprintln(r.out)
}

func (r *Renderer) writeIssue(issue runner.Result) {
	fmt.Fprintf(r.out, "\n%s\n", issue.Sentence)

	if issue.Outcome != runner.OutcomeMatched {
		fmt.Fprintln(r.out, r.paint("  "+issue.Intent.Name+"   "+issue.Intent.Message, matcher.SeverityCritical))
		return
	}

	intent := issue.Intent
	line := r.paint(fmt.Sprintf("  %s   %s", intent.Name, FormatConfidence(intent.Confidence)), intent.Severity)
	if intent.Severity == matcher.SeverityCritical && intent.BestScoring != nil {
		line += r.muted.Render(fmt.Sprintf("  <  %s   %s", intent.BestScoring.Name, FormatConfidence(intent.BestScoring.Confidence)))
	}
	fmt.Fprintln(r.out, line)

	for _, e := range issue.Entities {
		if e.Severity == matcher.SeverityNone {
			continue
		}
		fmt.Fprintln(r.out, r.paint(entityLine(e), e.Severity))
	}
}

func entityLine(e matcher.EntityMatch) string {
	if !e.Found {
		expected := ""
		if e.Expected != nil {
			expected = e.Expected.Value
		}
		return fmt.Sprintf("    %s: %s (expected '%s')", e.Entity, e.Message, expected)
	}
	confidence := ""
	if e.Confidence != nil {
		confidence = FormatConfidence(*e.Confidence)
	}
	line := fmt.Sprintf("    %s: %s   %s", e.Entity, e.Value, confidence)
	if e.Expected != nil {
		line += fmt.Sprintf(" (expected '%s')", e.Expected.Value)
	}
	return line
}

// FormatConfidence prints at most the first four characters of the shortest
// decimal form of a confidence, e.g. 0.991 as "0.99" and 1 as "1".
func FormatConfidence(c float64) string {
	s := strconv.FormatFloat(c, 'f', -1, 64)
	if len(s) > 4 {
		s = s[:4]
	}
	return s
}
