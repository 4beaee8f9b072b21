package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/sysreport/internal/config"
	"github.com/Dicklesworthstone/sysreport/internal/report"
)

// Options control presentation only; the report body never depends on them.
type Options struct {
	Format string // config.OutputText or config.OutputYAML
	Styled bool   // color headings; only meaningful on a terminal
}

// Styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
)

const (
	rule       = "========================================="
	timeLayout = "2006-01-02 15:04:05"
)

// Render writes rep in the requested format.
func Render(w io.Writer, rep report.Report, opts Options) error {
	if opts.Format == config.OutputYAML {
		return RenderYAML(w, rep)
	}
	return RenderText(w, rep, opts.Styled)
}

// RenderText writes the fixed-width human report.
func RenderText(w io.Writer, rep report.Report, styled bool) error {
	p := painter{styled: styled}
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, p.paint(titleStyle, rule))
	fmt.Fprintln(bw, p.paint(titleStyle, "       SERVER PERFORMANCE STATS"))
	fmt.Fprintln(bw, p.paint(titleStyle, rule))
	fmt.Fprintln(bw, p.paint(subtleStyle, "Generated on: "+rep.GeneratedAt.Format(timeLayout)))
	fmt.Fprintf(bw, "Hostname: %s\n", rep.Hostname)
	fmt.Fprintln(bw, p.paint(titleStyle, rule))

	for _, s := range rep.Sections {
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, p.paint(labelStyle, "--- "+s.Title+" ---"))
		if s.Table != nil {
			writeTable(bw, s.Table)
		}
		for _, e := range s.Entries {
			fmt.Fprintln(bw, entryLine(e))
		}
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, p.paint(titleStyle, rule))
	fmt.Fprintln(bw, p.paint(titleStyle, "       END OF REPORT"))
	fmt.Fprintln(bw, p.paint(titleStyle, rule))
	return bw.Flush()
}

// RenderYAML writes the sections as a YAML document.
func RenderYAML(w io.Writer, rep report.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return enc.Close()
}

type painter struct{ styled bool }

func (p painter) paint(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

func entryLine(e report.Entry) string {
	line := e.Value
	if e.Key != "" {
		line = e.Key + ": " + e.Value
	}
	if e.Nested {
		line = "  " + line
	}
	return line
}

func writeTable(w io.Writer, t *report.Table) {
	titles := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		titles[i] = c.Title
	}
	fmt.Fprintln(w, tableRow(t.Columns, titles))
	for _, row := range t.Rows {
		fmt.Fprintln(w, tableRow(t.Columns, row))
	}
}

// tableRow left-aligns each cell in its column width; cells wider than the
// column push the rest of the row right rather than being cut.
func tableRow(cols []report.Column, cells []string) string {
	var b strings.Builder
	for i, c := range cols {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if c.Width > 0 {
			fmt.Fprintf(&b, "%-*s ", c.Width, cell)
		} else {
			b.WriteString(cell)
		}
	}
	return strings.TrimRight(b.String(), " ")
}
