package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// SimpleTable renders static rows for one-shot command output, where an
// interactive table would be wasted.
type SimpleTable struct {
	Title   string
	Headers []string
	Rows    [][]string
	// Empty is shown instead of the table when there are no rows.
	Empty string
	// MaxCell truncates wide cells; zero means no limit.
	MaxCell int
}

// NewSimpleTable creates a new SimpleTable with the given title and headers.
func NewSimpleTable(title string, headers ...string) *SimpleTable {
	return &SimpleTable{Title: title, Headers: headers}
}

// AddRow adds a row to the table. Missing cells render blank and extra cells
// are dropped.
func (t *SimpleTable) AddRow(cells ...string) {
	row := make([]string, len(t.Headers))
	copy(row, cells)
	if t.MaxCell > 0 {
		for i := range row {
			row[i] = truncate(row[i], t.MaxCell)
		}
	}
	t.Rows = append(t.Rows, row)
}

// View renders the table using the provided styles.
func (t *SimpleTable) View(styles Styles) string {
	var sb strings.Builder

	if t.Title != "" {
		sb.WriteString(styles.Bold.Render(t.Title))
		sb.WriteString("\n")
	}
	if len(t.Rows) == 0 {
		if t.Empty != "" {
			sb.WriteString(styles.Muted.Render(t.Empty))
			sb.WriteString("\n")
		}
		return sb.String()
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	sep := styles.Muted.Render(" | ")
	writeRow := func(cells []string, style lipgloss.Style) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = style.Render(pad(cell, widths[i]))
		}
		sb.WriteString(strings.TrimRight(strings.Join(parts, sep), " "))
		sb.WriteString("\n")
	}

	writeRow(t.Headers, styles.Bold)
	total := 3 * (len(widths) - 1)
	for _, w := range widths {
		total += w
	}
	sb.WriteString(styles.Muted.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")
	for _, row := range t.Rows {
		writeRow(row, styles.Body)
	}
	return sb.String()
}

func pad(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func truncate(s string, l int) string {
	r := []rune(s)
	if len(r) <= l {
		return s
	}
	if l <= 3 {
		return string(r[:l])
	}
	return string(r[:l-3]) + "..."
}
