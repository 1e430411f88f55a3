// Package render draws the matrix for the terminal: a two by two grid of
// bordered quadrant boxes, as in the full matrix view of the mail add-on.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/teemow/inboxmatrix/internal/matrix"
)

// DefaultWidth is the total grid width used when Options.Width is unset.
const DefaultWidth = 100

// minBoxWidth keeps a box readable on narrow terminals.
const minBoxWidth = 24

// Options control rendering.
type Options struct {
	// Width is the total width of the grid in cells.
	Width int

	// MaxItems limits the items listed per quadrant; 0 lists all.
	MaxItems int

	// ShowIDs appends item ids, which the CLI needs for move and remove.
	ShowIDs bool
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	emptyStyle = mutedStyle.Italic(true)
)

// Matrix renders d as a grid: Do First and Schedule on top, Delegate and
// Eliminate below.
func Matrix(d matrix.Data, opts Options) string {
	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}
	// Each box adds two border cells.
	boxWidth := max(width/2-2, minBoxWidth)

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		Quadrant(matrix.DoFirst, d[matrix.DoFirst], boxWidth, opts),
		Quadrant(matrix.Schedule, d[matrix.Schedule], boxWidth, opts),
	)
	bottom := lipgloss.JoinHorizontal(lipgloss.Top,
		Quadrant(matrix.Delegate, d[matrix.Delegate], boxWidth, opts),
		Quadrant(matrix.Eliminate, d[matrix.Eliminate], boxWidth, opts),
	)
	return lipgloss.JoinVertical(lipgloss.Left, top, bottom)
}

// Quadrant renders one quadrant box of the given inner width.
func Quadrant(q matrix.Quadrant, items []matrix.Item, width int, opts Options) string {
	info, _ := matrix.Info(q)
	color := lipgloss.Color(info.Color)

	var b strings.Builder
	b.WriteString(titleStyle.Foreground(color).Render(fmt.Sprintf("%s %d. %s (%d)", info.Icon, int(q), info.Name, len(items))))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(truncate(info.Description, width-2)))

	if len(items) == 0 {
		b.WriteString("\n")
		b.WriteString(emptyStyle.Render("No items"))
	}
	shown := items
	if opts.MaxItems > 0 && len(shown) > opts.MaxItems {
		shown = shown[:opts.MaxItems]
	}
	for _, it := range shown {
		b.WriteString("\n")
		b.WriteString(Item(it, width-2, opts.ShowIDs))
	}
	if hidden := len(items) - len(shown); hidden > 0 {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("... and %d more", hidden)))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Width(width).
		Render(b.String())
}

// Item renders one item on two lines: the subject, then sender and date.
func Item(it matrix.Item, width int, showID bool) string {
	subject := "• " + it.Subject
	meta := "  " + it.Sender
	if it.Date != "" {
		meta += " · " + it.Date
	}
	if showID {
		meta += " · " + it.ID
	}
	return truncate(subject, width) + "\n" + mutedStyle.Render(truncate(meta, width))
}

// Stats renders a one-line summary.
func Stats(s matrix.Stats) string {
	if s.IsEmpty {
		return "The matrix is empty."
	}
	parts := make([]string, 0, len(matrix.Quadrants))
	for _, q := range matrix.Quadrants {
		info, _ := matrix.Info(q)
		parts = append(parts, fmt.Sprintf("%s: %d", info.Name, s.ByQuadrant[q]))
	}
	most, _ := matrix.Info(s.MostUsedQuadrant)
	return fmt.Sprintf("%d items (%s). Most used: %s", s.Total, strings.Join(parts, ", "), most.Name)
}

// truncate shortens s to at most width terminal cells, ending in "…" when
// cut. Wide runes such as CJK and emoji count as two cells.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	cut := 0
	for i := range r {
		if lipgloss.Width(string(r[:i+1])) > width-1 {
			break
		}
		cut = i + 1
	}
	return string(r[:cut]) + "…"
}
