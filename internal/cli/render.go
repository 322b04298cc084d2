package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Flexoki Dark. Green is money in, red is money out.
var (
	colorBorder  = lipgloss.Color("#575653")
	colorMuted   = lipgloss.Color("#6F6E69")
	colorText    = lipgloss.Color("#FFFCF0")
	colorAccent  = lipgloss.Color("#3AA99F")
	colorIncome  = lipgloss.Color("#879A39")
	colorExpense = lipgloss.Color("#D14D41")
	colorWarn    = lipgloss.Color("#DA702C")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorText).Align(lipgloss.Center)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	valueStyle   = lipgloss.NewStyle().Foreground(colorText)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	borderStyle  = lipgloss.NewStyle().Foreground(colorBorder)
	incomeStyle  = lipgloss.NewStyle().Foreground(colorIncome)
	expenseStyle = lipgloss.NewStyle().Foreground(colorExpense)
	warnStyle    = lipgloss.NewStyle().Foreground(colorWarn)
)

const titleWidth = 55

// SeparatorRow splits a table body with a horizontal rule.
var SeparatorRow = []string{"---"}

// Table is a bordered text table. The first column is left-aligned, the
// rest right-aligned.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	// Signed lists the columns holding amounts. A leading minus renders as
	// an expense, a leading plus as income, and zero muted.
	Signed []int
}

// RenderTitle renders a centered title bar in a rounded box.
func RenderTitle(title string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Width(titleWidth).
		Align(lipgloss.Center).
		Padding(0, 1)
	return box.Render(titleStyle.Render(title))
}

// RenderTable renders t. Column widths follow the widest visible cell, so
// pre-styled cells and box-drawing indents line up.
func RenderTable(t Table) string {
	cols := len(t.Headers)
	if cols == 0 && len(t.Rows) > 0 {
		cols = len(t.Rows[0])
	}
	if cols == 0 {
		return ""
	}

	widths := make([]int, cols)
	measure := func(row []string) {
		for i := 0; i < cols && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}
	measure(t.Headers)
	for _, row := range t.Rows {
		if !isSeparator(row) {
			measure(row)
		}
	}

	signed := make(map[int]bool, len(t.Signed))
	for _, c := range t.Signed {
		signed[c] = true
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}
	b.WriteString(rule(widths, "╭", "┬", "╮"))

	if len(t.Headers) > 0 {
		cells := make([]string, cols)
		for i := range cells {
			if i < len(t.Headers) {
				cells[i] = headerStyle.Render(pad(t.Headers[i], widths[i], i == 0))
			} else {
				cells[i] = pad("", widths[i], true)
			}
		}
		b.WriteString(line(cells))
		b.WriteString(rule(widths, "├", "┼", "┤"))
	}

	for _, row := range t.Rows {
		if isSeparator(row) {
			b.WriteString(rule(widths, "├", "┼", "┤"))
			continue
		}
		cells := make([]string, cols)
		for i := range cells {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			style := valueStyle
			if signed[i] {
				style = amountStyle(cell)
			}
			cells[i] = style.Render(pad(cell, widths[i], i == 0))
		}
		b.WriteString(line(cells))
	}

	b.WriteString(rule(widths, "╰", "┴", "╯"))
	return b.String()
}

func isSeparator(row []string) bool {
	return len(row) == 1 && row[0] == SeparatorRow[0]
}

// pad fits s to w visible columns with one space of margin on each side.
func pad(s string, w int, left bool) string {
	fill := strings.Repeat(" ", max(0, w-lipgloss.Width(s)))
	if left {
		return " " + s + fill + " "
	}
	return " " + fill + s + " "
}

func line(cells []string) string {
	bar := borderStyle.Render("│")
	return bar + strings.Join(cells, bar) + bar + "\n"
}

func rule(widths []int, left, mid, right string) string {
	segs := make([]string, len(widths))
	for i, w := range widths {
		segs[i] = strings.Repeat("─", w+2)
	}
	return borderStyle.Render(left+strings.Join(segs, mid)+right) + "\n"
}

// amountStyle picks the style of a formatted amount by its sign.
func amountStyle(cell string) lipgloss.Style {
	s := strings.TrimSpace(cell)
	switch {
	case s == "" || strings.IndexAny(s, "123456789") < 0:
		return mutedStyle
	case strings.HasPrefix(s, "-"):
		return expenseStyle
	case strings.HasPrefix(s, "+"):
		return incomeStyle
	default:
		return valueStyle
	}
}

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderSparkline draws one block per value. The scale runs from the lowest
// value, or zero if none is negative, to the highest.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := math.Min(0, values[0]), values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	top := len(sparkBlocks) - 1
	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / span * float64(top))
		b.WriteRune(sparkBlocks[min(max(idx, 0), top)])
	}
	return b.String()
}

// RenderBar renders a labeled bar whose length is value relative to peak.
func RenderBar(label string, value, peak float64, width int) string {
	return fmt.Sprintf("  %s %s", label, mutedStyle.Render(strings.Repeat("█", barLen(value, peak, width))))
}

// RenderNetBar renders a bar diverging from a center axis: a surplus grows
// right in green, a deficit grows left in red. Each side is half cells wide.
func RenderNetBar(label string, net, peak float64, half int) string {
	n := barLen(math.Abs(net), peak, half)
	left := strings.Repeat(" ", half)
	right := ""
	if net < 0 {
		left = strings.Repeat(" ", half-n) + expenseStyle.Render(strings.Repeat("█", n))
	} else {
		right = incomeStyle.Render(strings.Repeat("█", n))
	}
	return fmt.Sprintf("  %s %s%s%s", label, left, borderStyle.Render("│"), right)
}

func barLen(value, peak float64, width int) int {
	if peak <= 0 || value <= 0 {
		return 0
	}
	return min(int(value/peak*float64(width)), width)
}

// Income renders s in the income color.
func Income(s string) string { return incomeStyle.Render(s) }

// Expense renders s in the expense color.
func Expense(s string) string { return expenseStyle.Render(s) }

// Warn renders a warning line.
func Warn(s string) string { return warnStyle.Render(s) }

// Muted renders secondary text.
func Muted(s string) string { return mutedStyle.Render(s) }
