package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRenderTableAlignsIndentsAndAccents(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Recent",
		Headers: []string{"Date", "Payee", "Amount"},
		Rows: [][]string{
			{"2024-04-02", "Café Noir", "-$4.50"},
			{"  └ ", "Café Noir", "-$1.50"},
			SeparatorRow,
			{"2024-04-01", "Employer", "+$3,000.00"},
		},
		Signed: []int{2},
	})

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	// title, top, header, header rule, 2 rows, separator, row, bottom
	if len(lines) != 9 {
		t.Fatalf("got %d lines, want 9:\n%s", len(lines), out)
	}
	want := lipgloss.Width(lines[1])
	for i, l := range lines[1:] {
		if got := lipgloss.Width(l); got != want {
			t.Fatalf("line %d is %d wide, want %d:\n%s", i+1, got, want, out)
		}
	}
	if !strings.Contains(out, "+$3,000.00") {
		t.Fatalf("income cell missing:\n%s", out)
	}
}

func TestRenderTableEmpty(t *testing.T) {
	if got := RenderTable(Table{}); got != "" {
		t.Fatalf("empty table rendered %q", got)
	}
}

func TestAmountStyleBySign(t *testing.T) {
	tests := []struct {
		cell string
		want lipgloss.TerminalColor
	}{
		{"-$12.00", colorExpense},
		{"+$12.00", colorIncome},
		{"+$0.00", colorMuted},
		{"", colorMuted},
		{"$12.00", colorText},
		{"25.0%", colorText},
	}
	for _, tt := range tests {
		if got := amountStyle(tt.cell).GetForeground(); got != tt.want {
			t.Errorf("amountStyle(%q) = %v, want %v", tt.cell, got, tt.want)
		}
	}
}

func TestRenderSparklineSpansNegativeValues(t *testing.T) {
	tests := []struct {
		in   []float64
		want string
	}{
		{[]float64{-10, 0, 10}, "▁▄█"},
		{[]float64{0, 5, 10}, "▁▄█"},
		{[]float64{-4, -2}, "▁█"},
		{[]float64{3, 3}, "██"},
		{[]float64{0, 0}, "▁▁"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := RenderSparkline(tt.in); got != tt.want {
			t.Errorf("RenderSparkline(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderNetBarSharesAxis(t *testing.T) {
	deficit := RenderNetBar("2024-03", -50, 100, 10)
	surplus := RenderNetBar("2024-04", 100, 100, 10)
	even := RenderNetBar("2024-05", 0, 100, 10)

	axis := func(s string) int { return lipgloss.Width(s[:strings.Index(s, "│")]) }
	if axis(deficit) != axis(surplus) || axis(surplus) != axis(even) {
		t.Fatalf("axis moved:\n%s\n%s\n%s", deficit, surplus, even)
	}
	if n := strings.Count(deficit, "█"); n != 5 {
		t.Fatalf("deficit bar = %d cells, want 5", n)
	}
	if n := strings.Count(surplus, "█"); n != 10 {
		t.Fatalf("surplus bar = %d cells, want 10", n)
	}
	if strings.Contains(even, "█") {
		t.Fatal("zero net drew a bar")
	}
	if strings.Index(deficit, "█") > strings.Index(deficit, "│") {
		t.Fatal("deficit bar should sit left of the axis")
	}
}

func TestRenderBarClampsToWidth(t *testing.T) {
	if n := strings.Count(RenderBar("x", 300, 100, 8), "█"); n != 8 {
		t.Fatalf("bar = %d cells, want clamp to 8", n)
	}
	if strings.Contains(RenderBar("x", 5, 0, 8), "█") {
		t.Fatal("zero peak drew a bar")
	}
}
