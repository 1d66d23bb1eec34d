// Package report renders query results as aligned text tables for the
// command line. Widths are display widths, so accented and wide characters
// line up.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Table is a set of rows under a header row.
type Table struct {
	headers  []string
	rows     [][]string
	right    map[int]bool
	maxWidth int
}

func NewTable(headers ...string) *Table {
	return &Table{headers: headers, right: make(map[int]bool)}
}

// AlignRight right-aligns the given columns, typically numeric ones.
func (t *Table) AlignRight(cols ...int) *Table {
	for _, c := range cols {
		t.right[c] = true
	}
	return t
}

// MaxWidth truncates cells wider than width with an ellipsis. Zero
// disables truncation.
func (t *Table) MaxWidth(width int) *Table {
	t.maxWidth = width
	return t
}

// AddRow appends a row. Cells are formatted with %v; line breaks inside a
// cell are shown as spaces.
func (t *Table) AddRow(cells ...any) {
	row := make([]string, len(cells))
	for i, c := range cells {
		s := strings.ReplaceAll(fmt.Sprint(c), "\n", " ")
		if t.maxWidth > 0 && runewidth.StringWidth(s) > t.maxWidth {
			s = runewidth.Truncate(s, t.maxWidth, "...")
		}
		row[i] = s
	}
	t.rows = append(t.rows, row)
}

// Len is the number of rows, excluding the header.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render writes the table to w: the header, a dashed rule, then the rows.
func (t *Table) Render(w io.Writer) error {
	cols := len(t.headers)
	for _, row := range t.rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	widths := make([]int, cols)
	measure := func(row []string) {
		for i, cell := range row {
			if wd := runewidth.StringWidth(cell); wd > widths[i] {
				widths[i] = wd
			}
		}
	}
	measure(t.headers)
	for _, row := range t.rows {
		measure(row)
	}

	var b strings.Builder
	t.writeRow(&b, t.headers, widths)
	rule := make([]string, cols)
	for i, wd := range widths {
		rule[i] = strings.Repeat("-", wd)
	}
	t.writeRow(&b, rule, widths)
	for _, row := range t.rows {
		t.writeRow(&b, row, widths)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (t *Table) writeRow(b *strings.Builder, row []string, widths []int) {
	var line strings.Builder
	for i, wd := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			line.WriteString("  ")
		}
		pad := strings.Repeat(" ", wd-runewidth.StringWidth(cell))
		if t.right[i] {
			line.WriteString(pad + cell)
		} else {
			line.WriteString(cell + pad)
		}
	}
	b.WriteString(strings.TrimRight(line.String(), " "))
	b.WriteByte('\n')
}
