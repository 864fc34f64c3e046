package doctags

import "strings"

// OTSL cell tokens
const (
	CellFull         = "fcel"
	CellEmpty        = "ecel"
	CellLeft         = "lcel"
	CellUp           = "ucel"
	CellCross        = "xcel"
	CellColumnHeader = "ched"
	CellRowHeader    = "rhed"
	CellSectionRow   = "srow"
	NewLine          = "nl"
)

type Table struct {
	NumRows int
	NumCols int

	Cells []TableCell
}

// TableCell spans [StartRow, EndRow) x [StartCol, EndCol).
type TableCell struct {
	Text string

	StartRow int
	EndRow   int
	StartCol int
	EndCol   int

	ColumnHeader bool
	RowHeader    bool
	RowSection   bool
}

func (c TableCell) RowSpan() int {
	return c.EndRow - c.StartRow
}

func (c TableCell) ColSpan() int {
	return c.EndCol - c.StartCol
}

type otslCell struct {
	kind string
	text strings.Builder
}

// ParseTable reconstructs the table grid of an otsl element.
func ParseTable(n *Node) *Table {
	var grid [][]*otslCell
	var row []*otslCell
	var cell *otslCell

	for _, p := range n.Parts {
		if p.Node != nil {
			continue
		}

		switch p.Atom {
		case CellFull, CellEmpty, CellLeft, CellUp, CellCross, CellColumnHeader, CellRowHeader, CellSectionRow:
			cell = &otslCell{kind: p.Atom}
			row = append(row, cell)

		case NewLine:
			grid = append(grid, row)

			row = nil
			cell = nil

		case "":
			if cell != nil {
				cell.text.WriteString(p.Text)
			}
		}
	}

	if len(row) > 0 {
		grid = append(grid, row)
	}

	table := &Table{
		NumRows: len(grid),
	}

	for _, r := range grid {
		table.NumCols = max(table.NumCols, len(r))
	}

	kind := func(r, c int) string {
		if r >= len(grid) || c >= len(grid[r]) {
			return ""
		}

		return grid[r][c].kind
	}

	for r, cells := range grid {
		for c, cell := range cells {
			switch cell.kind {
			case CellLeft, CellUp, CellCross:
				continue
			}

			endCol := c + 1

			for k := kind(r, endCol); k == CellLeft || k == CellCross; k = kind(r, endCol) {
				endCol++
			}

			endRow := r + 1

			for k := kind(endRow, c); k == CellUp || k == CellCross; k = kind(endRow, c) {
				endRow++
			}

			table.Cells = append(table.Cells, TableCell{
				Text: strings.TrimSpace(cell.text.String()),

				StartRow: r,
				EndRow:   endRow,
				StartCol: c,
				EndCol:   endCol,

				ColumnHeader: cell.kind == CellColumnHeader,
				RowHeader:    cell.kind == CellRowHeader,
				RowSection:   cell.kind == CellSectionRow,
			})
		}
	}

	return table
}

// Grid returns the cell text per position; spanned positions repeat the text
// of their origin cell.
func (t *Table) Grid() [][]string {
	grid := make([][]string, t.NumRows)

	for i := range grid {
		grid[i] = make([]string, t.NumCols)
	}

	for _, cell := range t.Cells {
		for r := cell.StartRow; r < cell.EndRow && r < t.NumRows; r++ {
			for c := cell.StartCol; c < cell.EndCol && c < t.NumCols; c++ {
				grid[r][c] = cell.Text
			}
		}
	}

	return grid
}
