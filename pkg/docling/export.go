package docling

import (
	"encoding/json"
	"strings"
)

// ExportToDict returns the JSON representation as nested maps.
func (d *Document) ExportToDict() (map[string]any, error) {
	data, err := json.Marshal(d)

	if err != nil {
		return nil, err
	}

	var result map[string]any

	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	return result, nil
}

const imagePlaceholder = "<!-- image -->"

var markdownEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// ExportToMarkdown renders the body layer. Furniture (page headers and
// footers) is left out.
func (d *Document) ExportToMarkdown(mode ImageRefMode) string {
	w := &markdownWriter{
		doc:     d,
		mode:    mode,
		escaper: markdownEscaper,
	}

	return w.render()
}

type markdownWriter struct {
	doc  *Document
	mode ImageRefMode

	escaper *strings.Replacer
	formula *strings.Replacer
}

func (w *markdownWriter) render() string {
	var parts []string

	for _, ref := range w.doc.Body.Children {
		parts = append(parts, w.item(ref, 0)...)
	}

	return strings.Join(parts, "\n\n")
}

func (w *markdownWriter) item(ref RefItem, indent int) []string {
	switch item := w.doc.Resolve(ref).(type) {
	case *GroupItem:
		if item.Label == GroupLabelList || item.Label == GroupLabelOrderedList {
			return []string{strings.Join(w.list(item, indent), "\n")}
		}

		var parts []string

		for _, child := range item.Children {
			parts = append(parts, w.item(child, indent)...)
		}

		return parts

	case *TextItem:
		return []string{w.text(item)}

	case *PictureItem:
		parts := w.captions(item.Captions)
		return append(parts, markdownImage(item.Image, w.mode))

	case *TableItem:
		parts := w.captions(item.Captions)

		if table := w.table(item.Data); table != "" {
			parts = append(parts, table)
		}

		return parts
	}

	return nil
}

func (w *markdownWriter) list(group *GroupItem, indent int) []string {
	var lines []string

	prefix := strings.Repeat("    ", indent)

	for _, ref := range group.Children {
		switch item := w.doc.Resolve(ref).(type) {
		case *TextItem:
			if item.Label != DocItemLabelListItem {
				lines = append(lines, prefix+w.text(item))
				continue
			}

			marker := item.Marker

			if marker == "" {
				marker = "-"
			}

			lines = append(lines, prefix+marker+" "+w.escaper.Replace(item.Text))

			// content nested in a list item is indented below it
			for _, child := range item.Children {
				if nested, ok := w.doc.Resolve(child).(*GroupItem); ok {
					lines = append(lines, w.list(nested, indent+1)...)
					continue
				}

				for _, part := range w.item(child, indent+1) {
					lines = append(lines, indentLines(part, prefix+"    "))
				}
			}

		case *GroupItem:
			lines = append(lines, w.list(item, indent+1)...)

		default:
			for _, part := range w.item(ref, indent) {
				lines = append(lines, indentLines(part, prefix))
			}
		}
	}

	return lines
}

func (w *markdownWriter) text(item *TextItem) string {
	text := w.escaper.Replace(item.Text)

	switch item.Label {
	case DocItemLabelTitle:
		return "# " + text

	case DocItemLabelSectionHeader:
		return strings.Repeat("#", min(item.Level+1, 6)) + " " + text

	case DocItemLabelCode:
		fence := codeFence(item.Text)
		return fence + item.CodeLanguage + "\n" + item.Text + "\n" + fence

	case DocItemLabelFormula:
		formula := item.Text

		if w.formula != nil {
			formula = w.formula.Replace(formula)
		}

		return "$$" + formula + "$$"

	case DocItemLabelCheckboxSelected:
		return "- [x] " + text

	case DocItemLabelCheckboxUnselected:
		return "- [ ] " + text

	case DocItemLabelListItem:
		marker := item.Marker

		if marker == "" {
			marker = "-"
		}

		return marker + " " + text
	}

	return text
}

func (w *markdownWriter) captions(refs []RefItem) []string {
	var parts []string

	for _, ref := range refs {
		if item, ok := w.doc.Resolve(ref).(*TextItem); ok {
			parts = append(parts, w.escaper.Replace(item.Text))
		}
	}

	return parts
}

func (w *markdownWriter) table(data TableData) string {
	if data.NumRows == 0 || data.NumCols == 0 {
		return ""
	}

	grid := make([][]string, data.NumRows)

	for i := range grid {
		grid[i] = make([]string, data.NumCols)
	}

	for _, cell := range data.TableCells {
		for r := cell.StartRowOffsetIdx; r < cell.EndRowOffsetIdx && r < data.NumRows; r++ {
			for c := cell.StartColOffsetIdx; c < cell.EndColOffsetIdx && c < data.NumCols; c++ {
				grid[r][c] = cell.Text
			}
		}
	}

	var lines []string

	for i, row := range grid {
		cells := make([]string, len(row))

		for j, val := range row {
			cells[j] = w.escaper.Replace(cellEscaper.Replace(val))
		}

		lines = append(lines, "| "+strings.Join(cells, " | ")+" |")

		if i == 0 {
			lines = append(lines, "|"+strings.Repeat("---|", data.NumCols))
		}
	}

	return strings.Join(lines, "\n")
}

// codeFence returns a backtick fence longer than any backtick run in text.
func codeFence(text string) string {
	longest, run := 0, 0

	for _, r := range text {
		if r != '`' {
			run = 0
			continue
		}

		run++
		longest = max(longest, run)
	}

	return strings.Repeat("`", max(3, longest+1))
}

func indentLines(text, prefix string) string {
	if prefix == "" {
		return text
	}

	lines := strings.Split(text, "\n")

	for i, line := range lines {
		lines[i] = prefix + line
	}

	return strings.Join(lines, "\n")
}

func markdownImage(image *ImageRef, mode ImageRefMode) string {
	if image == nil || image.URI == "" {
		return imagePlaceholder
	}

	switch mode {
	case ImageRefModeEmbedded:
		if strings.HasPrefix(image.URI, "data:") {
			return "![Image](" + image.URI + ")"
		}

	case ImageRefModeReferenced:
		if !strings.HasPrefix(image.URI, "data:") {
			return "![Image](" + image.URI + ")"
		}
	}

	return imagePlaceholder
}

var cellEscaper = strings.NewReplacer(
	"|", "\\|",
	"\r\n", " ",
	"\n", " ",
)
