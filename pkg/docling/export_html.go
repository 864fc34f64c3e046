package docling

import (
	"bytes"
	stdhtml "html"
	"strings"

	treeblood "github.com/wyatt915/goldmark-treeblood"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(
		extension.Table,
		extension.TaskList,
		treeblood.MathML(),
	),
	goldmark.WithRendererOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(&rawHTMLRenderer{}, 100),
		),
	),
)

// dollar signs in plain text must not open math spans
var htmlMarkdownEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"$", "\\$",
)

// formulas stay on one line and cannot close their math span early
var htmlFormulaEscaper = strings.NewReplacer(
	"$", "\\$",
	"<", "\\lt ",
	">", "\\gt ",
	"\r\n", " ",
	"\n", " ",
)

// ExportToHTML renders the markdown export as a standalone HTML page.
// Formulas become MathML.
func (d *Document) ExportToHTML(mode ImageRefMode) (string, error) {
	w := &markdownWriter{
		doc:     d,
		mode:    mode,
		escaper: htmlMarkdownEscaper,
		formula: htmlFormulaEscaper,
	}

	var body bytes.Buffer

	if err := markdownRenderer.Convert([]byte(w.render()), &body); err != nil {
		return "", err
	}

	var buf bytes.Buffer

	buf.WriteString("<!DOCTYPE html>\n")
	buf.WriteString("<html>\n")
	buf.WriteString("<head>\n")
	buf.WriteString("<meta charset=\"UTF-8\">\n")
	buf.WriteString("<title>" + stdhtml.EscapeString(d.Name) + "</title>\n")
	buf.WriteString("</head>\n")
	buf.WriteString("<body>\n")
	buf.WriteString("<div class=\"page\">\n")
	buf.Write(body.Bytes())
	buf.WriteString("</div>\n")
	buf.WriteString("</body>\n")
	buf.WriteString("</html>\n")

	return buf.String(), nil
}

// rawHTMLRenderer passes the image placeholder comment through and writes
// every other piece of raw HTML as escaped text.
type rawHTMLRenderer struct{}

func (r *rawHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindHTMLBlock, r.renderHTMLBlock)
	reg.Register(ast.KindRawHTML, r.renderRawHTML)
}

func (r *rawHTMLRenderer) renderHTMLBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	n := node.(*ast.HTMLBlock)

	var raw bytes.Buffer

	for i := 0; i < n.Lines().Len(); i++ {
		line := n.Lines().At(i)
		raw.Write(line.Value(source))
	}

	if n.HasClosure() {
		raw.Write(n.ClosureLine.Value(source))
	}

	if strings.TrimSpace(raw.String()) == imagePlaceholder {
		w.WriteString(imagePlaceholder + "\n")
		return ast.WalkSkipChildren, nil
	}

	w.WriteString("<p>")
	w.Write(util.EscapeHTML(bytes.TrimSpace(raw.Bytes())))
	w.WriteString("</p>\n")

	return ast.WalkSkipChildren, nil
}

func (r *rawHTMLRenderer) renderRawHTML(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkSkipChildren, nil
	}

	n := node.(*ast.RawHTML)

	for i := 0; i < n.Segments.Len(); i++ {
		segment := n.Segments.At(i)
		w.Write(util.EscapeHTML(segment.Value(source)))
	}

	return ast.WalkSkipChildren, nil
}
