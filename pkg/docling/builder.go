package docling

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/adrianliechti/wingman-docling/pkg/doctags"
	"github.com/adrianliechti/wingman-docling/pkg/imaging"
)

const (
	imageMimetype = "image/png"
	imageDPI      = 72
)

var ErrPairMismatch = errors.New("doctags and images must have the same length")

// DocTagsPage pairs the generated tags of one page with its image.
type DocTagsPage struct {
	Tokens string
	Image  image.Image
}

type DocTagsDocument struct {
	Pages []DocTagsPage
}

func FromDocTagsAndImagePairs(tags []string, images []image.Image) (*DocTagsDocument, error) {
	if len(images) > 0 && len(tags) != len(images) {
		return nil, fmt.Errorf("%w: %d doctags, %d images", ErrPairMismatch, len(tags), len(images))
	}

	doc := &DocTagsDocument{}

	for i, tokens := range tags {
		page := DocTagsPage{
			Tokens: tokens,
		}

		if len(images) > 0 {
			page.Image = images[i]
		}

		doc.Pages = append(doc.Pages, page)
	}

	return doc, nil
}

// LoadFromDocTags builds a document from tagged pages. Parse errors are
// returned as is.
func LoadFromDocTags(doctagsDoc *DocTagsDocument, name string) (*Document, error) {
	doc := NewDocument(name)

	for i, page := range doctagsDoc.Pages {
		root, err := doctags.Parse(page.Tokens)

		if err != nil {
			return nil, err
		}

		b := &builder{
			doc: doc,

			pageNo: i + 1,
			image:  page.Image,
		}

		if err := b.addPage(); err != nil {
			return nil, err
		}

		b.addRoot(root)
	}

	return doc, nil
}

type builder struct {
	doc *Document

	pageNo int
	image  image.Image
}

func (b *builder) addPage() error {
	page := &PageItem{
		PageNo: b.pageNo,
	}

	if b.image != nil {
		ref, err := newImageRef(b.image)

		if err != nil {
			return err
		}

		page.Size = ref.Size
		page.Image = ref
	}

	b.doc.Pages[strconv.Itoa(b.pageNo)] = page

	return nil
}

func (b *builder) addRoot(root *doctags.Node) {
	body := RefItem{Ref: b.doc.Body.SelfRef}

	for _, p := range root.Parts {
		if p.Node != nil {
			b.addNode(body, p.Node)
			continue
		}

		if text := strings.TrimSpace(p.Text); text != "" {
			b.doc.AddText(body, DocItemLabelText, text, nil, ContentLayerBody)
		}
	}
}

func (b *builder) addNode(parent RefItem, n *doctags.Node) {
	if level, ok := doctags.SectionLevel(n.Name); ok {
		if item := b.addText(parent, DocItemLabelSectionHeader, n, ContentLayerBody); item != nil {
			item.Level = level
		}

		return
	}

	switch n.Name {
	case "page_header", "page_footer":
		furniture := RefItem{Ref: b.doc.Furniture.SelfRef}
		b.addText(furniture, DocItemLabel(n.Name), n, ContentLayerFurniture)

	case "unordered_list", "ordered_list":
		b.addList(parent, n)

	case "picture", "chart":
		b.addPicture(parent, n)

	case "otsl":
		b.addTable(parent, n)

	case "code":
		if item := b.addText(parent, DocItemLabelCode, n, ContentLayerBody); item != nil {
			item.CodeLanguage = codeLanguage(n)
		}

	case "title", "text", "paragraph", "caption", "footnote", "list_item", "formula", "checkbox_selected", "checkbox_unselected":
		b.addText(parent, DocItemLabel(n.Name), n, ContentLayerBody)

	default:
		b.addText(parent, DocItemLabelText, n, ContentLayerBody)
	}
}

func (b *builder) addText(parent RefItem, label DocItemLabel, n *doctags.Node, layer ContentLayer) *TextItem {
	text := n.Text()

	if text == "" {
		return nil
	}

	return b.doc.AddText(parent, label, text, b.provenance(n, text), layer)
}

func (b *builder) addList(parent RefItem, n *doctags.Node) {
	enumerated := n.Name == "ordered_list"

	label := GroupLabelList

	if enumerated {
		label = GroupLabelOrderedList
	}

	group := b.doc.AddGroup(parent, "list", label, ContentLayerBody)
	groupRef := RefItem{Ref: group.SelfRef}

	index := 0

	for _, child := range n.Children() {
		if child.Name != "list_item" {
			b.addNode(groupRef, child)
			continue
		}

		item := b.addText(groupRef, DocItemLabelListItem, child, ContentLayerBody)

		if item == nil {
			continue
		}

		index++

		item.Enumerated = &enumerated
		item.Marker = "-"

		if enumerated {
			item.Marker = strconv.Itoa(index) + "."
		}

		// nested lists hang below their list item
		for _, nested := range child.Children() {
			b.addNode(RefItem{Ref: item.SelfRef}, nested)
		}
	}
}

func (b *builder) addPicture(parent RefItem, n *doctags.Node) {
	var ref *ImageRef

	if b.image != nil {
		if rect, ok := b.rect(n.Location()); ok {
			cropped := imaging.Crop(b.image, rect)

			if !cropped.Bounds().Empty() {
				ref, _ = newImageRef(cropped)
			}
		}
	}

	label := DocItemLabelPicture

	if n.Name == "chart" {
		label = DocItemLabelChart
	}

	picture := b.doc.AddPicture(parent, label, b.provenance(n, ""), ref)

	if caption := n.Child("caption"); caption != nil {
		if item := b.addText(RefItem{Ref: picture.SelfRef}, DocItemLabelCaption, caption, ContentLayerBody); item != nil {
			picture.Captions = append(picture.Captions, RefItem{Ref: item.SelfRef})
		}
	}
}

func (b *builder) addTable(parent RefItem, n *doctags.Node) {
	grid := doctags.ParseTable(n)

	data := TableData{
		TableCells: []TableCell{},

		NumRows: grid.NumRows,
		NumCols: grid.NumCols,
	}

	for _, c := range grid.Cells {
		data.TableCells = append(data.TableCells, TableCell{
			RowSpan: c.RowSpan(),
			ColSpan: c.ColSpan(),

			StartRowOffsetIdx: c.StartRow,
			EndRowOffsetIdx:   c.EndRow,
			StartColOffsetIdx: c.StartCol,
			EndColOffsetIdx:   c.EndCol,

			Text: c.Text,

			ColumnHeader: c.ColumnHeader,
			RowHeader:    c.RowHeader,
			RowSection:   c.RowSection,
		})
	}

	table := b.doc.AddTable(parent, b.provenance(n, ""), data)

	if caption := n.Child("caption"); caption != nil {
		if item := b.addText(RefItem{Ref: table.SelfRef}, DocItemLabelCaption, caption, ContentLayerBody); item != nil {
			table.Captions = append(table.Captions, RefItem{Ref: item.SelfRef})
		}
	}
}

func (b *builder) provenance(n *doctags.Node, text string) *ProvenanceItem {
	loc := n.Location()

	if loc == nil {
		return nil
	}

	width, height := float64(doctags.LocationGrid), float64(doctags.LocationGrid)

	if b.image != nil {
		width = float64(b.image.Bounds().Dx())
		height = float64(b.image.Bounds().Dy())
	}

	scale := func(v int, size float64) float64 {
		return float64(v) * size / doctags.LocationGrid
	}

	return &ProvenanceItem{
		PageNo: b.pageNo,

		BBox: BoundingBox{
			L: scale(loc.Left, width),
			T: scale(loc.Top, height),
			R: scale(loc.Right, width),
			B: scale(loc.Bottom, height),

			CoordOrigin: CoordOriginTopLeft,
		},

		Charspan: [2]int{0, len([]rune(text))},
	}
}

func (b *builder) rect(loc *doctags.Location) (image.Rectangle, bool) {
	if loc == nil || b.image == nil {
		return image.Rectangle{}, false
	}

	bounds := b.image.Bounds()

	scale := func(v int, size int) int {
		return int(math.Round(float64(v) * float64(size) / doctags.LocationGrid))
	}

	rect := image.Rect(
		bounds.Min.X+scale(loc.Left, bounds.Dx()),
		bounds.Min.Y+scale(loc.Top, bounds.Dy()),
		bounds.Min.X+scale(loc.Right, bounds.Dx()),
		bounds.Min.Y+scale(loc.Bottom, bounds.Dy()),
	)

	return rect, !rect.Empty()
}

func codeLanguage(n *doctags.Node) string {
	for _, atom := range n.Atoms() {
		if len(atom) > 2 && strings.HasPrefix(atom, "_") && strings.HasSuffix(atom, "_") {
			return strings.Trim(atom, "_")
		}
	}

	return ""
}

func newImageRef(img image.Image) (*ImageRef, error) {
	data, err := imaging.EncodePNG(img)

	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()

	return &ImageRef{
		Mimetype: imageMimetype,
		DPI:      imageDPI,

		Size: Size{
			Width:  float64(bounds.Dx()),
			Height: float64(bounds.Dy()),
		},

		URI: imaging.DataURI(imageMimetype, data),
	}, nil
}
