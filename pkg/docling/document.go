package docling

import (
	"strconv"
	"strings"
)

const (
	SchemaName    = "DoclingDocument"
	SchemaVersion = "1.7.0"
)

type ImageRefMode string

const (
	ImageRefModePlaceholder ImageRefMode = "placeholder"
	ImageRefModeEmbedded    ImageRefMode = "embedded"
	ImageRefModeReferenced  ImageRefMode = "referenced"
)

// ParseImageRefMode is case-insensitive and falls back to placeholder.
func ParseImageRefMode(val string) ImageRefMode {
	switch ImageRefMode(strings.ToLower(strings.TrimSpace(val))) {
	case ImageRefModeEmbedded:
		return ImageRefModeEmbedded

	case ImageRefModeReferenced:
		return ImageRefModeReferenced
	}

	return ImageRefModePlaceholder
}

type DocItemLabel string

const (
	DocItemLabelTitle              DocItemLabel = "title"
	DocItemLabelSectionHeader      DocItemLabel = "section_header"
	DocItemLabelText               DocItemLabel = "text"
	DocItemLabelParagraph          DocItemLabel = "paragraph"
	DocItemLabelCaption            DocItemLabel = "caption"
	DocItemLabelFootnote           DocItemLabel = "footnote"
	DocItemLabelPageHeader         DocItemLabel = "page_header"
	DocItemLabelPageFooter         DocItemLabel = "page_footer"
	DocItemLabelListItem           DocItemLabel = "list_item"
	DocItemLabelCode               DocItemLabel = "code"
	DocItemLabelFormula            DocItemLabel = "formula"
	DocItemLabelCheckboxSelected   DocItemLabel = "checkbox_selected"
	DocItemLabelCheckboxUnselected DocItemLabel = "checkbox_unselected"
	DocItemLabelPicture            DocItemLabel = "picture"
	DocItemLabelChart              DocItemLabel = "chart"
	DocItemLabelTable              DocItemLabel = "table"
)

type GroupLabel string

const (
	GroupLabelUnspecified GroupLabel = "unspecified"
	GroupLabelList        GroupLabel = "list"
	GroupLabelOrderedList GroupLabel = "ordered_list"
)

type ContentLayer string

const (
	ContentLayerBody      ContentLayer = "body"
	ContentLayerFurniture ContentLayer = "furniture"
)

type CoordOrigin string

const (
	CoordOriginTopLeft CoordOrigin = "TOPLEFT"
)

type RefItem struct {
	Ref string `json:"$ref"`
}

type BoundingBox struct {
	L float64 `json:"l"`
	T float64 `json:"t"`
	R float64 `json:"r"`
	B float64 `json:"b"`

	CoordOrigin CoordOrigin `json:"coord_origin"`
}

type ProvenanceItem struct {
	PageNo   int         `json:"page_no"`
	BBox     BoundingBox `json:"bbox"`
	Charspan [2]int      `json:"charspan"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type ImageRef struct {
	Mimetype string `json:"mimetype"`
	DPI      int    `json:"dpi"`
	Size     Size   `json:"size"`
	URI      string `json:"uri"`
}

type PageItem struct {
	Size   Size      `json:"size"`
	Image  *ImageRef `json:"image,omitempty"`
	PageNo int       `json:"page_no"`
}

type NodeItem struct {
	SelfRef string `json:"self_ref"`

	Parent   *RefItem  `json:"parent,omitempty"`
	Children []RefItem `json:"children"`

	ContentLayer ContentLayer `json:"content_layer"`
}

type GroupItem struct {
	NodeItem

	Name  string     `json:"name"`
	Label GroupLabel `json:"label"`
}

type TextItem struct {
	NodeItem

	Label DocItemLabel     `json:"label"`
	Prov  []ProvenanceItem `json:"prov"`

	Orig string `json:"orig"`
	Text string `json:"text"`

	Level        int    `json:"level,omitempty"`
	Enumerated   *bool  `json:"enumerated,omitempty"`
	Marker       string `json:"marker,omitempty"`
	CodeLanguage string `json:"code_language,omitempty"`
}

type PictureItem struct {
	NodeItem

	Label DocItemLabel     `json:"label"`
	Prov  []ProvenanceItem `json:"prov"`

	Captions   []RefItem `json:"captions"`
	References []RefItem `json:"references"`
	Footnotes  []RefItem `json:"footnotes"`

	Image *ImageRef `json:"image,omitempty"`

	Annotations []any `json:"annotations"`
}

type TableItem struct {
	NodeItem

	Label DocItemLabel     `json:"label"`
	Prov  []ProvenanceItem `json:"prov"`

	Captions   []RefItem `json:"captions"`
	References []RefItem `json:"references"`
	Footnotes  []RefItem `json:"footnotes"`

	Data TableData `json:"data"`
}

type TableData struct {
	TableCells []TableCell `json:"table_cells"`

	NumRows int `json:"num_rows"`
	NumCols int `json:"num_cols"`
}

type TableCell struct {
	RowSpan int `json:"row_span"`
	ColSpan int `json:"col_span"`

	StartRowOffsetIdx int `json:"start_row_offset_idx"`
	EndRowOffsetIdx   int `json:"end_row_offset_idx"`
	StartColOffsetIdx int `json:"start_col_offset_idx"`
	EndColOffsetIdx   int `json:"end_col_offset_idx"`

	Text string `json:"text"`

	ColumnHeader bool `json:"column_header"`
	RowHeader    bool `json:"row_header"`
	RowSection   bool `json:"row_section"`
}

// Document mirrors the DoclingDocument JSON schema.
type Document struct {
	SchemaName string `json:"schema_name"`
	Version    string `json:"version"`

	Name string `json:"name"`

	Furniture GroupItem `json:"furniture"`
	Body      GroupItem `json:"body"`

	Groups   []*GroupItem   `json:"groups"`
	Texts    []*TextItem    `json:"texts"`
	Pictures []*PictureItem `json:"pictures"`
	Tables   []*TableItem   `json:"tables"`

	KeyValueItems []any `json:"key_value_items"`
	FormItems     []any `json:"form_items"`

	Pages map[string]*PageItem `json:"pages"`
}

func NewDocument(name string) *Document {
	return &Document{
		SchemaName: SchemaName,
		Version:    SchemaVersion,

		Name: name,

		Furniture: GroupItem{
			NodeItem: NodeItem{
				SelfRef:      "#/furniture",
				Children:     []RefItem{},
				ContentLayer: ContentLayerFurniture,
			},

			Name:  "_root_",
			Label: GroupLabelUnspecified,
		},

		Body: GroupItem{
			NodeItem: NodeItem{
				SelfRef:      "#/body",
				Children:     []RefItem{},
				ContentLayer: ContentLayerBody,
			},

			Name:  "_root_",
			Label: GroupLabelUnspecified,
		},

		Groups:   []*GroupItem{},
		Texts:    []*TextItem{},
		Pictures: []*PictureItem{},
		Tables:   []*TableItem{},

		KeyValueItems: []any{},
		FormItems:     []any{},

		Pages: map[string]*PageItem{},
	}
}

// Resolve returns the item a reference points to, or nil.
func (d *Document) Resolve(ref RefItem) any {
	if ref.Ref == "#/body" {
		return &d.Body
	}

	if ref.Ref == "#/furniture" {
		return &d.Furniture
	}

	parts := strings.Split(strings.TrimPrefix(ref.Ref, "#/"), "/")

	if len(parts) != 2 {
		return nil
	}

	idx, err := strconv.Atoi(parts[1])

	if err != nil || idx < 0 {
		return nil
	}

	switch parts[0] {
	case "groups":
		if idx < len(d.Groups) {
			return d.Groups[idx]
		}

	case "texts":
		if idx < len(d.Texts) {
			return d.Texts[idx]
		}

	case "pictures":
		if idx < len(d.Pictures) {
			return d.Pictures[idx]
		}

	case "tables":
		if idx < len(d.Tables) {
			return d.Tables[idx]
		}
	}

	return nil
}

func (d *Document) node(ref RefItem) *NodeItem {
	switch item := d.Resolve(ref).(type) {
	case *GroupItem:
		return &item.NodeItem
	case *TextItem:
		return &item.NodeItem
	case *PictureItem:
		return &item.NodeItem
	case *TableItem:
		return &item.NodeItem
	}

	return nil
}
