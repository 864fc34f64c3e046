package docling

import "strconv"

func (d *Document) attach(parent RefItem, self string) *RefItem {
	if node := d.node(parent); node != nil {
		node.Children = append(node.Children, RefItem{Ref: self})
	}

	return &RefItem{Ref: parent.Ref}
}

func (d *Document) AddGroup(parent RefItem, name string, label GroupLabel, layer ContentLayer) *GroupItem {
	self := "#/groups/" + strconv.Itoa(len(d.Groups))

	group := &GroupItem{
		NodeItem: NodeItem{
			SelfRef:      self,
			Parent:       d.attach(parent, self),
			Children:     []RefItem{},
			ContentLayer: layer,
		},

		Name:  name,
		Label: label,
	}

	d.Groups = append(d.Groups, group)

	return group
}

func (d *Document) AddText(parent RefItem, label DocItemLabel, text string, prov *ProvenanceItem, layer ContentLayer) *TextItem {
	self := "#/texts/" + strconv.Itoa(len(d.Texts))

	item := &TextItem{
		NodeItem: NodeItem{
			SelfRef:      self,
			Parent:       d.attach(parent, self),
			Children:     []RefItem{},
			ContentLayer: layer,
		},

		Label: label,
		Prov:  provenances(prov),

		Orig: text,
		Text: text,
	}

	d.Texts = append(d.Texts, item)

	return item
}

func (d *Document) AddPicture(parent RefItem, label DocItemLabel, prov *ProvenanceItem, image *ImageRef) *PictureItem {
	self := "#/pictures/" + strconv.Itoa(len(d.Pictures))

	item := &PictureItem{
		NodeItem: NodeItem{
			SelfRef:      self,
			Parent:       d.attach(parent, self),
			Children:     []RefItem{},
			ContentLayer: ContentLayerBody,
		},

		Label: label,
		Prov:  provenances(prov),

		Captions:   []RefItem{},
		References: []RefItem{},
		Footnotes:  []RefItem{},

		Image: image,

		Annotations: []any{},
	}

	d.Pictures = append(d.Pictures, item)

	return item
}

func (d *Document) AddTable(parent RefItem, prov *ProvenanceItem, data TableData) *TableItem {
	self := "#/tables/" + strconv.Itoa(len(d.Tables))

	item := &TableItem{
		NodeItem: NodeItem{
			SelfRef:      self,
			Parent:       d.attach(parent, self),
			Children:     []RefItem{},
			ContentLayer: ContentLayerBody,
		},

		Label: DocItemLabelTable,
		Prov:  provenances(prov),

		Captions:   []RefItem{},
		References: []RefItem{},
		Footnotes:  []RefItem{},

		Data: data,
	}

	d.Tables = append(d.Tables, item)

	return item
}

func provenances(prov *ProvenanceItem) []ProvenanceItem {
	if prov == nil {
		return []ProvenanceItem{}
	}

	return []ProvenanceItem{*prov}
}
