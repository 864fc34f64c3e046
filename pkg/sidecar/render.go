package sidecar

import (
	"image"

	"github.com/adrianliechti/wingman-docling/pkg/docling"
)

// Document is the part of a docling document the renderer needs.
type Document interface {
	ExportToMarkdown(mode docling.ImageRefMode) string
	ExportToHTML(mode docling.ImageRefMode) (string, error)
	ExportToDict() (map[string]any, error)
}

type DocumentBuilder interface {
	Build(tags string, page image.Image, name string) (Document, error)
}

// DoclingBuilder builds single page documents through the docling
// doctags loader.
type DoclingBuilder struct{}

func (DoclingBuilder) Build(tags string, page image.Image, name string) (Document, error) {
	pairs, err := docling.FromDocTagsAndImagePairs([]string{tags}, []image.Image{page})

	if err != nil {
		return nil, err
	}

	doc, err := docling.LoadFromDocTags(pairs, name)

	if err != nil {
		return nil, err
	}

	return doc, nil
}

// Render exports doc in the requested format. Unknown formats fall back
// to the docling dictionary.
func Render(doc Document, format, imageMode string, includePageImages bool) (any, error) {
	mode := docling.ParseImageRefMode(imageMode)

	switch format {
	case FormatMarkdown:
		return doc.ExportToMarkdown(mode), nil

	case FormatHTML:
		return doc.ExportToHTML(mode)
	}

	dict, err := doc.ExportToDict()

	if err != nil {
		return nil, err
	}

	if !includePageImages {
		StripPageImages(dict)
	}

	return dict, nil
}

// StripPageImages removes the embedded data of every page image and
// keeps its mimetype, dpi and size.
func StripPageImages(dict map[string]any) {
	pages, ok := dict["pages"].(map[string]any)

	if !ok {
		return
	}

	for _, p := range pages {
		page, ok := p.(map[string]any)

		if !ok {
			continue
		}

		if image, ok := page["image"].(map[string]any); ok {
			delete(image, "uri")
		}
	}
}
