package doctags

import (
	"strconv"
	"strings"
)

const (
	Open  = "<doctag>"
	Close = "</doctag>"
)

// Truncate cuts the text after the first closing doctag marker. Text without
// the marker is returned unchanged.
func Truncate(text string) string {
	idx := strings.Index(text, Close)

	if idx < 0 {
		return text
	}

	return text[:idx+len(Close)]
}

// LocationGrid is the resolution of loc_N coordinates.
const LocationGrid = 500

// Location is a bounding box on the LocationGrid.
type Location struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Node is a DocTags element with its content in document order.
type Node struct {
	Name  string
	Parts []Part
}

// Part is exactly one of text, an atom tag or a nested element.
type Part struct {
	Text string
	Atom string
	Node *Node
}

// Location returns the first four loc_N atoms of the element.
func (n *Node) Location() *Location {
	var values []int

	for _, p := range n.Parts {
		if p.Node != nil {
			continue
		}

		if v, ok := parseLoc(p.Atom); ok {
			values = append(values, v)
		}

		if len(values) == 4 {
			return &Location{
				Left:   values[0],
				Top:    values[1],
				Right:  values[2],
				Bottom: values[3],
			}
		}
	}

	return nil
}

// Text returns the element's own text, ignoring nested elements.
func (n *Node) Text() string {
	var sb strings.Builder

	for _, p := range n.Parts {
		sb.WriteString(p.Text)
	}

	return strings.TrimSpace(sb.String())
}

// Children returns the nested elements.
func (n *Node) Children() []*Node {
	var result []*Node

	for _, p := range n.Parts {
		if p.Node != nil {
			result = append(result, p.Node)
		}
	}

	return result
}

// Child returns the first nested element with the given name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children() {
		if c.Name == name {
			return c
		}
	}

	return nil
}

// Atoms returns the atom tags in order.
func (n *Node) Atoms() []string {
	var result []string

	for _, p := range n.Parts {
		if p.Atom != "" {
			result = append(result, p.Atom)
		}
	}

	return result
}

func parseLoc(atom string) (int, bool) {
	val, ok := strings.CutPrefix(atom, "loc_")

	if !ok {
		return 0, false
	}

	i, err := strconv.Atoi(val)

	if err != nil {
		return 0, false
	}

	return i, true
}

// SectionLevel returns N for section_header_level_N elements.
func SectionLevel(name string) (int, bool) {
	val, ok := strings.CutPrefix(name, "section_header_level_")

	if !ok {
		return 0, false
	}

	level, err := strconv.Atoi(val)

	if err != nil || level < 0 {
		return 0, false
	}

	return level, true
}
