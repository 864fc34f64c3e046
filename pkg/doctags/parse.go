package doctags

import (
	"errors"
	"fmt"
	"strings"
)

var ErrMalformed = errors.New("malformed doctags")

// Elements are the tags that enclose content and must be closed by their own
// closing tag. Every other tag is an atom.
var Elements = []string{
	"title",
	"text",
	"paragraph",
	"caption",
	"footnote",
	"page_header",
	"page_footer",
	"list_item",
	"unordered_list",
	"ordered_list",
	"picture",
	"chart",
	"otsl",
	"code",
	"formula",
	"checkbox_selected",
	"checkbox_unselected",
}

func IsElement(name string) bool {
	if _, ok := SectionLevel(name); ok {
		return true
	}

	for _, e := range Elements {
		if e == name {
			return true
		}
	}

	return false
}

type token struct {
	text string

	tag     string
	closing bool
}

// Parse builds the element tree of a tag span. The returned root is the
// doctag element; a missing opening or closing doctag marker is tolerated.
// Elements still open at the closing marker or at the end of input are
// closed implicitly.
func Parse(input string) (*Node, error) {
	root := &Node{Name: "doctag"}

	stack := []*Node{root}
	opened := false

	for _, t := range tokenize(input) {
		top := stack[len(stack)-1]

		if t.tag == "" {
			appendText(top, t.text)
			continue
		}

		if t.tag == "doctag" {
			if t.closing {
				return root, nil
			}

			if opened || len(stack) > 1 {
				return nil, fmt.Errorf("%w: nested %s", ErrMalformed, Open)
			}

			opened = true
			continue
		}

		if !IsElement(t.tag) {
			if !t.closing {
				top.Parts = append(top.Parts, Part{Atom: t.tag})
			}

			continue
		}

		if t.closing {
			if top.Name != t.tag {
				return nil, fmt.Errorf("%w: unexpected </%s> inside <%s>", ErrMalformed, t.tag, top.Name)
			}

			stack = stack[:len(stack)-1]
			continue
		}

		node := &Node{Name: t.tag}

		top.Parts = append(top.Parts, Part{Node: node})
		stack = append(stack, node)
	}

	return root, nil
}

func appendText(n *Node, text string) {
	if len(n.Parts) > 0 {
		last := &n.Parts[len(n.Parts)-1]

		if last.Node == nil && last.Atom == "" {
			last.Text += text
			return
		}
	}

	n.Parts = append(n.Parts, Part{Text: text})
}

func tokenize(input string) []token {
	var result []token
	var text strings.Builder

	flush := func() {
		if text.Len() > 0 {
			result = append(result, token{text: text.String()})
			text.Reset()
		}
	}

	for i := 0; i < len(input); {
		if input[i] == '<' {
			if name, closing, n := scanTag(input[i:]); n > 0 {
				flush()

				result = append(result, token{tag: name, closing: closing})

				i += n
				continue
			}
		}

		text.WriteByte(input[i])
		i++
	}

	flush()

	return result
}

// scanTag matches <name> or </name> at the start of s and returns the consumed
// length, or 0 when s does not start with a tag.
func scanTag(s string) (string, bool, int) {
	i := 1
	closing := false

	if i < len(s) && s[i] == '/' {
		closing = true
		i++
	}

	start := i

	for i < len(s) && isNameByte(s[i]) {
		i++
	}

	if i == start || i >= len(s) || s[i] != '>' {
		return "", false, 0
	}

	return s[start:i], closing, i + 1
}

func isNameByte(c byte) bool {
	return c == '_' || c == '-' || c == '+' || c == '#' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}
