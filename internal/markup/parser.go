// Package markup turns the product description mini-language into safe HTML.
//
// Supported tags: <b>, <i>, <u>, <p>, <link="url">, <color="#RRGGBB">,
// <image>url</image> and <vid>url</vid>. Anything else, including tags that
// are never closed, is kept as literal text.
package markup

import "strings"

type Kind int

const (
	Text Kind = iota
	LineBreak
	Bold
	Italic
	Underline
	Paragraph
	Link
	Color
	Image
	Video
)

// Node is one element of the parsed tree. Attr holds the link target or
// color for Link and Color, and the source URL for Image and Video.
type Node struct {
	Kind     Kind
	Text     string
	Attr     string
	Children []*Node
}

var tagKinds = map[string]Kind{
	"b":     Bold,
	"i":     Italic,
	"u":     Underline,
	"p":     Paragraph,
	"link":  Link,
	"color": Color,
	"image": Image,
	"vid":   Video,
}

type parser struct {
	src  string
	pos  int
	open []string
}

// Parse builds the node tree for src. It never fails.
func Parse(src string) []*Node {
	p := &parser{src: src}
	nodes, _ := p.parseUntil("")
	return nodes
}

// parseUntil consumes nodes until the closing tag for name. It stops without
// consuming when it meets the closing tag of an enclosing element, and
// reports whether its own closing tag was found.
func (p *parser) parseUntil(name string) ([]*Node, bool) {
	var nodes []*Node
	var text strings.Builder

	flush := func() {
		if text.Len() > 0 {
			nodes = append(nodes, &Node{Kind: Text, Text: text.String()})
			text.Reset()
		}
	}

	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '\n':
			flush()
			nodes = append(nodes, &Node{Kind: LineBreak})
			p.pos++
		case c == '\r':
			p.pos++
		case c == '<':
			if closing, end, ok := p.closingTag(p.pos); ok {
				if closing == name {
					flush()
					p.pos = end
					return nodes, true
				}
				if p.isOpen(closing) {
					flush()
					return nodes, false
				}
			}
			if node, ok := p.element(); ok {
				flush()
				nodes = append(nodes, node...)
				continue
			}
			text.WriteByte(c)
			p.pos++
		default:
			text.WriteByte(c)
			p.pos++
		}
	}
	flush()
	return nodes, name == ""
}

func (p *parser) isOpen(name string) bool {
	for _, n := range p.open {
		if n == name {
			return true
		}
	}
	return false
}

// element parses a tag starting at p.pos. An unclosed tag yields its literal
// opening text followed by whatever content was parsed after it.
func (p *parser) element() ([]*Node, bool) {
	start := p.pos
	name, attr, end, ok := p.openingTag(start)
	if !ok {
		return nil, false
	}
	kind := tagKinds[name]

	if kind == Image || kind == Video {
		closeAt, closeEnd, found := p.findClosing(end, name)
		if !found {
			return nil, false
		}
		p.pos = closeEnd
		return []*Node{{Kind: kind, Attr: strings.TrimSpace(p.src[end:closeAt])}}, true
	}

	p.pos = end
	p.open = append(p.open, name)
	children, closed := p.parseUntil(name)
	p.open = p.open[:len(p.open)-1]

	if !closed {
		literal := &Node{Kind: Text, Text: p.src[start:end]}
		return append([]*Node{literal}, children...), true
	}
	return []*Node{{Kind: kind, Attr: attr, Children: children}}, true
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func (p *parser) skipSpace(i int) int {
	for i < len(p.src) && (p.src[i] == ' ' || p.src[i] == '\t') {
		i++
	}
	return i
}

func (p *parser) tagName(i int) (string, int) {
	j := i
	for j < len(p.src) && isLetter(p.src[j]) {
		j++
	}
	return strings.ToLower(p.src[i:j]), j
}

// openingTag recognises <name> and <name="value"> for known tags.
func (p *parser) openingTag(i int) (name, attr string, end int, ok bool) {
	name, j := p.tagName(i + 1)
	kind, known := tagKinds[name]
	if !known {
		return "", "", 0, false
	}

	if kind == Link || kind == Color {
		j = p.skipSpace(j)
		if j >= len(p.src) || p.src[j] != '=' {
			return "", "", 0, false
		}
		j = p.skipSpace(j + 1)
		if j >= len(p.src) || (p.src[j] != '"' && p.src[j] != '\'') {
			return "", "", 0, false
		}
		quote := p.src[j]
		rest := p.src[j+1:]
		k := strings.IndexByte(rest, quote)
		if k <= 0 || strings.ContainsAny(rest[:k], "\"'<>\n") {
			return "", "", 0, false
		}
		attr = strings.TrimSpace(rest[:k])
		j += k + 2
	}

	j = p.skipSpace(j)
	if j >= len(p.src) || p.src[j] != '>' {
		return "", "", 0, false
	}
	return name, attr, j + 1, true
}

func (p *parser) closingTag(i int) (string, int, bool) {
	if i+1 >= len(p.src) || p.src[i+1] != '/' {
		return "", 0, false
	}
	name, j := p.tagName(i + 2)
	if _, known := tagKinds[name]; !known {
		return "", 0, false
	}
	j = p.skipSpace(j)
	if j >= len(p.src) || p.src[j] != '>' {
		return "", 0, false
	}
	return name, j + 1, true
}

// findClosing locates the first </name> at or after i.
func (p *parser) findClosing(i int, name string) (int, int, bool) {
	for k := i; k < len(p.src); k++ {
		if p.src[k] != '<' {
			continue
		}
		if closing, end, ok := p.closingTag(k); ok && closing == name {
			return k, end, true
		}
	}
	return 0, 0, false
}
