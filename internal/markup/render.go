package markup

import (
	"html"
	"net/url"
	"regexp"
	"strings"
)

var (
	youtubeID = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([a-zA-Z0-9_-]+)`)
	vimeoID   = regexp.MustCompile(`vimeo\.com/(\d+)`)
)

// Format renders src as HTML. All text and attribute values are escaped.
func Format(src string) string {
	var b strings.Builder
	renderNodes(&b, Parse(src))
	return b.String()
}

// PlainText returns the text content of src with every tag removed. Images
// and videos are dropped. The result is not HTML-escaped.
func PlainText(src string) string {
	var b strings.Builder
	plainNodes(&b, Parse(src))
	return b.String()
}

func renderNodes(b *strings.Builder, nodes []*Node) {
	for _, n := range nodes {
		render(b, n)
	}
}

func render(b *strings.Builder, n *Node) {
	switch n.Kind {
	case Text:
		b.WriteString(html.EscapeString(n.Text))
	case LineBreak:
		b.WriteString("<br>")
	case Bold:
		wrap(b, "<strong>", "</strong>", n.Children)
	case Italic:
		wrap(b, "<em>", "</em>", n.Children)
	case Underline:
		wrap(b, "<u>", "</u>", n.Children)
	case Paragraph:
		wrap(b, `<p class="formatted-paragraph">`, "</p>", n.Children)
	case Link:
		href, ok := SafeURL(n.Attr)
		if !ok {
			renderNodes(b, n.Children)
			return
		}
		wrap(b, `<a href="`+html.EscapeString(href)+`" target="_blank" rel="noopener noreferrer" class="formatted-link">`, "</a>", n.Children)
	case Color:
		color, ok := normalizeColor(n.Attr)
		if !ok {
			renderNodes(b, n.Children)
			return
		}
		wrap(b, `<span class="formatted-color" style="color: `+color+`; font-weight: 500;">`, "</span>", n.Children)
	case Image:
		src, ok := SafeURL(n.Attr)
		if !ok {
			return
		}
		b.WriteString(`<div class="formatted-image-wrapper"><img src="` + html.EscapeString(src) + `" alt="" class="formatted-image" loading="lazy"></div>`)
	case Video:
		renderVideo(b, n.Attr)
	}
}

func wrap(b *strings.Builder, open, close string, children []*Node) {
	b.WriteString(open)
	renderNodes(b, children)
	b.WriteString(close)
}

func renderVideo(b *strings.Builder, raw string) {
	if m := youtubeID.FindStringSubmatch(raw); m != nil {
		b.WriteString(`<div class="video-container"><iframe width="560" height="315" src="https://www.youtube.com/embed/` + m[1] +
			`" frameborder="0" allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture" allowfullscreen></iframe></div>`)
		return
	}
	if m := vimeoID.FindStringSubmatch(raw); m != nil {
		b.WriteString(`<div class="video-container"><iframe src="https://player.vimeo.com/video/` + m[1] +
			`" width="560" height="315" frameborder="0" allow="autoplay; fullscreen; picture-in-picture" allowfullscreen></iframe></div>`)
		return
	}
	src, ok := SafeURL(raw)
	if !ok {
		return
	}
	b.WriteString(`<div class="video-container"><video width="560" height="315" controls><source src="` + html.EscapeString(src) +
		`" type="video/mp4"></video></div>`)
}

// SafeURL accepts absolute http(s) URLs and site-relative paths.
func SafeURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return "", false
		}
		return u.String(), true
	case "":
		if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
			return u.String(), true
		}
	}
	return "", false
}

// normalizeColor accepts RRGGBB with or without a leading '#'.
func normalizeColor(raw string) (string, bool) {
	c := strings.TrimPrefix(strings.TrimSpace(raw), "#")
	if len(c) != 6 {
		return "", false
	}
	for i := 0; i < len(c); i++ {
		ch := c[i]
		if !(ch >= '0' && ch <= '9' || ch >= 'a' && ch <= 'f' || ch >= 'A' && ch <= 'F') {
			return "", false
		}
	}
	return "#" + c, true
}

func plainNodes(b *strings.Builder, nodes []*Node) {
	for _, n := range nodes {
		switch n.Kind {
		case Text:
			b.WriteString(n.Text)
		case LineBreak:
			b.WriteByte('\n')
		case Image, Video:
		default:
			plainNodes(b, n.Children)
		}
	}
}
