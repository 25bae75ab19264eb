// Package htmltext converts HTML fragments from feed entries into plain text
// suitable for a terminal.
//
// Block elements become paragraphs separated by a blank line, <br> becomes a
// line break and links become numbered references:
//
//	<p>See <a href="https://example.com">this</a></p>
//
// renders as
//
//	See [this][1]
//
//	[1] https://example.com
package htmltext

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Normalize returns the plain-text rendering of an HTML fragment.
// Input that is not HTML is returned with whitespace collapsed.
func Normalize(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		// html.Parse only fails on reader errors; a strings.Reader has none.
		return collapse(s)
	}

	r := &renderer{refIndex: make(map[string]int)}
	r.walk(doc)
	r.flush()

	var b strings.Builder
	b.WriteString(strings.Join(r.paras, "\n\n"))
	if len(r.refs) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		for i, href := range r.refs {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("[" + strconv.Itoa(i+1) + "] " + href)
		}
	}
	return strings.TrimSpace(b.String())
}

// blockElements separate their content from surrounding text with a blank line.
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
	atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Blockquote: true, atom.Table: true, atom.Tr: true, atom.Hr: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
	atom.Aside: true, atom.Nav: true, atom.Figure: true, atom.Figcaption: true,
}

// skipElements never contribute text.
var skipElements = map[atom.Atom]bool{
	atom.Head: true, atom.Script: true, atom.Style: true,
	atom.Noscript: true, atom.Template: true, atom.Iframe: true,
}

type renderer struct {
	paras []string
	buf   []byte
	pre   int // depth of <pre> nesting
	link  int // depth of <a href> nesting

	refs     []string
	refIndex map[string]int
}

func (r *renderer) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		r.text(n.Data)
		return
	case html.DocumentNode:
		r.children(n)
		return
	case html.ElementNode:
	default:
		return
	}

	if skipElements[n.DataAtom] {
		return
	}

	switch {
	case n.DataAtom == atom.Br:
		r.buf = append(r.buf, '\n')
	case n.DataAtom == atom.Img:
		r.text(" " + attr(n, "alt") + " ")
	case n.DataAtom == atom.A:
		r.anchor(n)
	case n.DataAtom == atom.Pre:
		r.block()
		r.pre++
		r.children(n)
		r.block()
		r.pre--
	case n.DataAtom == atom.Td || n.DataAtom == atom.Th:
		r.text(" ")
		r.children(n)
		r.text(" ")
	case blockElements[n.DataAtom]:
		r.block()
		r.children(n)
		r.block()
	default:
		r.children(n)
	}
}

func (r *renderer) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.walk(c)
	}
}

// anchor renders <a href="u">text</a> as [text][n] and records u as
// reference n. Repeated hrefs share a number.
func (r *renderer) anchor(n *html.Node) {
	href := strings.TrimSpace(attr(n, "href"))
	if href == "" || r.link > 0 {
		r.children(n)
		return
	}

	r.buf = append(r.buf, '[')
	start := len(r.buf)
	r.link++
	r.children(n)
	r.link--

	label := strings.TrimSpace(string(r.buf[start:]))
	if label == "" {
		label = href
	}
	r.buf = append(r.buf[:start], label...)

	idx, ok := r.refIndex[href]
	if !ok {
		r.refs = append(r.refs, href)
		idx = len(r.refs)
		r.refIndex[href] = idx
	}
	r.buf = append(r.buf, "]["+strconv.Itoa(idx)+"]"...)
}

// block ends the current paragraph. Inside a link, block boundaries
// collapse to a space so the reference label stays on one line.
func (r *renderer) block() {
	if r.link > 0 {
		r.text(" ")
		return
	}
	r.flush()
}

func (r *renderer) flush() {
	if len(r.buf) == 0 {
		return
	}
	var para string
	if r.pre > 0 {
		para = strings.Trim(string(r.buf), "\n")
	} else {
		lines := strings.Split(string(r.buf), "\n")
		for i, l := range lines {
			lines[i] = strings.TrimSpace(l)
		}
		para = strings.TrimSpace(strings.Join(lines, "\n"))
	}
	if strings.TrimSpace(para) != "" {
		r.paras = append(r.paras, para)
	}
	r.buf = r.buf[:0]
}

// text appends s, collapsing whitespace runs outside <pre>.
func (r *renderer) text(s string) {
	if r.pre > 0 {
		r.buf = append(r.buf, s...)
		return
	}
	for _, c := range s {
		if unicode.IsSpace(c) {
			if r.pendingSpace() {
				r.buf = append(r.buf, ' ')
			}
			continue
		}
		r.buf = utf8.AppendRune(r.buf, c)
	}
}

func (r *renderer) pendingSpace() bool {
	if len(r.buf) == 0 {
		return false
	}
	last := r.buf[len(r.buf)-1]
	return last != ' ' && last != '\n'
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
