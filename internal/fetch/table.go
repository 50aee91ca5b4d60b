package fetch

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseResultTable locates the result table in an HTML document and returns
// its data rows. The first <tr> is the header and is skipped. An absent table
// means the upstream layout changed.
func ParseResultTable(r io.Reader) ([]Row, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, eris.Wrap(err, "parse html")
	}

	table := findByID(doc, atom.Table, resultTableID)
	if table == nil {
		return nil, eris.Errorf("table #%s not found", resultTableID)
	}

	trs := collect(table, atom.Tr)
	if len(trs) <= 1 {
		return nil, nil
	}

	rows := make([]Row, 0, len(trs)-1)
	for _, tr := range trs[1:] {
		var row Row
		for _, td := range collect(tr, atom.Td) {
			row = append(row, Cell{
				Text: nodeText(td),
				Href: firstHref(td),
			})
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// findByID walks the tree depth-first for the first element of the given tag
// carrying the given id attribute.
func findByID(n *html.Node, tag atom.Atom, id string) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == tag {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, tag, id); found != nil {
			return found
		}
	}
	return nil
}

// collect gathers all descendants of n with the given tag, in document order.
func collect(n *html.Node, tag atom.Atom) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == tag {
			out = append(out, c)
		}
		out = append(out, collect(c, tag)...)
	}
	return out
}

// nodeText concatenates the text nodes under n. Block-ish children are
// separated by newlines so multi-line cells keep their line structure.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Br, atom.P, atom.Div, atom.Li, atom.Tr:
				sb.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// firstHref returns the href of the first anchor under n, or "".
func firstHref(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.A {
		for _, a := range n.Attr {
			if a.Key == "href" {
				return a.Val
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if href := firstHref(c); href != "" {
			return href
		}
	}
	return ""
}
