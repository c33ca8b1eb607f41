// Package markdown extracts plain-text description summaries from the
// optional markdown overlay files shipped alongside the input records.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Summary returns the plain text of the first paragraph of a markdown body.
// Headings before the first paragraph are skipped. Returns "" for bodies
// without prose.
func Summary(body []byte) string {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		para, ok := node.(*gmast.Paragraph)
		if !ok {
			continue
		}
		return strings.TrimSpace(plainText(para, body))
	}
	return ""
}

// PlainText flattens a whole markdown body into plain text, collapsing
// block boundaries into single newlines.
func PlainText(body []byte) string {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	var blocks []string
	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		if txt := strings.TrimSpace(plainText(node, body)); txt != "" {
			blocks = append(blocks, txt)
		}
	}
	return strings.Join(blocks, "\n")
}

func plainText(node gmast.Node, body []byte) string {
	var sb strings.Builder
	_ = gmast.Walk(node, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *gmast.Text:
			sb.Write(t.Segment.Value(body))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *gmast.AutoLink:
			sb.Write(t.URL(body))
		}
		return gmast.WalkContinue, nil
	})
	return sb.String()
}
