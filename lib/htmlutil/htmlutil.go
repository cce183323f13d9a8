package htmlutil

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	if node.Type == html.ElementNode && (node.Data == "script" || node.Data == "style") {
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// ExtractText pulls the visible text out of a page: script and style
// subtrees are dropped, every line is trimmed, runs of inline spacing
// are split into their own lines and blank lines are removed. It is
// best-effort on malformed markup and never fails.
func ExtractText(markup string) string {
	text := markup
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err == nil {
		var buffer bytes.Buffer
		for _, node := range doc.Nodes {
			getTextRecursive(node, &buffer)
		}
		text = buffer.String()
	}

	var chunks []string
	for _, line := range strings.Split(text, "\n") {
		for _, phrase := range strings.Split(line, "  ") {
			phrase = strings.Trim(phrase, " \t\r")
			if phrase == "" {
				continue
			}
			chunks = append(chunks, phrase)
		}
	}
	return strings.Join(chunks, "\n")
}
