package edgar

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// findXMLDocument walks an EDGAR filing index page and returns the first
// linked .xml document name. Full-text index pages link the raw ownership XML
// alongside rendered variants; the doc4 renderer links ("xslF345X..") are
// skipped so the raw document wins.
func findXMLDocument(page []byte) string {
	root, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return ""
	}

	var found string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				name := cleanDocHref(attr.Val)
				if name != "" {
					found = name
					return
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return found
}

func cleanDocHref(href string) string {
	href = strings.TrimSpace(href)
	lower := strings.ToLower(href)
	if !strings.HasSuffix(lower, ".xml") {
		return ""
	}
	// Rendered stylesheet variants live under an xsl prefix path segment.
	if strings.Contains(lower, "xsl") {
		return ""
	}
	if i := strings.LastIndex(href, "/"); i >= 0 {
		href = href[i+1:]
	}
	if href == "" || strings.Contains(strings.ToLower(href), "index") {
		return ""
	}
	return href
}
