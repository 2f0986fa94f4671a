// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package browser

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// hidden elements never contribute visible text.
var hiddenElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
}

// NodeText appends the text of n and its descendants to sb, one space
// between text nodes. Content of hidden elements is skipped.
func NodeText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		tmp := strings.Join(strings.Fields(n.Data), " ")
		if tmp == "" {
			return
		}

		if sb.Len() != 0 {
			sb.WriteByte(' ')
		}

		sb.WriteString(tmp)
	case html.ElementNode:
		if hiddenElements[strings.ToLower(n.Data)] {
			return
		}

		fallthrough
	default:
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			NodeText(child, sb)
		}
	}
}

// hasHTMLContentType validates that the response seems to be an HTML response.
func hasHTMLContentType(media string) bool {
	const expectedMedia = "text/html"

	return strings.EqualFold(
		expectedMedia,
		media[0:min(len(media), len(expectedMedia))],
	)
}

// AsReader converts an HTTP response body to an io.Reader decoding the
// declared charset. Error statuses are fine: challenge pages come back
// as 429 and still need to be read.
func AsReader(resp *http.Response) (io.Reader, error) {
	media := resp.Header.Get("Content-Type")
	if media != "" && !hasHTMLContentType(media) {
		return nil, fmt.Errorf("media type is %s", media)
	}

	rr, err := charset.NewReader(resp.Body, media)
	if err != nil {
		return nil, err
	}

	return rr, nil
}

// PageText returns the visible text of the document followed by the
// content of its meta tags, one per line. Maps pages describe the place in
// og: metadata, including a static map centered on it.
func PageText(doc *goquery.Document) string {
	var lines []string

	doc.Find("meta[content]").Each(func(_ int, s *goquery.Selection) {
		if content := strings.TrimSpace(s.AttrOr("content", "")); content != "" {
			lines = append(lines, content)
		}
	})

	var sb strings.Builder

	doc.Find("body").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			NodeText(n, &sb)
		}
	})

	return strings.Join(append([]string{sb.String()}, lines...), "\n")
}
