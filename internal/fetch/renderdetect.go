package fetch

import (
	"bytes"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"
	"golang.org/x/net/html"
)

const (
	shellScoreThreshold = 4
	// readable words below which a page is treated as an empty shell
	shellWordThreshold = 10
)

// isClientShell reports whether markup fetched without a browser is a
// JavaScript application that has not rendered yet. The score combines mount
// points, noscript notices, framework fingerprints, script weight and visible
// text; readability is the tie-breaker for pages that pass the score but hold
// no article text.
func isClientShell(data []byte, pageURL string) bool {
	if len(data) == 0 {
		return false
	}
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return false
	}
	if shellScore(data, doc) >= shellScoreThreshold {
		return true
	}
	return readableWords(data, pageURL) < shellWordThreshold && len(strings.Fields(visibleText(doc))) < shellWordThreshold
}

func shellScore(data []byte, doc *html.Node) int {
	score := 0
	lower := bytes.ToLower(data)

	for _, id := range []string{"root", "app", "__next", "__nuxt"} {
		if hasMountPoint(lower, id) {
			score += 3
			break
		}
	}

	if bytes.Contains(lower, []byte("<noscript")) {
		score += 2
	}

	for _, marker := range []string{`content="Next.js"`, "data-reactroot", "ng-app", "data-v-", "data-server-rendered"} {
		if bytes.Contains(data, []byte(marker)) {
			score += 3
			break
		}
	}

	scriptBytes, textBytes := contentWeights(doc)
	if (textBytes > 0 && scriptBytes > textBytes*3) || (textBytes == 0 && scriptBytes > 0) {
		score += 2
	}

	if len(strings.Fields(visibleText(doc))) < 30 {
		score += 2
	}
	return score
}

func hasMountPoint(lower []byte, id string) bool {
	return bytes.Contains(lower, []byte(`<div id="`+id+`"`)) ||
		bytes.Contains(lower, []byte(`<div id='`+id+`'`))
}

// contentWeights sums inline script bytes against trimmed text bytes.
func contentWeights(doc *html.Node) (scriptBytes, textBytes int) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					scriptBytes += len(c.Data)
				}
			}
			return
		}
		if n.Type == html.TextNode {
			textBytes += len(strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return
}

// visibleText collects <body> text, skipping script, style and noscript.
func visibleText(doc *html.Node) string {
	body := findElement(doc, "body")
	if body == nil {
		return ""
	}
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
				buf.WriteString(trimmed)
				buf.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(body)
	return buf.String()
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func readableWords(data []byte, pageURL string) int {
	parsedURL, _ := url.Parse(pageURL)
	article, err := readability.FromReader(bytes.NewReader(data), parsedURL)
	if err != nil || article.Node == nil {
		return 0
	}
	var buf bytes.Buffer
	if err := article.RenderText(&buf); err != nil {
		return 0
	}
	return len(strings.Fields(buf.String()))
}
