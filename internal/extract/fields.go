package extract

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	maxBenefits        = 8
	maxTestimonials    = 5
	maxImages          = 10
	maxVideos          = 5
	maxDescriptionRune = 500
)

var (
	priceRe = regexp.MustCompile(`R\$\s*\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{2})?|USD\s*\d+[.,]?\d*|\$\s*\d+[.,]?\d*`)
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`\(\d{2}\)\s*\d{4,5}-?\d{4}|\d{2}\s*\d{4,5}-?\d{4}`)
)

// rule selects candidates for a field. When skip is set, matching elements are
// passed over before the first one is taken.
type rule struct {
	selector string
	skip     func(text string) bool
}

func containsAny(words ...string) func(string) bool {
	return func(text string) bool {
		for _, w := range words {
			if strings.Contains(text, w) {
				return true
			}
		}
		return false
	}
}

var titleRules = []rule{
	{selector: "h1", skip: containsAny("404", "Error", "Página não encontrada")},
	{selector: ".main-title, .product-title, .headline, .title"},
	{selector: `[class*="title"]`, skip: containsAny("Error")},
	{selector: `meta[property="og:title"]`},
	{selector: `meta[name="twitter:title"]`},
	{selector: "title"},
}

var descriptionRules = []rule{
	{selector: ".product-description p:first-child"},
	{selector: ".description p:first-child"},
	{selector: ".summary, .lead, .intro"},
	{selector: `meta[name="description"]`},
	{selector: `meta[property="og:description"]`},
	{selector: "p", skip: func(text string) bool {
		return strings.TrimSpace(text) == "" || containsAny("cookie", "política")(text)
	}},
}

var priceSelectors = []string{
	".price, .valor, .preco, .cost, .amount",
	`[class*="price"], [class*="valor"], [class*="preco"]`,
}

var benefitRules = []rule{
	{selector: ".benefits li, .vantagens li, .features li"},
	{selector: "ul li", skip: func(text string) bool { return !containsAny("✓", "✅")(text) }},
	{selector: "li", skip: func(text string) bool { return !containsAny("Transforme", "Alcance", "Aprenda")(text) }},
}

var testimonialRules = []rule{
	{selector: ".testimonials, .depoimentos, .reviews"},
	{selector: "*", skip: func(text string) bool { return !containsAny("recomendo", "excelente", "funcionou")(text) }},
}

// upperPT uppercases with pt-BR rules. Casers keep state, so each call gets
// its own.
func upperPT(s string) string { return cases.Upper(language.BrazilianPortuguese).String(s) }

var ctaRules = []rule{
	{selector: "a, button", skip: func(text string) bool { return !strings.Contains(upperPT(text), "COMPRAR") }},
	{selector: "a, button", skip: func(text string) bool { return !strings.Contains(upperPT(text), "QUERO") }},
	{selector: ".buy-button, .call-to-action, .btn-primary"},
}

// Parse turns markup into a Result. Fields without a match stay empty; it
// never fails. Relative image sources resolve against finalURL.
func Parse(markup, finalURL string) Result {
	res := emptyResult(finalURL)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return res
	}

	res.Title = firstValid(doc, titleRules, func(v string) bool {
		return runeLen(v) > 5 && !strings.Contains(strings.ToLower(v), "error")
	})
	res.Description = truncateRunes(firstValid(doc, descriptionRules, func(v string) bool {
		return runeLen(v) > 50
	}), maxDescriptionRune)
	res.Price = findPrice(doc)
	res.Benefits = collect(doc, benefitRules, maxBenefits, 10, 200)
	res.Testimonials = collect(doc, testimonialRules, maxTestimonials, 20, 300)
	res.CTA = firstValid(doc, ctaRules, func(v string) bool {
		n := runeLen(v)
		return n > 3 && n < 100
	})
	res.Images = findImages(doc, finalURL)
	res.Videos = findVideos(doc)

	res.Contact.Email = emailRe.FindString(markup)
	res.Contact.Phone = phoneRe.FindString(markup)

	res.Metadata = Metadata{
		OGTitle:       metaContent(doc, `meta[property="og:title"]`),
		OGDescription: metaContent(doc, `meta[property="og:description"]`),
		OGImage:       metaContent(doc, `meta[property="og:image"]`),
		Keywords:      metaContent(doc, `meta[name="keywords"]`),
		Author:        metaContent(doc, `meta[name="author"]`),
	}
	return res
}

// firstValid takes the first element of each rule in turn and returns the
// first trimmed value that passes valid. Only one element per rule is tried.
func firstValid(doc *goquery.Document, rules []rule, valid func(string) bool) string {
	for _, r := range rules {
		sel := pick(doc.Find(r.selector), r.skip)
		if sel.Length() == 0 {
			continue
		}
		if v := strings.TrimSpace(value(sel)); v != "" && valid(v) {
			return v
		}
	}
	return ""
}

func pick(sel *goquery.Selection, skip func(string) bool) *goquery.Selection {
	if skip == nil {
		return sel.First()
	}
	return sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return !skip(s.Text())
	}).First()
}

// value prefers a non-empty content attribute (meta tags) over text.
func value(sel *goquery.Selection) string {
	if c, ok := sel.Attr("content"); ok && c != "" {
		return c
	}
	return sel.Text()
}

func findPrice(doc *goquery.Document) string {
	for _, selector := range priceSelectors {
		var price string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			price = priceRe.FindString(strings.TrimSpace(s.Text()))
			return price == ""
		})
		if price != "" {
			return price
		}
	}
	return ""
}

// collect gathers distinct texts whose length lies strictly between minLen and
// maxLen, across rules in order, stopping at limit.
func collect(doc *goquery.Document, rules []rule, limit, minLen, maxLen int) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, r := range rules {
		doc.Find(r.selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			if r.skip != nil && r.skip(text) {
				return true
			}
			n := runeLen(text)
			if n <= minLen || n >= maxLen {
				return true
			}
			if _, dup := seen[text]; dup {
				return true
			}
			seen[text] = struct{}{}
			out = append(out, text)
			return len(out) < limit
		})
		if len(out) >= limit {
			break
		}
	}
	return out
}

func findImages(doc *goquery.Document, finalURL string) []Image {
	base, _ := url.Parse(finalURL)
	images := []Image{}
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if src == "" || strings.Contains(src, "data:") {
			return true
		}
		alt, _ := s.Attr("alt")
		images = append(images, Image{Src: resolve(base, src), Alt: alt})
		return len(images) < maxImages
	})
	return images
}

func resolve(base *url.URL, src string) string {
	if strings.HasPrefix(src, "http") || base == nil {
		return src
	}
	ref, err := url.Parse(src)
	if err != nil {
		return src
	}
	return base.ResolveReference(ref).String()
}

func findVideos(doc *goquery.Document) []string {
	videos := []string{}
	doc.Find(`video, iframe[src*="youtube"], iframe[src*="vimeo"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if src == "" {
			src, _ = s.Find("source").First().Attr("src")
		}
		if src == "" {
			return true
		}
		videos = append(videos, src)
		return len(videos) < maxVideos
	})
	return videos
}

func metaContent(doc *goquery.Document, selector string) string {
	c, _ := doc.Find(selector).First().Attr("content")
	return c
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }

func truncateRunes(s string, n int) string {
	if runeLen(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
