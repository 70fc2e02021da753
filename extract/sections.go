package extract

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/wikifeed/article"
)

// ErrNoContent is returned when the document has neither a content wrapper
// nor a body.
var ErrNoContent = errors.New("no content container found")

// Placeholder is the single section emitted when an article's HTML cannot be
// structured.
var Placeholder = article.Section{
	Title:   "Error",
	Level:   0,
	Content: "Unable to load the content of this article.",
}

// noiseSelectors match subtrees that never carry article prose.
var noiseSelectors = []string{
	"style",
	"script",
	".infobox",
	"#toc",
	".toc",
	".mw-editsection",
	".navbox",
	".vertical-navbox",
	".metadata",
	".ambox",
	".sidebar",
	".hatnote",
	".dablink",
	".rellink",
	".shortdescription",
	".mw-empty-elt",
	".noprint",
	"sup.reference",
	"figure",
	".thumb",
	"img",
}

// containerSelectors are tried in order before falling back to <body>.
var containerSelectors = []string{
	".mw-parser-output",
	".content",
	"#mw-content-text",
}

// skipClassFragments are matched as substrings of an element's class
// attribute.
var skipClassFragments = []string{
	"toc",
	"hatnote",
	"navbox",
	"infobox",
	"jump-link",
	"shortdescription",
	"short-description",
}

// Parse converts article HTML into sections in document order. Unlike
// Sections it reports failures to the caller.
func Parse(html string) ([]article.Section, error) {
	return ParseReader(strings.NewReader(html))
}

// ParseReader is Parse over a reader.
func ParseReader(r io.Reader) ([]article.Section, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(strings.Join(noiseSelectors, ", ")).Remove()

	container := findContainer(doc)
	if container == nil {
		return nil, ErrNoContent
	}

	return walk(container), nil
}

// Sections converts article HTML into sections and never fails: any error
// yields a single Placeholder section.
func Sections(html string) []article.Section {
	sections, err := Parse(html)
	if err != nil {
		return []article.Section{Placeholder}
	}
	return sections
}

// findContainer returns the main content wrapper, the body, or nil.
func findContainer(doc *goquery.Document) *goquery.Selection {
	for _, selector := range containerSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}

	if body := doc.Find("body").First(); body.Length() > 0 {
		return body
	}

	return nil
}

// walk splits the container's direct children into a lead section and one
// section per heading.
func walk(container *goquery.Selection) []article.Section {
	var sections []article.Section
	var current *article.Section
	var lead, body []string

	emit := func() {
		if current == nil {
			s := article.Section{Level: 0, Content: strings.Join(lead, "\n\n")}
			if !s.IsEmpty() {
				sections = append(sections, s)
			}
			return
		}

		current.Content = strings.Join(body, "\n\n")
		if !current.IsEmpty() {
			sections = append(sections, *current)
		}
	}

	container.Children().Each(func(_ int, s *goquery.Selection) {
		if h, ok := asHeading(s); ok {
			emit()
			current = &article.Section{Title: h.title(), Level: h.level()}
			body = nil
			return
		}

		if skippable(s) {
			return
		}

		text := format(s)
		if text == "" {
			return
		}

		if current == nil {
			lead = append(lead, text)
		} else {
			body = append(body, text)
		}
	})

	emit()

	return sections
}

// skippable reports whether a non-heading element is boilerplate.
func skippable(s *goquery.Selection) bool {
	switch goquery.NodeName(s) {
	case "meta", "style":
		return true
	}

	class, ok := s.Attr("class")
	if !ok {
		return false
	}
	class = strings.ToLower(class)
	for _, fragment := range skipClassFragments {
		if strings.Contains(class, fragment) {
			return true
		}
	}

	return false
}

// normalize collapses runs of whitespace into single spaces.
func normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
