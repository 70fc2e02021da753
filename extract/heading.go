package extract

import (
	"github.com/PuerkitoBio/goquery"
)

// heading is an element that opens a new section.
type heading interface {
	title() string
	level() int
}

// nativeHeading is an <h1>..<h6> element.
type nativeHeading struct {
	sel *goquery.Selection
}

func (h nativeHeading) title() string {
	return normalize(h.sel.Text())
}

func (h nativeHeading) level() int {
	return headingLevel(goquery.NodeName(h.sel))
}

// wrappedHeading is a styling wrapper (e.g. <div class="mw-heading">) whose
// first element child is the real heading. The wrapper may carry extra children such as
// edit links, so only the inner heading contributes to the title.
type wrappedHeading struct {
	inner nativeHeading
}

func (h wrappedHeading) title() string {
	return h.inner.title()
}

func (h wrappedHeading) level() int {
	return h.inner.level()
}

// asHeading classifies a container child as a heading, if it is one.
func asHeading(s *goquery.Selection) (heading, bool) {
	if headingLevel(goquery.NodeName(s)) > 0 {
		return nativeHeading{sel: s}, true
	}

	// Only a wrapper that opens with its heading counts; a block that
	// merely contains a heading after other content is body text.
	inner := s.Children().First()
	if inner.Length() > 0 && headingLevel(goquery.NodeName(inner)) > 0 {
		return wrappedHeading{inner: nativeHeading{sel: inner}}, true
	}

	return nil, false
}

// headingLevel returns 1-6 for h1..h6 tag names and 0 otherwise.
func headingLevel(name string) int {
	if len(name) != 2 || name[0] != 'h' {
		return 0
	}
	if name[1] < '1' || name[1] > '6' {
		return 0
	}
	return int(name[1] - '0')
}
