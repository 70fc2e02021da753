package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Markers delimiting a data table inside a section's plain-text content.
const (
	TableStart = "<table>"
	TableEnd   = "</table>"
)

// BulletMarker prefixes each unordered list item.
const BulletMarker = "• "

// dataTableClass marks tables that carry tabular data rather than layout.
const dataTableClass = "wikitable"

// format renders one element as plain text.
func format(s *goquery.Selection) string {
	switch goquery.NodeName(s) {
	case "ul":
		return formatList(s, func(_ int) string { return BulletMarker })
	case "ol":
		return formatList(s, func(i int) string { return fmt.Sprintf("%d. ", i) })
	case "table":
		if s.HasClass(dataTableClass) {
			return formatTable(s)
		}
	}

	return normalize(s.Text())
}

// formatList renders one line per <li>, prefixed by marker(index) where
// index is 1-based.
func formatList(s *goquery.Selection, marker func(int) string) string {
	var lines []string
	s.ChildrenFiltered("li").Each(func(i int, li *goquery.Selection) {
		text := normalize(li.Text())
		if text == "" {
			return
		}
		lines = append(lines, marker(i+1)+text)
	})
	return strings.Join(lines, "\n")
}

// formatTable renders a data table as tab-separated rows between the table
// markers.
func formatTable(s *goquery.Selection) string {
	var rows []string
	s.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, normalize(cell.Text()))
		})
		if len(cells) == 0 {
			return
		}
		rows = append(rows, strings.Join(cells, "\t"))
	})

	if len(rows) == 0 {
		return ""
	}

	return TableStart + "\n" + strings.Join(rows, "\n") + "\n" + TableEnd
}
