package extract

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/wikifeed/article"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParse_LeadAndHeadings verifies the lead section and one section per
// heading, in document order
func TestParse_LeadAndHeadings(t *testing.T) {
	html := `<div class="content"><p>Intro.</p><h2>A</h2><p>Body A.</p><h3>B</h3><p>Body B.</p></div>`

	sections, err := Parse(html)
	require.NoError(t, err)

	assert.Equal(t, []article.Section{
		{Title: "", Level: 0, Content: "Intro."},
		{Title: "A", Level: 2, Content: "Body A."},
		{Title: "B", Level: 3, Content: "Body B."},
	}, sections)
}

// TestParse_WrappedHeadings verifies headings wrapped in styling divs are
// recognized, with edit links stripped
func TestParse_WrappedHeadings(t *testing.T) {
	html := `
	<div class="mw-content-ltr mw-parser-output">
		<p>Lead text.</p>
		<div class="mw-heading mw-heading2">
			<h2 id="History">History</h2>
			<span class="mw-editsection">[<a href="#">edit</a>]</span>
		</div>
		<p>Long ago.</p>
		<div class="mw-heading mw-heading4"><h4>Detail</h4></div>
		<p>Fine print.</p>
	</div>`

	sections, err := Parse(html)
	require.NoError(t, err)
	require.Len(t, sections, 3)

	assert.Equal(t, "Lead text.", sections[0].Content)
	assert.Equal(t, article.Section{Title: "History", Level: 2, Content: "Long ago."}, sections[1])
	assert.Equal(t, article.Section{Title: "Detail", Level: 4, Content: "Fine print."}, sections[2])
}

// TestParse_BlockContainingHeadingIsBody verifies a block whose heading is
// not its first element stays body text instead of opening a section
func TestParse_BlockContainingHeadingIsBody(t *testing.T) {
	html := `<div class="content"><p>Lead.</p><div><p>Text</p><h3>X</h3></div></div>`

	sections, err := Parse(html)
	require.NoError(t, err)

	require.Len(t, sections, 1)
	assert.Equal(t, 0, sections[0].Level)
	assert.Contains(t, sections[0].Content, "Text")
}

// TestParse_LevelsNeedNotNest verifies a deep heading may follow a shallow
// one directly
func TestParse_LevelsNeedNotNest(t *testing.T) {
	html := `<div class="content"><h1>Top</h1><p>x</p><h3>Deep</h3><p>y</p></div>`

	sections, err := Parse(html)
	require.NoError(t, err)
	require.Len(t, sections, 2)

	assert.Equal(t, 1, sections[0].Level)
	assert.Equal(t, 3, sections[1].Level)
}

// TestParse_NoLead verifies no empty lead section is emitted
func TestParse_NoLead(t *testing.T) {
	html := `<div class="content"><h2>Only</h2><p>Text.</p></div>`

	sections, err := Parse(html)
	require.NoError(t, err)

	require.Len(t, sections, 1)
	assert.Equal(t, "Only", sections[0].Title)
}

// TestParse_SkipsEmptySections verifies headings with blank titles and no
// content are dropped, but titled sections without content are kept
func TestParse_SkipsEmptySections(t *testing.T) {
	html := `<div class="content"><p>Lead.</p><h2>   </h2><h2>See also</h2><h2>Notes</h2><p>n</p></div>`

	sections, err := Parse(html)
	require.NoError(t, err)

	var titles []string
	for _, s := range sections {
		assert.False(t, s.IsEmpty())
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{"", "See also", "Notes"}, titles)
}

// TestParse_RemovesNoise verifies boilerplate subtrees never reach the
// output
func TestParse_RemovesNoise(t *testing.T) {
	html := `
	<div class="mw-parser-output">
		<div class="shortdescription">Italian painting</div>
		<div class="hatnote">For other uses, see Mona Lisa (disambiguation).</div>
		<table class="infobox"><tr><td>Artist</td><td>Leonardo</td></tr></table>
		<figure><img src="a.jpg"><figcaption>Caption</figcaption></figure>
		<p>The painting<sup class="reference">[1]</sup> is famous.</p>
		<div id="toc" class="toc"><ul><li>1 History</li></ul></div>
		<meta property="mw:PageProp/toc">
		<style>.x{}</style>
		<h2>History</h2>
		<div class="navbox">Navigation</div>
		<p>It was painted.</p>
	</div>`

	sections, err := Parse(html)
	require.NoError(t, err)
	require.Len(t, sections, 2)

	assert.Equal(t, "The painting is famous.", sections[0].Content)
	assert.Equal(t, "It was painted.", sections[1].Content)
}

// TestParse_SkipsByClassFragment verifies the class substring skip list
func TestParse_SkipsByClassFragment(t *testing.T) {
	html := `
	<div class="content">
		<p>Lead.</p>
		<div class="mw-jump-link">Jump to content</div>
		<div class="custom-short-description">Short</div>
		<h2>A</h2>
		<div class="toclimit-3">contents</div>
		<p>Body.</p>
	</div>`

	sections, err := Parse(html)
	require.NoError(t, err)

	assert.Equal(t, []article.Section{
		{Level: 0, Content: "Lead."},
		{Title: "A", Level: 2, Content: "Body."},
	}, sections)
}

// TestParse_JoinsParagraphs verifies several blocks in one section are
// separated by a blank line
func TestParse_JoinsParagraphs(t *testing.T) {
	html := `<div class="content"><p>One.</p><p>Two
	   spans   lines.</p></div>`

	sections, err := Parse(html)
	require.NoError(t, err)
	require.Len(t, sections, 1)

	assert.Equal(t, "One.\n\nTwo spans lines.", sections[0].Content)
}

// TestParse_FallsBackToBody verifies documents without a content wrapper
// are read from <body>
func TestParse_FallsBackToBody(t *testing.T) {
	html := `<html><body><p>Plain.</p><h2>T</h2><p>More.</p></body></html>`

	sections, err := Parse(html)
	require.NoError(t, err)

	assert.Equal(t, []article.Section{
		{Level: 0, Content: "Plain."},
		{Title: "T", Level: 2, Content: "More."},
	}, sections)
}

// TestParse_EmptyDocument verifies an empty document yields no sections
func TestParse_EmptyDocument(t *testing.T) {
	sections, err := Parse("")
	require.NoError(t, err)
	assert.Empty(t, sections)
}

// TestParseReader_ReadFailure verifies read errors are reported
func TestParseReader_ReadFailure(t *testing.T) {
	readErr := errors.New("connection reset")

	_, err := ParseReader(iotest.ErrReader(readErr))

	require.Error(t, err)
	assert.ErrorIs(t, err, readErr)
}

// TestSections_NeverFails verifies the placeholder is used on failure and
// real sections otherwise
func TestSections_NeverFails(t *testing.T) {
	sections := Sections(`<div class="content"><p>Ok.</p></div>`)
	require.Len(t, sections, 1)
	assert.Equal(t, "Ok.", sections[0].Content)

	assert.False(t, Placeholder.IsEmpty(), "placeholder must carry text")
}

// TestFormat_UnorderedList verifies bullet lines
func TestFormat_UnorderedList(t *testing.T) {
	html := `<div class="content"><ul><li>Red</li><li> Green </li><li></li><li>Blue</li></ul></div>`

	sections, err := Parse(html)
	require.NoError(t, err)
	require.Len(t, sections, 1)

	assert.Equal(t, "• Red\n• Green\n• Blue", sections[0].Content)
}

// TestFormat_OrderedList verifies numbered lines
func TestFormat_OrderedList(t *testing.T) {
	html := `<div class="content"><h2>Steps</h2><ol><li>Mix</li><li>Bake</li></ol></div>`

	sections, err := Parse(html)
	require.NoError(t, err)
	require.Len(t, sections, 1)

	assert.Equal(t, "1. Mix\n2. Bake", sections[0].Content)
}

// TestFormat_DataTable verifies tab separated rows between table markers
func TestFormat_DataTable(t *testing.T) {
	html := `<table class="wikitable">
		<tr><th>Name</th><th>Age</th></tr>
		<tr><td>Jo</td><td>3</td></tr>
	</table>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	got := format(doc.Find("table").First())

	assert.Equal(t, "<table>\nName\tAge\nJo\t3\n</table>", got)
}

// TestFormat_LayoutTable verifies tables without the data marker are
// flattened
func TestFormat_LayoutTable(t *testing.T) {
	html := `<div class="content"><table><tr><td>Left</td><td>Right</td></tr></table></div>`

	sections, err := Parse(html)
	require.NoError(t, err)
	require.Len(t, sections, 1)

	assert.NotContains(t, sections[0].Content, TableStart)
	assert.Contains(t, sections[0].Content, "Left")
	assert.Contains(t, sections[0].Content, "Right")
}

// TestFormat_DataTableInSection verifies tables embed in section content
func TestFormat_DataTableInSection(t *testing.T) {
	html := `<div class="content"><h2>Stats</h2><p>Below.</p>
		<table class="wikitable sortable"><tbody>
			<tr><th>Year</th><th>Count</th></tr>
			<tr><td>2020</td><td>5</td></tr>
		</tbody></table></div>`

	sections, err := Parse(html)
	require.NoError(t, err)
	require.Len(t, sections, 1)

	assert.Equal(t, "Below.\n\n<table>\nYear\tCount\n2020\t5\n</table>", sections[0].Content)
}

// TestHeadingLevel verifies tag name classification
func TestHeadingLevel(t *testing.T) {
	tests := map[string]int{
		"h1": 1, "h2": 2, "h6": 6,
		"h7": 0, "h0": 0, "hr": 0, "p": 0, "header": 0, "": 0,
	}

	for name, want := range tests {
		assert.Equal(t, want, headingLevel(name), name)
	}
}
