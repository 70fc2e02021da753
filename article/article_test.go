package article

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSectionIsEmpty verifies whitespace-only sections count as empty
func TestSectionIsEmpty(t *testing.T) {
	tests := []struct {
		name    string
		section Section
		empty   bool
	}{
		{"zero value", Section{}, true},
		{"whitespace only", Section{Title: "  ", Content: "  \n "}, true},
		{"title only", Section{Title: "History"}, false},
		{"content only", Section{Content: "Some text."}, false},
		{"padded content", Section{Title: " ", Content: "\t x \n"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.empty, tt.section.IsEmpty())
		})
	}
}

// TestArticleEqual verifies identity-based equality
func TestArticleEqual(t *testing.T) {
	a := Article{ID: "42", Title: "Mona Lisa", Extract: "A painting."}
	b := Article{ID: "42", Title: "La Gioconda", Extract: "Something else."}
	c := Article{ID: "43", Title: "Mona Lisa", Extract: "A painting."}

	assert.True(t, a.Equal(b), "same id should be equal")
	assert.False(t, a.Equal(c), "different id should not be equal")
}

// TestEstimatedReadingTime verifies flooring and the one minute minimum
func TestEstimatedReadingTime(t *testing.T) {
	assert.Equal(t, 1, EstimatedReadingTime(0))
	assert.Equal(t, 1, EstimatedReadingTime(199))
	assert.Equal(t, 2, EstimatedReadingTime(400))
	assert.Equal(t, 2, EstimatedReadingTime(599))
	assert.Equal(t, 3, EstimatedReadingTime(600))
}

// TestArticleReadingTime verifies words are counted across extract and
// sections
func TestArticleReadingTime(t *testing.T) {
	a := Article{
		Extract: strings.Repeat("word ", 150),
		Sections: []Section{
			{Title: "One", Level: 2, Content: strings.Repeat("word ", 150)},
			{Title: "Two", Level: 2, Content: strings.Repeat("word ", 100)},
		},
	}

	assert.Equal(t, 400, a.WordCount())
	assert.Equal(t, 2, a.ReadingTime())
}

// TestWithFallback_NoSections verifies the synthetic lead section
func TestWithFallback_NoSections(t *testing.T) {
	sections := WithFallback(nil, "The extract.")

	require.Len(t, sections, 1)
	assert.Equal(t, "", sections[0].Title)
	assert.Equal(t, 0, sections[0].Level)
	assert.Equal(t, "The extract.", sections[0].Content)
}

// TestWithFallback_KeepsSections verifies existing sections are untouched
func TestWithFallback_KeepsSections(t *testing.T) {
	in := []Section{{Title: "A", Level: 2, Content: "Body"}}

	out := WithFallback(in, "The extract.")

	assert.Equal(t, in, out)
}

// TestParseLastModified verifies accepted formats and the nil fallback
func TestParseLastModified(t *testing.T) {
	got := ParseLastModified("2024-03-05T10:20:30Z")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC), *got)

	got = ParseLastModified("2024-03-05T10:20:30.123456Z")
	require.NotNil(t, got)
	assert.Equal(t, 123456000, got.Nanosecond())

	assert.Nil(t, ParseLastModified(""))
	assert.Nil(t, ParseLastModified("   "))
	assert.Nil(t, ParseLastModified("yesterday"))
}

// TestNew_CopiesInputs verifies the constructed article does not alias the
// caller's slices
func TestNew_CopiesInputs(t *testing.T) {
	sections := []Section{{Title: "A", Level: 2, Content: "Body"}}
	thumb := &Thumbnail{Source: "http://img/a.jpg", Width: 10, Height: 20}

	a := New("1", "Title", "Extract", "http://example.com", thumb, sections, nil)

	sections[0].Title = "changed"
	thumb.Width = 99

	assert.Equal(t, "A", a.Sections[0].Title)
	assert.Equal(t, 10, a.Thumbnail.Width)
	assert.Nil(t, a.LastModified)
}
