package article

import (
	"strings"
	"time"
)

// WordsPerMinute is the average reading speed used for reading time
// estimates.
const WordsPerMinute = 200

// Thumbnail references an image associated with an article.
type Thumbnail struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Section is one titled block of an article's body. Level 0 is the untitled
// lead; levels 1-6 follow the heading depth of the source document.
type Section struct {
	Title   string `json:"title"`
	Level   int    `json:"level"`
	Content string `json:"content"`
}

// IsEmpty reports whether both the title and the content are blank.
func (s Section) IsEmpty() bool {
	return strings.TrimSpace(s.Title) == "" && strings.TrimSpace(s.Content) == ""
}

// Article is a single encyclopedia article as returned to callers. Two
// articles with the same ID are the same article.
type Article struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Extract      string     `json:"extract"`
	Sections     []Section  `json:"sections,omitempty"`
	Thumbnail    *Thumbnail `json:"thumbnail,omitempty"`
	URL          string     `json:"url"`
	LastModified *time.Time `json:"last_modified,omitempty"`
}

// New builds an article, copying the sections and thumbnail so the result
// does not share memory with the caller.
func New(
	id, title, extract, url string,
	thumbnail *Thumbnail,
	sections []Section,
	lastModified *time.Time,
) *Article {
	a := &Article{
		ID:      id,
		Title:   title,
		Extract: extract,
		URL:     url,
	}

	if thumbnail != nil {
		t := *thumbnail
		a.Thumbnail = &t
	}
	if len(sections) > 0 {
		a.Sections = make([]Section, len(sections))
		copy(a.Sections, sections)
	}
	if lastModified != nil {
		t := *lastModified
		a.LastModified = &t
	}

	return a
}

// Equal compares articles by identity only.
func (a Article) Equal(other Article) bool {
	return a.ID == other.ID
}

// WordCount returns the number of words across the extract and every
// section's content.
func (a Article) WordCount() int {
	count := len(strings.Fields(a.Extract))
	for _, s := range a.Sections {
		count += len(strings.Fields(s.Content))
	}
	return count
}

// ReadingTime returns the estimated reading time in minutes.
func (a Article) ReadingTime() int {
	return EstimatedReadingTime(a.WordCount())
}

// EstimatedReadingTime converts a word count into whole minutes, never less
// than one.
func EstimatedReadingTime(words int) int {
	return max(1, words/WordsPerMinute)
}

// WithFallback returns sections unchanged when there is at least one,
// otherwise a single untitled lead section holding the extract.
func WithFallback(sections []Section, extract string) []Section {
	if len(sections) > 0 {
		return sections
	}
	return []Section{{Title: "", Level: 0, Content: extract}}
}

// ParseLastModified parses an RFC 3339 timestamp. Missing or malformed input
// yields nil.
func ParseLastModified(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	// Try RFC3339Nano first, fall back to RFC3339
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return nil
		}
	}

	t = t.UTC()
	return &t
}
