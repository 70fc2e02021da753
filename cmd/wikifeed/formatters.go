package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pevans/wikifeed/article"
	"github.com/pevans/wikifeed/feedmode"
	"github.com/pevans/wikifeed/history"
)

const textWidth = 78

// printArticleTable prints an article in human-readable form
func printArticleTable(w io.Writer, a *article.Article, mode feedmode.Mode) {
	fmt.Fprintln(w, a.Title)
	fmt.Fprintln(w, strings.Repeat("=", min(len(a.Title), textWidth)))
	fmt.Fprintf(w, "Mode: %s | Reading time: %d min | ID: %s\n", mode, a.ReadingTime(), a.ID)
	if a.LastModified != nil {
		fmt.Fprintf(w, "Last modified: %s\n", a.LastModified.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(w, "URL: %s\n", a.URL)
	if a.Thumbnail != nil {
		fmt.Fprintf(w, "Image: %s (%dx%d)\n", a.Thumbnail.Source, a.Thumbnail.Width, a.Thumbnail.Height)
	}
	fmt.Fprintln(w)

	if len(a.Sections) == 0 {
		fmt.Fprintln(w, wrapText(a.Extract, textWidth))
		return
	}
	printSections(w, a.Sections)
}

// printSections prints sections with headings indented by level
func printSections(w io.Writer, sections []article.Section) {
	if len(sections) == 0 {
		fmt.Fprintln(w, "No sections found.")
		return
	}

	for i, s := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if s.Title != "" {
			fmt.Fprintf(w, "%s %s\n", strings.Repeat("#", max(s.Level, 1)), s.Title)
		}
		if s.Content != "" {
			fmt.Fprintln(w, wrapText(s.Content, textWidth))
		}
	}
}

// printHistoryTable prints history entries in human-readable table format
func printHistoryTable(w io.Writer, entries []history.Entry, offset int) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries to display.")
		return
	}

	fmt.Fprintf(w, "Showing %d-%d\n\n", offset+1, offset+len(entries))

	for _, e := range entries {
		fmt.Fprintf(w, "%s\n", truncate(e.Title, 70))
		fmt.Fprintf(w, "   %s | Served: %s | %d min\n",
			e.Mode,
			e.ServedAt.Local().Format("2006-01-02 15:04"),
			e.ReadingTime,
		)
		fmt.Fprintf(w, "   URL: %s\n", e.URL)
		fmt.Fprintf(w, "   ID: %s\n", e.EntryID.String())
		fmt.Fprintln(w)
	}
}

// printHistoryCompact prints history entries one per line
func printHistoryCompact(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries to display.")
		return
	}

	for _, e := range entries {
		// Truncate ID to first 8 characters
		shortID := e.EntryID.String()[:8]
		fmt.Fprintf(w, "%s %s (%s)\n", shortID, e.Title, e.Mode)
	}
}

// printJSON prints v as indented JSON
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// wrapText wraps text to a maximum line width
func wrapText(text string, width int) string {
	var paragraphs []string
	for _, p := range strings.Split(text, "\n") {
		paragraphs = append(paragraphs, wrapLine(p, width))
	}
	return strings.Join(paragraphs, "\n")
}

func wrapLine(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	var currentLine strings.Builder

	for _, word := range words {
		if currentLine.Len() == 0 {
			currentLine.WriteString(word)
		} else if currentLine.Len()+1+len(word) <= width {
			currentLine.WriteString(" ")
			currentLine.WriteString(word)
		} else {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
			currentLine.WriteString(word)
		}
	}

	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	return strings.Join(lines, "\n")
}

// parseDuration extends time.ParseDuration to support 'd' (days) and 'w'
// (weeks)
func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}

	units := map[string]time.Duration{
		"d": 24 * time.Hour,
		"w": 7 * 24 * time.Hour,
	}
	for suffix, unit := range units {
		if !strings.HasSuffix(s, suffix) {
			continue
		}
		n, err := strconv.Atoi(s[:len(s)-1])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(n) * unit, nil
	}

	return 0, fmt.Errorf("invalid duration: %s", s)
}
