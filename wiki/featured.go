package wiki

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// FeaturedTitles returns the titles of the articles promoted in the
// featured-article feed. The feed lists the oldest day first, so entries are
// read back to front. gofeed puts each entry's blurb in Description or
// Content.
func (c *Client) FeaturedTitles(ctx context.Context) ([]string, error) {
	query := url.Values{}
	query.Set("action", "featuredfeed")
	query.Set("feed", "featured")
	query.Set("feedformat", "atom")

	body, err := c.get(ctx, "/w/api.php", query)
	if err != nil {
		return nil, err
	}

	fp := gofeed.NewParser()
	feed, err := fp.ParseString(string(body))
	if err != nil {
		return nil, &DecodeError{Message: "featured feed", Err: err}
	}

	seen := make(map[string]bool)
	titles := make([]string, 0, len(feed.Items))
	for i := len(feed.Items) - 1; i >= 0; i-- {
		title := featuredTitle(feed.Items[i])
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true
		titles = append(titles, title)
	}

	return titles, nil
}

// featuredTitle pulls the promoted article out of a feed entry. The blurb
// opens with the article's name as a bold link.
func featuredTitle(item *gofeed.Item) string {
	blurb := item.Description
	if blurb == "" {
		blurb = item.Content
	}
	if blurb == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(blurb))
	if err != nil {
		return ""
	}

	link := doc.Find(`b a[href*="/wiki/"]`).First()
	if link.Length() == 0 {
		link = doc.Find(`a[href*="/wiki/"]`).First()
	}
	if link.Length() == 0 {
		return ""
	}

	if title, ok := link.Attr("title"); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	return strings.Join(strings.Fields(link.Text()), " ")
}
