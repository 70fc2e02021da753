package wiki

// Image is a thumbnail or original image attached to a page summary.
type Image struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type pageURLs struct {
	Page string `json:"page"`
}

// Summary is the short-form data of a single page.
type Summary struct {
	PageID        int64  `json:"pageid"`
	Title         string `json:"title"`
	Extract       string `json:"extract"`
	Thumbnail     *Image `json:"thumbnail,omitempty"`
	OriginalImage *Image `json:"originalimage,omitempty"`
	ContentURLs   struct {
		Mobile  pageURLs `json:"mobile"`
		Desktop pageURLs `json:"desktop"`
	} `json:"content_urls"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Image returns the full-resolution image when present, else the
// thumbnail, else nil.
func (s *Summary) Image() *Image {
	if s.OriginalImage != nil && s.OriginalImage.Source != "" {
		return s.OriginalImage
	}
	if s.Thumbnail != nil && s.Thumbnail.Source != "" {
		return s.Thumbnail
	}
	return nil
}

// PageURL returns the canonical mobile page URL, falling back to desktop.
func (s *Summary) PageURL() string {
	if s.ContentURLs.Mobile.Page != "" {
		return s.ContentURLs.Mobile.Page
	}
	return s.ContentURLs.Desktop.Page
}

// SearchHit is one full-text search result.
type SearchHit struct {
	PageID int64  `json:"pageid"`
	Title  string `json:"title"`
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type searchResponse struct {
	Error *apiError `json:"error,omitempty"`
	Query *struct {
		Search []SearchHit `json:"search"`
	} `json:"query,omitempty"`
}

type parseResponse struct {
	Error *apiError `json:"error,omitempty"`
	Parse *struct {
		Title string `json:"title"`
		Text  struct {
			HTML string `json:"*"`
		} `json:"text"`
	} `json:"parse,omitempty"`
}
