package acquisition

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/pevans/wikifeed/article"
	"github.com/pevans/wikifeed/extract"
	"github.com/pevans/wikifeed/feedmode"
	"github.com/pevans/wikifeed/wiki"
	"go.uber.org/zap"
)

var (
	// ErrNoQualifyingArticles matches every *NoQualifyingArticlesError.
	ErrNoQualifyingArticles = errors.New("no qualifying articles")

	// ErrLocationRequired is returned by location modes before
	// SetLocation has been called.
	ErrLocationRequired = errors.New("location required")
)

// NoQualifyingArticlesError is returned when every buffered title for a
// mode was tried and none produced an article with an image.
type NoQualifyingArticlesError struct {
	Mode  feedmode.Mode
	Tried int
}

func (e *NoQualifyingArticlesError) Error() string {
	return fmt.Sprintf("no qualifying articles for mode %q (%d candidates tried)", e.Mode, e.Tried)
}

func (e *NoQualifyingArticlesError) Is(target error) bool {
	return target == ErrNoQualifyingArticles
}

// Fetcher retrieves page data. *wiki.Client implements it.
type Fetcher interface {
	RandomSummary(ctx context.Context) (*wiki.Summary, error)
	Summary(ctx context.Context, title string) (*wiki.Summary, error)
	PageHTML(ctx context.Context, title string) (string, error)
}

// TitleBuffer queues candidate titles per mode. *discovery.Buffer
// implements it.
type TitleBuffer interface {
	Refill(ctx context.Context, mode feedmode.Mode) ([]string, error)
	Pop(mode feedmode.Mode) (string, bool)
	Reset()
	SetLocation(latitude, longitude float64)
}

// Orchestrator turns a feed mode into a fully assembled article.
type Orchestrator struct {
	fetcher         Fetcher
	buffer          TitleBuffer
	registry        *feedmode.Registry
	logger          *zap.Logger
	includeSections bool

	mu          sync.Mutex
	modeLocks   map[feedmode.Mode]*sync.Mutex
	hasLocation bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSections makes every accepted article carry sections extracted from
// its full page.
func WithSections(enabled bool) Option {
	return func(o *Orchestrator) {
		o.includeSections = enabled
	}
}

// New creates an orchestrator.
func New(fetcher Fetcher, buffer TitleBuffer, registry *feedmode.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:   fetcher,
		buffer:    buffer,
		registry:  registry,
		logger:    zap.NewNop(),
		modeLocks: make(map[feedmode.Mode]*sync.Mutex),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// FetchArticle returns the next article for mode. Calls for the same mode
// run one at a time.
func (o *Orchestrator) FetchArticle(ctx context.Context, mode feedmode.Mode) (*article.Article, error) {
	return o.fetch(ctx, mode, o.includeSections)
}

// FetchArticleWithSections is FetchArticle with section extraction turned on
// or off for this call only.
func (o *Orchestrator) FetchArticleWithSections(
	ctx context.Context,
	mode feedmode.Mode,
	includeSections bool,
) (*article.Article, error) {
	return o.fetch(ctx, mode, includeSections)
}

func (o *Orchestrator) fetch(ctx context.Context, mode feedmode.Mode, includeSections bool) (*article.Article, error) {
	def, err := o.registry.Lookup(mode)
	if err != nil {
		return nil, err
	}

	lock := o.modeLock(mode)
	lock.Lock()
	defer lock.Unlock()

	if def.Source == feedmode.SourceNone {
		return o.fetchRandom(ctx, includeSections)
	}

	if def.Source == feedmode.SourceLocation && !o.locationKnown() {
		return nil, fmt.Errorf("mode %q: %w", mode, ErrLocationRequired)
	}

	return o.fetchBuffered(ctx, mode, includeSections)
}

func (o *Orchestrator) fetchRandom(ctx context.Context, includeSections bool) (*article.Article, error) {
	summary, err := o.fetcher.RandomSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch random article: %w", err)
	}
	return o.assemble(ctx, summary, includeSections), nil
}

// fetchBuffered drains the mode's queue until a candidate with an image is
// found. The queue is refilled at most once per call.
func (o *Orchestrator) fetchBuffered(ctx context.Context, mode feedmode.Mode, includeSections bool) (*article.Article, error) {
	next := func() (string, bool) { return o.buffer.Pop(mode) }

	title, ok := next()
	if !ok {
		batch, err := o.buffer.Refill(ctx, mode)
		if err != nil {
			return nil, err
		}
		title, ok = next()
		if !ok && len(batch) > 0 {
			// A reset raced the refill and the batch was not queued.
			next = func() (string, bool) {
				if len(batch) == 0 {
					return "", false
				}
				t := batch[0]
				batch = batch[1:]
				return t, true
			}
			title, ok = next()
		}
	}

	tried := 0
	for ; ok; title, ok = next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tried++

		summary, err := o.fetcher.Summary(ctx, title)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			o.logger.Warn("Skipping candidate",
				zap.String("mode", string(mode)),
				zap.String("title", title),
				zap.Error(err),
			)
			continue
		}

		if summary.Image() == nil {
			o.logger.Debug("Skipping candidate without image",
				zap.String("mode", string(mode)),
				zap.String("title", title),
			)
			continue
		}

		return o.assemble(ctx, summary, includeSections), nil
	}

	return nil, &NoQualifyingArticlesError{Mode: mode, Tried: tried}
}

// assemble maps a summary onto an article. Sections come from the full page
// when requested; otherwise, or when extraction yields nothing, the extract
// becomes the single lead section.
func (o *Orchestrator) assemble(ctx context.Context, summary *wiki.Summary, includeSections bool) *article.Article {
	var thumbnail *article.Thumbnail
	if img := summary.Image(); img != nil {
		thumbnail = &article.Thumbnail{
			Source: img.Source,
			Width:  img.Width,
			Height: img.Height,
		}
	}

	var sections []article.Section
	if includeSections {
		sections = o.sections(ctx, summary.Title)
	}
	sections = article.WithFallback(sections, summary.Extract)

	return article.New(
		strconv.FormatInt(summary.PageID, 10),
		summary.Title,
		summary.Extract,
		summary.PageURL(),
		thumbnail,
		sections,
		article.ParseLastModified(summary.Timestamp),
	)
}

// sections fetches and extracts the full page. Failures are logged and
// yield nil.
func (o *Orchestrator) sections(ctx context.Context, title string) []article.Section {
	html, err := o.fetcher.PageHTML(ctx, title)
	if err != nil {
		o.logger.Warn("Failed to fetch page content",
			zap.String("title", title),
			zap.Error(err),
		)
		return nil
	}

	sections, err := extract.Parse(html)
	if err != nil {
		o.logger.Warn("Failed to extract sections",
			zap.String("title", title),
			zap.Error(err),
		)
		return nil
	}

	return sections
}

// ResetModeState discards every mode's buffered titles.
func (o *Orchestrator) ResetModeState() {
	o.buffer.Reset()
}

// SetLocation sets the coordinate used by location modes.
func (o *Orchestrator) SetLocation(latitude, longitude float64) {
	o.mu.Lock()
	o.hasLocation = true
	o.mu.Unlock()

	o.buffer.SetLocation(latitude, longitude)
}

// Modes lists the known feed modes.
func (o *Orchestrator) Modes() []feedmode.Definition {
	return o.registry.List()
}

func (o *Orchestrator) locationKnown() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hasLocation
}

func (o *Orchestrator) modeLock(mode feedmode.Mode) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()

	lock, ok := o.modeLocks[mode]
	if !ok {
		lock = &sync.Mutex{}
		o.modeLocks[mode] = lock
	}
	return lock
}
