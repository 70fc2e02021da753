package discovery

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/pevans/wikifeed/feedmode"
	"github.com/pevans/wikifeed/wiki"
	"go.uber.org/zap"
)

// ErrSearchExhausted matches every *SearchExhaustedError.
var ErrSearchExhausted = errors.New("search exhausted")

// SearchExhaustedError is returned when every refill attempt for a mode
// came back empty.
type SearchExhaustedError struct {
	Mode     feedmode.Mode
	Attempts int
}

func (e *SearchExhaustedError) Error() string {
	return fmt.Sprintf("no titles found for mode %q after %d attempts", e.Mode, e.Attempts)
}

func (e *SearchExhaustedError) Is(target error) bool {
	return target == ErrSearchExhausted
}

// Source supplies candidate titles. *wiki.Client implements it.
type Source interface {
	Search(ctx context.Context, term string, limit, offset int) ([]wiki.SearchHit, error)
	FeaturedTitles(ctx context.Context) ([]string, error)
}

// Config holds the refill policy.
type Config struct {
	// Results requested per search call
	BatchSize int
	// Search calls per refill before giving up
	MaxAttempts int
	// Delay after a failed search call
	Backoff time.Duration
	// Radius used by location modes, in CirrusSearch units (e.g. "10km")
	NearbyRadius string
}

// DefaultConfig returns the default refill policy.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:    20,
		MaxAttempts:  4,
		Backoff:      1 * time.Second,
		NearbyRadius: "10km",
	}
}

// Location is a coordinate used by location-based modes.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Buffer keeps one queue of untried candidate titles per feed mode and
// refills it on demand. It is safe for concurrent use, but callers must not
// refill the same mode concurrently.
type Buffer struct {
	source   Source
	registry *feedmode.Registry
	config   *Config
	logger   *zap.Logger

	mu       sync.Mutex
	queues   map[feedmode.Mode][]string
	location *Location
	// generation is bumped by Reset; a refill that started under an older
	// generation does not store its titles.
	generation uint64

	randMu  sync.Mutex
	intN    func(n int) int
	shuffle func(n int, swap func(i, j int))
	sleep   func(ctx context.Context, d time.Duration) error
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Buffer) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithRand makes offset sampling and shuffling deterministic. The buffer
// serializes its own use of r, so r must not be used elsewhere.
func WithRand(r *rand.Rand) Option {
	return func(b *Buffer) {
		b.intN = r.IntN
		b.shuffle = r.Shuffle
	}
}

// NewBuffer creates an empty buffer.
func NewBuffer(source Source, registry *feedmode.Registry, config *Config, opts ...Option) *Buffer {
	if config == nil {
		config = DefaultConfig()
	}

	b := &Buffer{
		source:   source,
		registry: registry,
		config:   config,
		logger:   zap.NewNop(),
		queues:   make(map[feedmode.Mode][]string),
		intN:     rand.IntN,
		shuffle:  rand.Shuffle,
		sleep:    sleepContext,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Refill replaces the mode's queue with a fresh shuffled batch of titles and
// returns it. Modes without a title source, and location modes before any
// location is known, are a no-op returning nil. If Reset runs while the
// refill is in flight, the titles are returned but not queued.
func (b *Buffer) Refill(ctx context.Context, mode feedmode.Mode) ([]string, error) {
	def, err := b.registry.Lookup(mode)
	if err != nil {
		return nil, err
	}

	switch def.Source {
	case feedmode.SourceFeatured:
		return b.refillFeatured(ctx, mode)
	case feedmode.SourceSearch, feedmode.SourceLocation:
		term := b.searchTerm(def)
		if term == "" {
			return nil, nil
		}
		return b.refillSearch(ctx, mode, term, def.MaxOffset)
	default:
		return nil, nil
	}
}

// refillSearch samples random pages of search results, narrowing the
// window whenever a page is empty.
func (b *Buffer) refillSearch(ctx context.Context, mode feedmode.Mode, term string, maxOffset int) ([]string, error) {
	window := newSearchWindow(maxOffset, b.config.BatchSize)

	return b.attempt(ctx, mode, func(attempt int) ([]string, error) {
		offset := window.sample(b.randIntN)

		b.logger.Debug("Searching for titles",
			zap.String("mode", string(mode)),
			zap.Int("attempt", attempt),
			zap.Int("offset", offset),
			zap.Int("window", window.size),
		)

		hits, err := b.source.Search(ctx, term, b.config.BatchSize, offset)
		if err != nil {
			return nil, err
		}

		titles := uniqueTitles(hits)
		if len(titles) == 0 {
			window.narrow()
		}
		return titles, nil
	})
}

// refillFeatured reads the featured-article feed.
func (b *Buffer) refillFeatured(ctx context.Context, mode feedmode.Mode) ([]string, error) {
	return b.attempt(ctx, mode, func(_ int) ([]string, error) {
		return b.source.FeaturedTitles(ctx)
	})
}

// attempt runs fetch up to MaxAttempts times. A non-empty result is
// shuffled and stored as the mode's queue. Errors are retried after the
// backoff unless they are permanent or the context is done.
func (b *Buffer) attempt(
	ctx context.Context,
	mode feedmode.Mode,
	fetch func(attempt int) ([]string, error),
) ([]string, error) {
	attempts := max(1, b.config.MaxAttempts)
	var lastErr error

	b.mu.Lock()
	generation := b.generation
	b.mu.Unlock()

	for attempt := 1; attempt <= attempts; attempt++ {
		titles, err := fetch(attempt)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if wiki.IsPermanent(err) {
				return nil, fmt.Errorf("failed to refill mode %q: %w", mode, err)
			}

			lastErr = err
			b.logger.Warn("Title refill attempt failed",
				zap.String("mode", string(mode)),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)

			if attempt < attempts {
				if err := b.sleep(ctx, b.config.Backoff); err != nil {
					return nil, err
				}
			}
			continue
		}

		lastErr = nil
		if len(titles) == 0 {
			continue
		}

		b.randShuffle(len(titles), func(i, j int) {
			titles[i], titles[j] = titles[j], titles[i]
		})

		b.mu.Lock()
		stale := b.generation != generation
		if !stale {
			b.queues[mode] = titles
		}
		b.mu.Unlock()

		if stale {
			b.logger.Debug("Discarding refill interrupted by reset",
				zap.String("mode", string(mode)),
			)
		}

		b.logger.Debug("Refilled title buffer",
			zap.String("mode", string(mode)),
			zap.Int("titles", len(titles)),
		)

		out := make([]string, len(titles))
		copy(out, titles)
		return out, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("failed to refill mode %q after %d attempts: %w", mode, attempts, lastErr)
	}
	return nil, &SearchExhaustedError{Mode: mode, Attempts: attempts}
}

// searchTerm resolves a definition's search expression. Location modes
// return "" until a location has been set.
func (b *Buffer) searchTerm(def feedmode.Definition) string {
	if def.Source != feedmode.SourceLocation {
		return strings.TrimSpace(def.SearchTemplate)
	}

	b.mu.Lock()
	loc := b.location
	b.mu.Unlock()

	if loc == nil {
		return ""
	}
	return fmt.Sprintf(def.SearchTemplate, b.config.NearbyRadius, loc.Latitude, loc.Longitude)
}

// Pop removes and returns the oldest title queued for mode.
func (b *Buffer) Pop(mode feedmode.Mode) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	queue := b.queues[mode]
	if len(queue) == 0 {
		return "", false
	}

	title := queue[0]
	b.queues[mode] = queue[1:]
	return title, true
}

// Len returns the number of titles queued for mode.
func (b *Buffer) Len(mode feedmode.Mode) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queues[mode])
}

// Reset discards every queue, including refills still in flight.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queues = make(map[feedmode.Mode][]string)
	b.generation++
}

// SetLocation records the coordinate used by location modes and drops
// their queues, which were built for the previous coordinate.
func (b *Buffer) SetLocation(latitude, longitude float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.location = &Location{Latitude: latitude, Longitude: longitude}

	for mode := range b.queues {
		def, err := b.registry.Lookup(mode)
		if err == nil && def.Source == feedmode.SourceLocation {
			delete(b.queues, mode)
		}
	}
}

// Location returns the last coordinate passed to SetLocation.
func (b *Buffer) Location() (Location, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.location == nil {
		return Location{}, false
	}
	return *b.location, true
}

// uniqueTitles keeps the first occurrence of each non-empty title.
func uniqueTitles(hits []wiki.SearchHit) []string {
	seen := make(map[string]bool, len(hits))
	titles := make([]string, 0, len(hits))
	for _, hit := range hits {
		title := strings.TrimSpace(hit.Title)
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true
		titles = append(titles, title)
	}
	return titles
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (b *Buffer) randIntN(n int) int {
	b.randMu.Lock()
	defer b.randMu.Unlock()
	return b.intN(n)
}

func (b *Buffer) randShuffle(n int, swap func(i, j int)) {
	b.randMu.Lock()
	defer b.randMu.Unlock()
	b.shuffle(n, swap)
}
