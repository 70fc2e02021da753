package feedmode

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Mode names a strategy for sourcing the next article.
type Mode string

// Built-in modes.
const (
	Random   Mode = "random"
	Featured Mode = "featured"
	Art      Mode = "art"
	Science  Mode = "science"
	History  Mode = "history"
	Nearby   Mode = "nearby"
)

// TitleSource says where a mode's candidate titles come from.
type TitleSource string

const (
	// SourceNone is used by Random, which fetches articles directly.
	SourceNone TitleSource = "none"
	// SourceSearch samples titles from full-text search results.
	SourceSearch TitleSource = "search"
	// SourceFeatured reads titles from the featured-article feed.
	SourceFeatured TitleSource = "featured"
	// SourceLocation builds a proximity search from the last known
	// coordinates.
	SourceLocation TitleSource = "location"
)

// ErrUnknownMode is returned for a mode that has no definition.
var ErrUnknownMode = errors.New("unknown feed mode")

// Definition describes how a mode discovers titles.
type Definition struct {
	Mode   Mode        `json:"mode" yaml:"name"`
	Source TitleSource `json:"source" yaml:"source"`
	// SearchTemplate is a search expression. Location modes use it as a
	// fmt template taking radius, latitude and longitude.
	SearchTemplate string `json:"search_template,omitempty" yaml:"search"`
	// MaxOffset bounds random pagination into the search results.
	MaxOffset int `json:"max_offset,omitempty" yaml:"max_offset"`
}

// NearbyTemplate is the CirrusSearch proximity expression used by Nearby.
const NearbyTemplate = "nearcoord:%s,%f,%f"

// Defaults returns the built-in mode definitions.
func Defaults() []Definition {
	return []Definition{
		{Mode: Random, Source: SourceNone},
		{Mode: Featured, Source: SourceFeatured},
		{Mode: Art, Source: SourceSearch, SearchTemplate: `incategory:"Paintings"`, MaxOffset: 2000},
		{Mode: Science, Source: SourceSearch, SearchTemplate: `deepcat:"Physics"`, MaxOffset: 2000},
		{Mode: History, Source: SourceSearch, SearchTemplate: `incategory:"Featured articles" history`, MaxOffset: 1000},
		{Mode: Nearby, Source: SourceLocation, SearchTemplate: NearbyTemplate, MaxOffset: 500},
	}
}

// Registry holds the set of known modes. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	modes map[Mode]Definition
}

// NewRegistry creates a registry holding the built-in modes followed by
// extra definitions, which replace built-ins of the same name.
func NewRegistry(extra ...Definition) (*Registry, error) {
	r := &Registry{modes: make(map[Mode]Definition)}

	for _, def := range Defaults() {
		r.modes[def.Mode] = def
	}

	for _, def := range extra {
		if err := r.Register(def); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Register adds or replaces a mode definition.
func (r *Registry) Register(def Definition) error {
	def.Mode = Mode(strings.ToLower(strings.TrimSpace(string(def.Mode))))
	if def.Source == "" {
		def.Source = SourceSearch
	}

	if err := def.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.modes[def.Mode] = def

	return nil
}

// Lookup returns the definition of a mode.
func (r *Registry) Lookup(mode Mode) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.modes[mode]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return def, nil
}

// List returns all definitions sorted by mode name, with Random first.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.modes))
	for _, def := range r.modes {
		defs = append(defs, def)
	}

	sort.Slice(defs, func(i, j int) bool {
		if defs[i].Mode == Random || defs[j].Mode == Random {
			return defs[i].Mode == Random
		}
		return defs[i].Mode < defs[j].Mode
	})

	return defs
}

// Validate checks that a definition is usable.
func (d Definition) Validate() error {
	if d.Mode == "" {
		return errors.New("mode name is required")
	}

	switch d.Source {
	case SourceNone, SourceFeatured:
		return nil
	case SourceSearch, SourceLocation:
		if strings.TrimSpace(d.SearchTemplate) == "" {
			return fmt.Errorf("mode %q: search is required", d.Mode)
		}
		if d.MaxOffset <= 0 {
			return fmt.Errorf("mode %q: max_offset must be positive", d.Mode)
		}
		return nil
	default:
		return fmt.Errorf("mode %q: unsupported source %q", d.Mode, d.Source)
	}
}
