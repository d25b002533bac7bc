// Package resolver ranks an episode's candidate sources, excluding those that already failed.
package resolver

import (
	"sort"

	"github.com/anisan-cli/anistream/source"
	"github.com/samber/lo"
)

// FailedSet records source URLs that failed irrecoverably for the current episode.
// Entries are never removed within an episode; Reset is called on episode change.
type FailedSet struct {
	urls map[string]struct{}
}

// NewFailedSet returns an empty set.
func NewFailedSet() *FailedSet {
	return &FailedSet{urls: make(map[string]struct{})}
}

// Add marks url as failed.
func (f *FailedSet) Add(url string) {
	if f.urls == nil {
		f.urls = make(map[string]struct{})
	}
	f.urls[url] = struct{}{}
}

// Has reports whether url has failed. A nil set contains nothing.
func (f *FailedSet) Has(url string) bool {
	if f == nil {
		return false
	}
	_, ok := f.urls[url]
	return ok
}

// Len returns the number of failed URLs.
func (f *FailedSet) Len() int {
	if f == nil {
		return 0
	}
	return len(f.urls)
}

// URLs returns the failed URLs, sorted.
func (f *FailedSet) URLs() []string {
	if f == nil {
		return nil
	}
	urls := lo.Keys(f.urls)
	sort.Strings(urls)
	return urls
}

// Reset forgets every failure.
func (f *FailedSet) Reset() {
	f.urls = make(map[string]struct{})
}

// Rank filters out failed sources and stable-sorts adaptive manifests ahead of
// single-rendition sources. The input slice is left untouched.
func Rank(sources []source.Source, failed *FailedSet) []source.Source {
	ranked := lo.Filter(sources, func(s source.Source, _ int) bool {
		return !failed.Has(s.URL)
	})

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].IsAdaptiveManifest && !ranked[j].IsAdaptiveManifest
	})

	return ranked
}
