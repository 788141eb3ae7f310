package refdata

import (
	"sort"
	"strings"
)

// Store is the in-memory reference data. It is safe for concurrent readers;
// nothing writes to it after construction.
type Store struct {
	materials map[string]MaterialProfile
	feeds     FeedTable
	threads   map[string]map[string]ThreadSize
	series    []string
	sizes     map[string][]string
}

// New builds a Store from tables assembled in code. Inputs are copied, bands
// sorted ascending and missing families classified from the material name.
func New(materials []MaterialProfile, feeds FeedTable, threads map[string]map[string]ThreadSize) *Store {
	s := &Store{
		materials: make(map[string]MaterialProfile, len(materials)),
		feeds:     make(FeedTable, len(feeds)),
		threads:   make(map[string]map[string]ThreadSize, len(threads)),
		sizes:     make(map[string][]string, len(threads)),
	}
	for _, m := range materials {
		if !m.Family.valid() {
			m.Family = ClassifyFamily(m.Name)
		}
		s.materials[m.Name] = m
	}
	for cat, byMaterial := range feeds {
		set := make(map[string][]Band, len(byMaterial))
		for name, bands := range byMaterial {
			sorted := make([]Band, len(bands))
			copy(sorted, bands)
			sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Max < sorted[j].Max })
			set[name] = sorted
		}
		s.feeds[cat] = set
	}
	for series, sizes := range threads {
		set := make(map[string]ThreadSize, len(sizes))
		names := make([]string, 0, len(sizes))
		for name, size := range sizes {
			set[name] = copySize(size)
			names = append(names, name)
		}
		sort.Strings(names)
		s.threads[series] = set
		s.sizes[series] = names
		s.series = append(s.series, series)
	}
	sort.Strings(s.series)
	return s
}

func copySize(in ThreadSize) ThreadSize {
	out := ThreadSize{Pitch: in.Pitch, Classes: make(map[string]ThreadClass, len(in.Classes))}
	for name, class := range in.Classes {
		out.Classes[name] = class
	}
	out.order = in.order
	if len(out.order) != len(out.Classes) {
		out.order = make([]string, 0, len(out.Classes))
		for name := range out.Classes {
			out.order = append(out.order, name)
		}
		sort.Strings(out.order)
	}
	return out
}

// Material returns the profile for name.
func (s *Store) Material(name string) (MaterialProfile, bool) {
	m, ok := s.materials[name]
	return m, ok
}

// Feed returns the band value for diameter: the first band whose bound is at
// least diameter, or the last band when diameter exceeds every bound.
// Hole-making subtypes without bands for the material use the drill bands,
// shell mills use the end-mill bands. Without any data it returns DefaultFeed.
func (s *Store) Feed(category Category, material string, diameter float64) float64 {
	bands := s.bands(category, material)
	if len(bands) == 0 {
		return DefaultFeed
	}
	for _, b := range bands {
		if diameter <= b.Max {
			return b.Value
		}
	}
	return bands[len(bands)-1].Value
}

func (s *Store) bands(category Category, material string) []Band {
	if bands := s.feeds[category][material]; len(bands) > 0 {
		return bands
	}
	switch {
	case category.HoleMaking():
		return s.feeds[CategoryDrill][material]
	case category == CategoryShellMill:
		return s.feeds[CategoryEndmill][material]
	}
	return nil
}

// Thread resolves series, size and class in that order. The first missing
// level is reported as a *NotFoundError.
func (s *Store) Thread(series, size, class string) (ThreadSize, ThreadClass, error) {
	sizes, ok := s.threads[series]
	if !ok {
		return ThreadSize{}, ThreadClass{}, &NotFoundError{Level: "series", Key: series}
	}
	ts, ok := sizes[size]
	if !ok {
		return ThreadSize{}, ThreadClass{}, &NotFoundError{Level: "size", Key: size, Parent: series}
	}
	tc, ok := ts.Classes[class]
	if !ok {
		return ThreadSize{}, ThreadClass{}, &NotFoundError{Level: "class", Key: class, Parent: size}
	}
	return copySize(ts), tc, nil
}

// Materials lists material names alphabetically (case-insensitive).
func (s *Store) Materials() []string {
	out := make([]string, 0, len(s.materials))
	for name := range s.materials {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}

func (s *Store) ThreadSeries() []string {
	out := make([]string, len(s.series))
	copy(out, s.series)
	return out
}

func (s *Store) ThreadSizes(series string) ([]string, error) {
	names, ok := s.sizes[series]
	if !ok {
		return nil, &NotFoundError{Level: "series", Key: series}
	}
	out := make([]string, len(names))
	copy(out, names)
	return out, nil
}

func (s *Store) ThreadClasses(series, size string) ([]string, error) {
	sizes, ok := s.threads[series]
	if !ok {
		return nil, &NotFoundError{Level: "series", Key: series}
	}
	ts, ok := sizes[size]
	if !ok {
		return nil, &NotFoundError{Level: "size", Key: size, Parent: series}
	}
	return ts.ClassNames(), nil
}
