package refdata

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// File names inside a reference data directory.
const (
	MaterialFile = "material.json"
	IPTFile      = "ipt.json"
	IPRFile      = "ipr.json"
	ThreadFile   = "thread.json"
)

//go:embed data/*.json
var embedded embed.FS

// Default loads the tables compiled into the binary.
func Default() (*Store, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// LoadDir loads the tables from a directory on disk.
func LoadDir(dir string) (*Store, error) {
	return Load(os.DirFS(dir))
}

// Load reads material, feed and thread tables from fsys. The ipt and ipr files
// are merged into one feed table; the thread file keeps its series and size
// order for catalog listings.
func Load(fsys fs.FS) (*Store, error) {
	materials, err := loadMaterials(fsys)
	if err != nil {
		return nil, err
	}
	feeds := FeedTable{}
	for _, name := range []string{IPTFile, IPRFile} {
		if err := loadFeeds(fsys, name, feeds); err != nil {
			return nil, err
		}
	}
	threads, series, sizes, err := loadThreads(fsys)
	if err != nil {
		return nil, err
	}

	s := New(materials, feeds, threads)
	s.series = series
	s.sizes = sizes
	return s, nil
}

func readJSON(fsys fs.FS, name string, v any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func loadMaterials(fsys fs.FS) ([]MaterialProfile, error) {
	var raw map[string]MaterialProfile
	if err := readJSON(fsys, MaterialFile, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: no materials", MaterialFile)
	}
	out := make([]MaterialProfile, 0, len(raw))
	for name, m := range raw {
		m.Name = name
		if m.Family != "" && !m.Family.valid() {
			return nil, fmt.Errorf("%s: material %q: unknown family %q", MaterialFile, name, m.Family)
		}
		out = append(out, m)
	}
	return out, nil
}

// loadFeeds merges one feed file into feeds. A missing ipr file is allowed:
// hole-making lookups then fall back to the default feed.
func loadFeeds(fsys fs.FS, name string, feeds FeedTable) error {
	var raw map[Category]map[string][]Band
	if err := readJSON(fsys, name, &raw); err != nil {
		if name == IPRFile && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	for cat, byMaterial := range raw {
		if _, dup := feeds[cat]; dup {
			return fmt.Errorf("%s: category %q already defined", name, cat)
		}
		for material, bands := range byMaterial {
			if len(bands) == 0 {
				return fmt.Errorf("%s: %s/%s: empty band list", name, cat, material)
			}
		}
		feeds[cat] = byMaterial
	}
	return nil
}

func loadThreads(fsys fs.FS) (map[string]map[string]ThreadSize, []string, map[string][]string, error) {
	var raw map[string]json.RawMessage
	data, err := fs.ReadFile(fsys, ThreadFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read %s: %w", ThreadFile, err)
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, nil, fmt.Errorf("decode %s: %w", ThreadFile, err)
	}
	series, err := objectKeys(data)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("decode %s: %w", ThreadFile, err)
	}

	threads := make(map[string]map[string]ThreadSize, len(raw))
	order := make(map[string][]string, len(raw))
	for _, name := range series {
		var sizes map[string]ThreadSize
		if err := json.Unmarshal(raw[name], &sizes); err != nil {
			return nil, nil, nil, fmt.Errorf("decode %s: series %q: %w", ThreadFile, name, err)
		}
		keys, err := objectKeys(raw[name])
		if err != nil {
			return nil, nil, nil, fmt.Errorf("decode %s: series %q: %w", ThreadFile, name, err)
		}
		threads[name] = sizes
		order[name] = keys
	}
	return threads, series, order, nil
}

// UnmarshalJSON reads a size record: a "pitch" number next to one object per
// thread class.
func (s *ThreadSize) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	keys, err := objectKeys(data)
	if err != nil {
		return err
	}
	s.Classes = make(map[string]ThreadClass, len(raw))
	s.order = s.order[:0]
	for _, key := range keys {
		if key == "pitch" {
			if err := json.Unmarshal(raw[key], &s.Pitch); err != nil {
				return fmt.Errorf("pitch: %w", err)
			}
			continue
		}
		var class ThreadClass
		if err := json.Unmarshal(raw[key], &class); err != nil {
			return fmt.Errorf("class %q: %w", key, err)
		}
		s.Classes[key] = class
		s.order = append(s.order, key)
	}
	return nil
}

// objectKeys returns the keys of a JSON object in document order.
func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected key, got %v", tok)
		}
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}
