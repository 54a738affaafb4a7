// Package notes reads the user's note collection from disk and exposes
// the metadata the assistant works with: titles, bodies, and tags.
package notes

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/quillnote/quill/internal/log"
)

// ErrNoteNotFound indicates the requested note is not in the store.
var ErrNoteNotFound = errors.New("note not found")

// Note is one markdown note.
type Note struct {
	Path    string // path relative to the notes directory
	Title   string
	Content string // full content including frontmatter
	Body    string // content with frontmatter stripped
	Tags    []string
}

// Store reads notes from a directory tree of markdown files.
type Store struct {
	dir    string
	logger log.Logger
}

func NewStore(dir string, logger log.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// List returns all markdown notes under the store directory, sorted by
// path. Unreadable files are skipped with a warning rather than failing
// the whole listing.
func (s *Store) List() ([]Note, error) {
	var out []Note
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Hidden directories hold app state, not notes.
			if strings.HasPrefix(d.Name(), ".") && path != s.dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		note, readErr := s.read(path)
		if readErr != nil {
			s.logger.Warn("skipping unreadable note", "path", path, "error", readErr)
			return nil
		}
		out = append(out, note)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing notes in %s: %w", s.dir, err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Get returns the note at the given path relative to the store
// directory.
func (s *Store) Get(relPath string) (Note, error) {
	note, err := s.read(filepath.Join(s.dir, relPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Note{}, fmt.Errorf("%w: %s", ErrNoteNotFound, relPath)
		}
		return Note{}, err
	}
	return note, nil
}

func (s *Store) read(path string) (Note, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Note{}, err
	}
	content := string(raw)
	meta, body := parseFrontmatter(content)

	rel, err := filepath.Rel(s.dir, path)
	if err != nil {
		rel = path
	}

	title := meta.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return Note{
		Path:    rel,
		Title:   title,
		Content: content,
		Body:    body,
		Tags:    ExtractTags(content),
	}, nil
}

// AllTags returns every distinct tag across the collection, sorted.
func (s *Store) AllTags() ([]string, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, note := range all {
		for _, tag := range note.Tags {
			seen[tag] = struct{}{}
		}
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}

// NotesByTags returns notes carrying every one of the given tags.
// Tag matching is case-insensitive.
func (s *Store) NotesByTags(tags []string) ([]Note, error) {
	if len(tags) == 0 {
		return nil, nil
	}

	want := make([]string, 0, len(tags))
	for _, tag := range tags {
		if t := normalizeTag(tag); t != "" {
			want = append(want, t)
		}
	}

	all, err := s.List()
	if err != nil {
		return nil, err
	}

	var out []Note
	for _, note := range all {
		if hasAllTags(note.Tags, want) {
			out = append(out, note)
		}
	}
	return out, nil
}

func hasAllTags(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
