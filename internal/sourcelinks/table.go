package sourcelinks

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// Table maps source document filenames to human-readable reference URLs.
// It is read-only at runtime; a missing entry is not an error, callers fall
// back to a plain filename label.
type Table struct {
	links map[string]string
}

// Load reads a YAML mapping of filename to URL. A missing file yields an
// empty table so a deployment without links still works.
func Load(path string) (*Table, error) {
	if path == "" {
		return &Table{links: map[string]string{}}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Table{links: map[string]string{}}, nil
		}
		return nil, err
	}
	links := map[string]string{}
	if err := yaml.Unmarshal(data, &links); err != nil {
		return nil, err
	}
	return &Table{links: links}, nil
}

// New builds a table from an in-memory mapping, mainly for tests.
func New(links map[string]string) *Table {
	if links == nil {
		links = map[string]string{}
	}
	return &Table{links: links}
}

// Resolve returns the URL for a filename, with ok reporting whether one is known.
func (t *Table) Resolve(filename string) (string, bool) {
	url, ok := t.links[filename]
	return url, ok
}

// Len reports the number of known links.
func (t *Table) Len() int { return len(t.links) }
