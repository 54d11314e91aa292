package category

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// PackFile is the top-level structure of a category pack YAML file.
//
// Example:
//
//	categories:
//	  - id: kitchen
//	    name: "Kitchen Nightmares"
//	    icon: "🍳"
//	    words: [ ... at least 24 entries ... ]
type PackFile struct {
	Categories []Category `yaml:"categories"`
}

// LoadPackFile reads and parses a category pack YAML file from disk.
func LoadPackFile(path string) (*PackFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("category: open pack file %q: %w", path, err)
	}
	defer f.Close()

	pf, err := LoadPackFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("category: parse pack file %q: %w", path, err)
	}
	return pf, nil
}

// LoadPackFromReader parses pack YAML from an [io.Reader]. The reader is
// consumed entirely; the caller is responsible for closing it.
func LoadPackFromReader(r io.Reader) (*PackFile, error) {
	var pf PackFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // reject unknown keys to catch typos
	if err := dec.Decode(&pf); err != nil {
		return nil, fmt.Errorf("category: decode pack yaml: %w", err)
	}
	return &pf, nil
}

// ImportPacks registers every category from a parsed [PackFile] into reg.
// Returns the number of packs successfully imported; the first validation
// failure aborts the import and returns the count so far.
func ImportPacks(reg *Registry, pf *PackFile) (int, error) {
	if pf == nil {
		return 0, fmt.Errorf("category: pack file must not be nil")
	}
	for i, c := range pf.Categories {
		if err := reg.Add(c); err != nil {
			return i, fmt.Errorf("category: import pack %q: %w", c.ID, err)
		}
	}
	return len(pf.Categories), nil
}
