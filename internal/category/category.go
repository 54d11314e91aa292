// Package category supplies the word pools that bingo cards draw from. A
// registry holds the six built-in packs and any extra packs loaded from YAML
// files; the game core consumes it as a read-only lookup.
package category

import (
	"errors"
	"fmt"
	"strings"
)

// MinWords is the smallest pool that can fill a card: 25 cells minus the
// free space.
const MinWords = 24

// ErrUnknown is returned when a category ID has no registered pack.
var ErrUnknown = errors.New("category: unknown category")

// Category is one buzzword pack: identity, display metadata, and an ordered
// pool of distinct words.
type Category struct {
	// ID is the stable lookup key, e.g. "agile".
	ID string `yaml:"id" json:"id"`

	// Name is the display name, e.g. "Agile & Scrum".
	Name string `yaml:"name" json:"name"`

	// Description is a one-line pitch shown on the category picker.
	Description string `yaml:"description" json:"description"`

	// Icon is a presentation hint (an emoji in the built-in packs). The
	// core never interprets it.
	Icon string `yaml:"icon" json:"icon"`

	// Words is the pool cards sample from. Must hold at least MinWords
	// pairwise-distinct entries.
	Words []string `yaml:"words" json:"words"`
}

// Validate checks the structural invariants of a single category. All
// failures are joined so a bad pack file reports every problem at once.
func (c Category) Validate() error {
	var errs []error

	if c.ID == "" {
		errs = append(errs, errors.New("category: id is required"))
	}
	if c.Name == "" {
		errs = append(errs, fmt.Errorf("category %q: name is required", c.ID))
	}
	if len(c.Words) < MinWords {
		errs = append(errs, fmt.Errorf("category %q: pool has %d words, need at least %d", c.ID, len(c.Words), MinWords))
	}

	seen := make(map[string]int, len(c.Words))
	for i, w := range c.Words {
		if strings.TrimSpace(w) == "" {
			errs = append(errs, fmt.Errorf("category %q: words[%d] is blank", c.ID, i))
			continue
		}
		key := strings.ToLower(strings.TrimSpace(w))
		if prev, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("category %q: words[%d] %q duplicates words[%d]", c.ID, i, w, prev))
		}
		seen[key] = i
	}

	return errors.Join(errs...)
}
