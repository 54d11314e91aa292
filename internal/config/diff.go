package config

import "slices"

// DiffResult describes what changed between two configs. Only fields that
// can be safely hot-reloaded are tracked; everything else requires a restart.
type DiffResult struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// CategoryPacksChanged is true when the set of pack files differs;
	// the category registry should be rebuilt.
	CategoryPacksChanged bool

	DefaultCategoryChanged bool
	NewDefaultCategory     string
}

// Any reports whether the diff carries at least one reloadable change.
func (d DiffResult) Any() bool {
	return d.LogLevelChanged || d.CategoryPacksChanged || d.DefaultCategoryChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) DiffResult {
	d := DiffResult{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if !slices.Equal(old.Game.CategoryPacks, new.Game.CategoryPacks) {
		d.CategoryPacksChanged = true
	}

	if old.Game.DefaultCategory != new.Game.DefaultCategory {
		d.DefaultCategoryChanged = true
		d.NewDefaultCategory = new.Game.DefaultCategory
	}

	return d
}
