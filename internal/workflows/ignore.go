package workflows

import (
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultIgnore lists file name patterns the folder loops never touch.
var DefaultIgnore = []string{
	".DS_Store",
	".ipynb_checkpoints",
	"._*",
	"Thumbs.db",
	"desktop.ini",
	"~$*",
	"*.part",
}

// ignored reports whether the base name of path matches any pattern.
// Invalid patterns never match.
func ignored(path string, patterns []string) bool {
	name := filepath.Base(path)
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

func ignorePatterns(custom []string) []string {
	if custom == nil {
		return DefaultIgnore
	}
	return custom
}
