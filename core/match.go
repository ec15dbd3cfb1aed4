package core

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// FindMutualFiles recursively resolves the glob pattern under every tree and
// returns the intersection of the tree-relative paths, lexicographically
// sorted. The pattern may contain directory components ("tf*/sgn*.log") and
// matches at any depth. Optional grep substrings keep only paths containing
// at least one of them; a path matching several terms is kept once.
// No matches is an empty result, never an error.
func FindMutualFiles(trees []string, pattern string, grep []string) ([]string, error) {
	if err := validatePattern(pattern); err != nil {
		return nil, err
	}
	if len(trees) == 0 {
		return nil, nil
	}

	intersection, err := globTree(trees[0], pattern)
	if err != nil {
		return nil, err
	}
	for _, tree := range trees[1:] {
		found, err := globTree(tree, pattern)
		if err != nil {
			return nil, err
		}
		for path := range intersection {
			if _, ok := found[path]; !ok {
				delete(intersection, path)
			}
		}
	}

	result := make([]string, 0, len(intersection))
	for path := range intersection {
		if len(grep) > 0 && !matchesAnyGrep(path, grep) {
			continue
		}
		result = append(result, path)
	}
	sort.Strings(result)
	return result, nil
}

// globTree walks one tree and returns the set of tree-relative file paths
// matching the pattern.
func globTree(tree, pattern string) (map[string]struct{}, error) {
	found := make(map[string]struct{})
	err := filepath.WalkDir(tree, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// A vanished or unreadable subtree contributes nothing.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(tree, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if matchesPattern(rel, pattern) {
			found[rel] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", tree, err)
	}
	return found, nil
}

// matchesPattern reports whether the trailing components of the relative path
// match the pattern's components, mirroring a recursive "**/pattern" glob.
func matchesPattern(relPath, pattern string) bool {
	patParts := strings.Split(pattern, "/")
	parts := strings.Split(relPath, "/")
	if len(parts) < len(patParts) {
		return false
	}
	tail := parts[len(parts)-len(patParts):]
	for i, pat := range patParts {
		ok, err := filepath.Match(pat, tail[i])
		if err != nil || !ok {
			return false
		}
	}
	return true
}

// validatePattern surfaces malformed glob components before any walking.
func validatePattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("empty glob pattern")
	}
	for _, part := range strings.Split(pattern, "/") {
		if _, err := filepath.Match(part, "probe"); err != nil {
			return fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// matchesAnyGrep applies OR semantics across the grep substrings.
func matchesAnyGrep(path string, grep []string) bool {
	for _, g := range grep {
		if strings.Contains(path, g) {
			return true
		}
	}
	return false
}
