// Package repo handles the template repository on disk: discovering
// template files and locking the repo during apply.
package repo

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// ConfigFileName is the repo configuration file, never a template.
const ConfigFileName = "accord.yaml"

// Discover walks root and returns every template file path, sorted by
// the walk order. Hidden directories and the repo config are skipped.
func Discover(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(name)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if name == ConfigFileName {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
