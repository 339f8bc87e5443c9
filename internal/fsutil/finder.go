// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// YAMLExtensions are the suffixes recognised as manifest and component files.
var YAMLExtensions = []string{".yaml", ".yml"}

// FindFilesByExtension recursively searches the given root path for all files
// ending with any of the given extensions. Results are sorted so that callers
// see a stable order across platforms.
func FindFilesByExtension(rootPath string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		panic("at least one extension is required")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		for _, ext := range extensions {
			if strings.HasSuffix(d.Name(), ext) {
				files = append(files, path)
				break
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// ExpandPaths turns a list of files and directories into the list of YAML
// files they denote. Files are kept as given even if their suffix differs.
func ExpandPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		found, err := FindFilesByExtension(p, YAMLExtensions...)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}
