package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/funvibe/sigcheck/internal/config"
)

// InputKind classifies a checked file by extension.
type InputKind int

const (
	UnknownInput InputKind = iota
	PythonInput
	ManifestInput
)

// KindOf returns the kind of input a path names.
func KindOf(path string) InputKind {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == config.PythonFileExt {
		return PythonInput
	}
	for _, m := range config.ManifestFileExtensions {
		if ext == m {
			return ManifestInput
		}
	}
	return UnknownInput
}

// ExtractModuleName derives a module name from a file path.
// It takes the base filename and removes any recognized extension.
func ExtractModuleName(path string) string {
	name := filepath.Base(path)
	if KindOf(name) == UnknownInput {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// CollectInputs expands the command line arguments into files to check.
// Directories contribute their recognized files, sorted; files named
// explicitly are kept whatever their extension.
func CollectInputs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", arg, err)
		}
		var found []string
		for _, entry := range entries {
			if !entry.IsDir() && KindOf(entry.Name()) != UnknownInput {
				found = append(found, filepath.Join(arg, entry.Name()))
			}
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}
