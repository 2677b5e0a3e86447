package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProjectFileExtensions lists the accepted encodings for project files, in
// lookup order.
var ProjectFileExtensions = []string{".json", ".yaml", ".yml"}

// ErrProjectFileNotFound is returned when no variant of a project file exists.
var ErrProjectFileNotFound = errors.New("project file not found")

// FindProjectFile returns the first existing <dir>/<base><ext>.
func FindProjectFile(dir, base string) (string, error) {
	dir = filepath.Clean(dir)
	for _, ext := range ProjectFileExtensions {
		candidate := filepath.Join(dir, base+ext)
		info, err := os.Stat(candidate)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		if info.IsDir() {
			continue
		}
		return candidate, nil
	}
	return "", fmt.Errorf("%s in %s: %w", base, dir, ErrProjectFileNotFound)
}

// DecodeProjectFile decodes a project file by extension: .json with
// encoding/json, anything else with yaml.v3.
func DecodeProjectFile(path string, data []byte, out any) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return json.Unmarshal(data, out)
	}
	return yaml.Unmarshal(data, out)
}
