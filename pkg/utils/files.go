package utils

import (
	"path/filepath"
	"strings"
)

// GetPathInfo resolves relPath and derives the module name from its base
// name without the extension.
func GetPathInfo(relPath string) (fullPath string, moduleName string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	base := filepath.Base(fullPath)
	moduleName = strings.TrimSuffix(base, filepath.Ext(base))

	return fullPath, moduleName, nil
}

// ReplaceExt swaps the extension of path for ext, or appends ext when path
// has none.
func ReplaceExt(path, ext string) string {
	old := filepath.Ext(path)
	if old == "" {
		return path + ext
	}
	return strings.TrimSuffix(path, old) + ext
}
