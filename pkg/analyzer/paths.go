package analyzer

import (
	"path"
	"strings"
)

// extOf returns the lowercased extension of p, including the leading dot.
func extOf(p string) string {
	return strings.ToLower(path.Ext(p))
}

// baseOf returns the final path element of p, unmodified.
func baseOf(p string) string {
	return path.Base(p)
}

// symbolOf turns a repo-relative path into the dotted file symbol used as the
// root of every scope under it: slashes become dots, the extension is
// dropped.
func symbolOf(p string) string {
	trimmed := strings.TrimSuffix(p, extOf(p))
	trimmed = strings.TrimPrefix(trimmed, "./")
	return strings.ReplaceAll(trimmed, "/", ".")
}
