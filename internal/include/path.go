// Package include resolves include directives of main documents into fetch
// tasks and per-document rewrite maps.
package include

import (
	"path"
	"strings"
)

// fallbackName is used when a target sanitizes to nothing at all.
const fallbackName = "include.beancount"

// ResolvePath resolves an include target against the directory of the
// document that declares it. The result is relative to the origin root.
//
//	ResolvePath("ledgers/2020", "sub/inc.bean") == "ledgers/2020/sub/inc.bean"
//	ResolvePath("anything", "/abs/inc.bean")    == "abs/inc.bean"
func ResolvePath(baseDir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimLeft(target, "/")
	}
	if baseDir == "" || baseDir == "." || baseDir == "/" {
		return target
	}
	return strings.TrimRight(baseDir, "/") + "/" + target
}

// SanitizeRelPath turns a resolved target into a relative path that cannot
// leave the directory it is joined to. Empty, "." and ".." segments are
// dropped entirely.
func SanitizeRelPath(p string) string {
	var keep []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".", "..":
			continue
		}
		keep = append(keep, seg)
	}
	if len(keep) == 0 {
		base := path.Base(p)
		if base == "" || base == "." || base == ".." || base == "/" {
			return fallbackName
		}
		return base
	}
	return strings.Join(keep, "/")
}

// Stem returns a file name without its extension.
func Stem(name string) string {
	ext := path.Ext(name)
	if ext == name {
		return name
	}
	return strings.TrimSuffix(name, ext)
}
