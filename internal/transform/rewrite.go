// Package transform holds the text transforms applied to fetched ledger
// documents: include directive rewriting and the source trailer.
package transform

import (
	"bytes"
	"regexp"
)

var (
	commentLine = regexp.MustCompile(`^\s*[;#]`)
	// Groups: prefix up to and including the opening quote, target, closing
	// quote plus everything after it.
	includeLine = regexp.MustCompile(`(?i)^(\s*include\s+")([^"]+)(".*)$`)
)

// Lookup maps an include target as written in a document to its local path.
type Lookup func(target string) (string, bool)

// Directive is one include directive found in a document.
type Directive struct {
	Line   int // 1-based
	Target string
}

// RewriteIncludes replaces the target of every include directive that lookup
// knows about. Comment lines are never inspected. Everything outside the
// quoted target, line endings included, is preserved byte for byte.
//
// rewritten counts lines whose target was replaced with a different path;
// candidates counts all include directives seen.
func RewriteIncludes(text []byte, lookup Lookup) (out []byte, rewritten, candidates int) {
	if isBinary(text) {
		return text, 0, 0
	}

	var buf bytes.Buffer
	buf.Grow(len(text))
	forEachLine(text, func(_ int, line, eol []byte) {
		target, m := matchInclude(line)
		if m == nil {
			buf.Write(line)
			buf.Write(eol)
			return
		}
		candidates++
		local, ok := lookup(target)
		if !ok || local == target {
			buf.Write(line)
			buf.Write(eol)
			return
		}
		rewritten++
		buf.Write(line[m[2]:m[3]])
		buf.WriteString(local)
		buf.Write(line[m[6]:m[7]])
		buf.Write(eol)
	})
	return buf.Bytes(), rewritten, candidates
}

// Includes lists the include directives of a document, skipping comments.
func Includes(text []byte) []Directive {
	if isBinary(text) {
		return nil
	}
	var out []Directive
	forEachLine(text, func(n int, line, _ []byte) {
		if target, m := matchInclude(line); m != nil {
			out = append(out, Directive{Line: n, Target: target})
		}
	})
	return out
}

func matchInclude(line []byte) (string, []int) {
	if commentLine.Match(line) {
		return "", nil
	}
	m := includeLine.FindSubmatchIndex(line)
	if m == nil {
		return "", nil
	}
	return string(line[m[4]:m[5]]), m
}

// forEachLine calls fn with each line split from its terminator ("\n",
// "\r\n" or nothing for an unterminated last line).
func forEachLine(text []byte, fn func(n int, line, eol []byte)) {
	n := 0
	for len(text) > 0 {
		n++
		i := bytes.IndexByte(text, '\n')
		if i < 0 {
			fn(n, text, nil)
			return
		}
		line, eol := text[:i], text[i:i+1]
		if i > 0 && text[i-1] == '\r' {
			line, eol = text[:i-1], text[i-1:i+1]
		}
		fn(n, line, eol)
		text = text[i+1:]
	}
}

// isBinary reports NUL bytes. Text in legacy encodings such as Latin-1 is
// still a ledger and is rewritten byte for byte.
func isBinary(data []byte) bool {
	return bytes.IndexByte(data, 0) >= 0
}
