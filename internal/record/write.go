package record

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Format renders a record as one TSV line without the trailing newline.
// Targets are written as given; callers that hold resolved paths should pass
// them through AbsoluteTarget so re-reading them is resolution-stable.
func Format(r Record) string {
	return strings.Join([]string{
		r.URL,
		r.SizeString(),
		r.Classification.String(),
		strings.Join(r.Targets, ","),
	}, "\t")
}

// AbsoluteTarget marks an origin-relative path as absolute within its origin.
func AbsoluteTarget(resolved string) string {
	return "/" + strings.TrimLeft(resolved, "/")
}

// Write writes records as TSV lines.
func Write(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		if _, err := fmt.Fprintln(bw, Format(r)); err != nil {
			return fmt.Errorf("writing record %s: %w", r.URL, err)
		}
	}
	return bw.Flush()
}
