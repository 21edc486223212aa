package record

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Skip reasons reported for lines that do not yield a record.
const (
	ReasonEmpty   = "empty"
	ReasonComment = "comment"
	ReasonColumns = "columns"
	ReasonURL     = "url"
	ReasonDepth   = "depth"
)

// SkipError explains why a line was not turned into a record.
type SkipError struct {
	Reason string
	Line   string
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("skipped record (%s): %q", e.Reason, e.Line)
}

// Stats summarizes a batch read.
type Stats struct {
	Lines    int
	Skipped  int
	ByReason map[string]int
}

// ParseLine parses one tab-separated record line:
//
//	raw_url \t size \t classification \t include_targets_csv
//
// Only the first two columns are required.
func ParseLine(line, rawHost string) (Record, error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return Record{}, &SkipError{Reason: ReasonEmpty, Line: line}
	}
	if strings.HasPrefix(line, "#") {
		return Record{}, &SkipError{Reason: ReasonComment, Line: line}
	}

	cols := strings.Split(line, "\t")
	if len(cols) < 2 {
		return Record{}, &SkipError{Reason: ReasonColumns, Line: line}
	}

	rawURL := strings.TrimSpace(cols[0])
	prefix := "https://" + rawHost + "/"
	if !strings.HasPrefix(rawURL, prefix) {
		return Record{}, &SkipError{Reason: ReasonURL, Line: line}
	}

	parts := strings.SplitN(rawURL[len(prefix):], "/", 4)
	if len(parts) < 4 {
		return Record{}, &SkipError{Reason: ReasonDepth, Line: line}
	}
	for _, p := range parts {
		if p == "" {
			return Record{}, &SkipError{Reason: ReasonDepth, Line: line}
		}
	}

	rec := Record{
		URL: rawURL,
		Origin: Origin{
			Host:   rawHost,
			Owner:  parts[0],
			Repo:   parts[1],
			Commit: parts[2],
		},
		Path: parts[3],
		Size: parseSize(cols[1]),
	}
	if len(cols) >= 3 {
		rec.Classification = ParseClassification(cols[2])
	}
	if len(cols) >= 4 {
		rec.Targets = ParseTargets(cols[3])
	}
	return rec, nil
}

// ParseTargets splits a comma-joined include target list, dropping blanks.
func ParseTargets(csv string) []string {
	var out []string
	for _, piece := range strings.Split(csv, ",") {
		if t := strings.TrimSpace(piece); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func parseSize(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "unknown") {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// Read parses every line of r. Malformed lines are counted, never fatal.
func Read(r io.Reader, rawHost string) ([]Record, Stats, error) {
	stats := Stats{ByReason: make(map[string]int)}
	var records []Record

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		rec, err := ParseLine(line, rawHost)
		if err != nil {
			skip, ok := err.(*SkipError)
			if ok && (skip.Reason == ReasonEmpty || skip.Reason == ReasonComment) {
				continue
			}
			stats.Lines++
			stats.Skipped++
			if ok {
				stats.ByReason[skip.Reason]++
			}
			continue
		}
		stats.Lines++
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return records, stats, fmt.Errorf("reading records: %w", err)
	}
	return records, stats, nil
}

// ReadFile reads a record file. A missing file is an error; bad lines are not.
func ReadFile(path, rawHost string) ([]Record, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("opening record file %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, rawHost)
}
