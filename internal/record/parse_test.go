package record

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineFull(t *testing.T) {
	line := "https://raw.githubusercontent.com/alice/books/abc123/ledgers/2020/main.bean\t2048\tMAIN\tsub/a.bean, /abs/b.bean ,"

	rec, err := ParseLine(line, DefaultRawHost)
	require.NoError(t, err)

	assert.Equal(t, Origin{Host: DefaultRawHost, Owner: "alice", Repo: "books", Commit: "abc123"}, rec.Origin)
	assert.Equal(t, "ledgers/2020/main.bean", rec.Path)
	assert.Equal(t, "ledgers/2020", rec.BaseDir())
	assert.Equal(t, "main.bean", rec.Basename())
	require.NotNil(t, rec.Size)
	assert.EqualValues(t, 2048, *rec.Size)
	assert.Equal(t, Main, rec.Classification)
	assert.Equal(t, []string{"sub/a.bean", "/abs/b.bean"}, rec.Targets)
}

func TestParseLineTwoColumns(t *testing.T) {
	rec, err := ParseLine("https://raw.githubusercontent.com/o/r/c/x.beancount\tunknown", DefaultRawHost)
	require.NoError(t, err)
	assert.Nil(t, rec.Size)
	assert.Equal(t, Unknown, rec.Classification)
	assert.Empty(t, rec.Targets)
	assert.Equal(t, ".", rec.BaseDir())
}

func TestParseLineIncludeFlagAliases(t *testing.T) {
	yes, err := ParseLine("https://raw.githubusercontent.com/o/r/c/a.bean\t1\tyes\tb.bean", DefaultRawHost)
	require.NoError(t, err)
	assert.Equal(t, Main, yes.Classification)

	no, err := ParseLine("https://raw.githubusercontent.com/o/r/c/a.bean\t1\tno\t", DefaultRawHost)
	require.NoError(t, err)
	assert.Equal(t, Single, no.Classification)
}

func TestParseLineSkips(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		reason string
	}{
		{"empty", "   ", ReasonEmpty},
		{"comment", "# header", ReasonComment},
		{"one column", "https://raw.githubusercontent.com/o/r/c/a.bean", ReasonColumns},
		{"wrong host", "https://example.com/o/r/c/a.bean\t10", ReasonURL},
		{"http scheme", "http://raw.githubusercontent.com/o/r/c/a.bean\t10", ReasonURL},
		{"too shallow", "https://raw.githubusercontent.com/o/r/a.bean\t10", ReasonDepth},
		{"empty segment", "https://raw.githubusercontent.com/o//c/a.bean\t10", ReasonDepth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLine(tt.line, DefaultRawHost)
			var skip *SkipError
			require.True(t, errors.As(err, &skip), "expected SkipError, got %v", err)
			assert.Equal(t, tt.reason, skip.Reason)
		})
	}
}

func TestParseSizeSentinels(t *testing.T) {
	for _, s := range []string{"", "unknown", "UNKNOWN", "12kb", "-4"} {
		assert.Nil(t, parseSize(s), "size %q", s)
	}
	n := parseSize(" 42 ")
	require.NotNil(t, n)
	assert.EqualValues(t, 42, *n)
}

func TestReadCountsSkipsWithoutAborting(t *testing.T) {
	input := strings.Join([]string{
		"# discovered ledgers",
		"https://raw.githubusercontent.com/o/r/c/a.bean\t100\tmain\tinc.bean",
		"",
		"not a record",
		"https://example.com/o/r/c/b.bean\t100",
		"https://raw.githubusercontent.com/o/r/c/c.bean\t200\tsingle\t",
	}, "\n")

	records, stats, err := Read(strings.NewReader(input), DefaultRawHost)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "a.bean", records[0].Basename())
	assert.Equal(t, "c.bean", records[1].Basename())
	assert.Equal(t, 4, stats.Lines)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 1, stats.ByReason[ReasonColumns])
	assert.Equal(t, 1, stats.ByReason[ReasonURL])
}

func TestReadFileMissing(t *testing.T) {
	_, _, err := ReadFile(t.TempDir()+"/absent.tsv", DefaultRawHost)
	require.Error(t, err)
}

func TestFormatRoundTrip(t *testing.T) {
	size := int64(77)
	rec := Record{
		URL:            "https://raw.githubusercontent.com/o/r/c/dir/a.bean",
		Size:           &size,
		Classification: Main,
		Targets:        []string{AbsoluteTarget("dir/inc.bean"), AbsoluteTarget("/other.bean")},
	}

	line := Format(rec)
	assert.Equal(t, "https://raw.githubusercontent.com/o/r/c/dir/a.bean\t77\tmain\t/dir/inc.bean,/other.bean", line)

	back, err := ParseLine(line, DefaultRawHost)
	require.NoError(t, err)
	assert.Equal(t, rec.Targets, back.Targets)
	assert.Equal(t, Main, back.Classification)
}

func TestClassificationPromote(t *testing.T) {
	assert.Equal(t, Main, Single.Promote(Main))
	assert.Equal(t, Main, Main.Promote(Unknown))
	assert.Equal(t, Single, Unknown.Promote(Single))
	assert.Equal(t, Unknown, Unknown.Promote(Unknown))
}

func TestNewClassificationSet(t *testing.T) {
	set := NewClassificationSet("main, single", "")
	assert.True(t, set.Has(Main))
	assert.True(t, set.Has(Single))
	assert.False(t, set.Has(Unknown))
}
