package include

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bianoble/ledger-corpus/internal/record"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		base, target, want string
	}{
		{"ledgers/2020", "sub/inc.bean", "ledgers/2020/sub/inc.bean"},
		{"ledgers/2020/", "inc.bean", "ledgers/2020/inc.bean"},
		{"ledgers/2020", "/abs/inc.bean", "abs/inc.bean"},
		{"", "/abs/inc.bean", "abs/inc.bean"},
		{".", "inc.bean", "inc.bean"},
		{"", "inc.bean", "inc.bean"},
		{"a", "../b/inc.bean", "a/../b/inc.bean"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolvePath(tt.base, tt.target), "ResolvePath(%q, %q)", tt.base, tt.target)
	}
}

func TestResolvePathIsStableForAbsoluteTargets(t *testing.T) {
	once := ResolvePath("x/y", "/abs/inc.bean")
	assert.Equal(t, once, ResolvePath("other", "/"+once))
}

func TestSanitizeRelPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ledgers/2020/inc.bean", "ledgers/2020/inc.bean"},
		{"/leading/slash.bean", "leading/slash.bean"},
		{"a/../../etc/passwd", "a/etc/passwd"},
		{"./x/./y.bean", "x/y.bean"},
		{"..", fallbackName},
		{"", fallbackName},
		{"//", fallbackName},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeRelPath(tt.in), "SanitizeRelPath(%q)", tt.in)
	}
}

func TestStem(t *testing.T) {
	assert.Equal(t, "main", Stem("main.bean"))
	assert.Equal(t, "a.tar", Stem("a.tar.gz"))
	assert.Equal(t, "noext", Stem("noext"))
	assert.Equal(t, ".bean", Stem(".bean"))
}

func origin(owner string) record.Origin {
	return record.Origin{Host: record.DefaultRawHost, Owner: owner, Repo: "r", Commit: "c"}
}

func TestBuildSharesTasksAcrossMains(t *testing.T) {
	o := origin("o")
	plan := Build([]Document{
		{Key: record.Key{Origin: o, Path: "one.bean"}, Name: "one.bean", Targets: []string{"shared.bean", "one/extra.bean"}},
		{Key: record.Key{Origin: o, Path: "two.bean"}, Name: "two.bean", Targets: []string{"shared.bean"}},
	})

	require.Len(t, plan.Tasks, 2)
	assert.Equal(t, 3, plan.Declared)

	shared := plan.Tasks[TaskKey{Origin: o, Path: "shared.bean"}]
	require.NotNil(t, shared)
	assert.Equal(t, "one/shared.bean", shared.LocalPath)
	assert.Equal(t, []string{"one.bean", "two.bean"}, shared.Referrers)
	assert.Equal(t, "https://raw.githubusercontent.com/o/r/c/shared.bean", shared.URL)

	assert.Equal(t, "one/shared.bean", plan.Mains["one.bean"].Targets["shared.bean"])
	assert.Equal(t, "one/shared.bean", plan.Mains["two.bean"].Targets["shared.bean"])
	assert.Equal(t, "two", plan.Mains["two.bean"].Subdir)
}

func TestBuildSeparatesOrigins(t *testing.T) {
	plan := Build([]Document{
		{Key: record.Key{Origin: origin("a"), Path: "x.bean"}, Name: "a-r-x.bean", Targets: []string{"inc.bean"}},
		{Key: record.Key{Origin: origin("b"), Path: "x.bean"}, Name: "b-r-x.bean", Targets: []string{"inc.bean"}},
	})

	require.Len(t, plan.Tasks, 2)
	assert.Equal(t, "a-r-x/inc.bean", plan.Mains["a-r-x.bean"].Targets["inc.bean"])
	assert.Equal(t, "b-r-x/inc.bean", plan.Mains["b-r-x.bean"].Targets["inc.bean"])
}

func TestBuildSanitizesEscapingTargets(t *testing.T) {
	plan := Build([]Document{
		{Key: record.Key{Origin: origin("o"), Path: "books/main.bean"}, Name: "main.bean", Targets: []string{"books/../../secret.bean"}},
	})
	assert.Equal(t, "main/books/secret.bean", plan.Mains["main.bean"].Targets["books/../../secret.bean"])
}

func TestBuildDisambiguatesSharedStems(t *testing.T) {
	plan := Build([]Document{
		{Key: record.Key{Origin: origin("o"), Path: "a.bean"}, Name: "a.bean", Targets: []string{"i.bean"}},
		{Key: record.Key{Origin: origin("p"), Path: "a.beancount"}, Name: "a.beancount", Targets: []string{"i.bean"}},
	})
	assert.Equal(t, "a", plan.Mains["a.bean"].Subdir)
	assert.Equal(t, "a_beancount", plan.Mains["a.beancount"].Subdir)
	assert.NotEqual(t, plan.Mains["a.bean"].Targets["i.bean"], plan.Mains["a.beancount"].Targets["i.bean"])
}

func TestBuildStemCollisionsAreUniqueAndOrderIndependent(t *testing.T) {
	docs := []Document{
		{Key: record.Key{Origin: origin("q"), Path: "a_beancount.x"}, Name: "a_beancount.x", Targets: []string{"i.bean"}},
		{Key: record.Key{Origin: origin("p"), Path: "a.beancount"}, Name: "a.beancount", Targets: []string{"i.bean"}},
		{Key: record.Key{Origin: origin("o"), Path: "a.bean"}, Name: "a.bean", Targets: []string{"i.bean"}},
	}
	want := map[string]string{"a.bean": "a", "a.beancount": "a_beancount", "a_beancount.x": "a_beancount_x"}

	for _, order := range [][]Document{docs, {docs[2], docs[0], docs[1]}} {
		plan := Build(order)
		got := make(map[string]string)
		for name, ms := range plan.Mains {
			got[name] = ms.Subdir
		}
		assert.Equal(t, want, got)
	}
}

func TestBuildAvoidsReservedAndDocumentNames(t *testing.T) {
	plan := Build([]Document{
		{Key: record.Key{Origin: origin("o"), Path: "broken.bean"}, Name: "broken.bean", Targets: []string{"x.bean"}},
		{Key: record.Key{Origin: origin("o"), Path: "ledger"}, Name: "ledger", Targets: []string{"y.bean"}},
	}, "broken")

	assert.Equal(t, "broken_bean", plan.Mains["broken.bean"].Subdir)
	assert.Equal(t, "broken_bean/x.bean", plan.Mains["broken.bean"].Targets["x.bean"])
	assert.Equal(t, "ledger_2", plan.Mains["ledger"].Subdir, "a subdirectory never shadows a document")
}

func TestBuildQuarantinedDocumentsKeepOwnership(t *testing.T) {
	o := origin("o")
	plan := Build([]Document{
		{Key: record.Key{Origin: o, Path: "beta.bean"}, Name: "beta.bean", Targets: []string{"common.bean"}},
		{Key: record.Key{Origin: o, Path: "alpha.bean"}, Name: "alpha.bean", Targets: []string{"common.bean", "gone.bean"}, Quarantined: true},
	})

	assert.Equal(t, []string{"beta.bean"}, plan.MainOrder)
	assert.Len(t, plan.Tasks, 1)
	assert.Equal(t, 1, plan.Declared)
	assert.Equal(t, "alpha/common.bean", plan.Mains["beta.bean"].Targets["common.bean"])
	assert.Equal(t, "beta", plan.Mains["beta.bean"].Subdir)
}

func TestLookupResolvesRawTargets(t *testing.T) {
	plan := Build([]Document{
		{Key: record.Key{Origin: origin("o"), Path: "ledgers/2020/main.bean"}, Name: "main.bean", Targets: []string{"ledgers/2020/sub/inc.bean"}},
	})
	ms := plan.Mains["main.bean"]

	local, ok := ms.Lookup("sub/inc.bean")
	require.True(t, ok)
	assert.Equal(t, "main/ledgers/2020/sub/inc.bean", local)

	local, ok = ms.Lookup("/ledgers/2020/sub/inc.bean")
	require.True(t, ok)
	assert.Equal(t, "main/ledgers/2020/sub/inc.bean", local)

	_, ok = ms.Lookup("missing.bean")
	assert.False(t, ok)
}

func TestSettlePropagatesToReferrers(t *testing.T) {
	o := origin("o")
	plan := Build([]Document{
		{Key: record.Key{Origin: o, Path: "one.bean"}, Name: "one.bean", Targets: []string{"shared.bean", "only-one.bean"}},
		{Key: record.Key{Origin: o, Path: "two.bean"}, Name: "two.bean", Targets: []string{"shared.bean"}},
	})

	plan.Settle(TaskKey{Origin: o, Path: "shared.bean"}, Unchanged)
	plan.Settle(TaskKey{Origin: o, Path: "only-one.bean"}, Failed)

	one, two := plan.Mains["one.bean"], plan.Mains["two.bean"]
	assert.True(t, one.Failed)
	assert.False(t, two.Failed)
	assert.True(t, one.Materialized["one/shared.bean"])
	assert.True(t, two.Materialized["one/shared.bean"])
	assert.False(t, one.Materialized["one/only-one.bean"])

	assert.True(t, plan.SharedWithHealthy("one/shared.bean"))
	assert.False(t, plan.SharedWithHealthy("one/only-one.bean"))
}
