package search

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passport-map/internal/category"
)

func rec(code2, code3, en, local string) category.Record {
	return category.Record{Code2: code2, Code3: code3, NameEn: en, NameLocal: local}
}

func fixture(t *testing.T) *Index {
	t.Helper()
	records := map[string]category.Record{
		"JPN": rec("JP", "JPN", "Japan", ""),
		"FRA": rec("FR", "FRA", "France", ""),
		"DEU": rec("DE", "DEU", "Germany", ""),
		"KOR": rec("KR", "KOR", "South Korea", ""),
		"MNG": rec("MN", "MNG", "Mongolia", ""),
		"ATA": rec("AQ", "ATA", "Antarctica", ""),
		"AUT": rec("AT", "AUT", "austria", ""),
	}
	m := category.Map{
		"JPN": category.Normal,
		"FRA": category.Diplomat,
		"DEU": category.Special,
		"KOR": category.Normal,
		"MNG": category.Diplomat,
		"AUT": category.Normal,
	}
	// 15 filler countries so the unfiltered view is truncated
	for i := 0; i < 15; i++ {
		code3 := fmt.Sprintf("Z%02d", i)
		records[code3] = rec("", code3, fmt.Sprintf("Zland %02d", i), "")
		m[code3] = category.Special
	}
	return NewIndex(BuildEntries(m, records, NewCollator("en")))
}

func TestBuildEntriesSorted(t *testing.T) {
	t.Parallel()

	idx := fixture(t)
	names := make([]string, 0, len(idx.Entries()))
	for _, e := range idx.Entries() {
		names = append(names, e.DisplayName())
	}
	require.Len(t, names, 22)
	// case-insensitive collation keeps "austria" next to "Antarctica"
	assert.Equal(t, []string{"Antarctica", "austria", "France", "Germany", "Japan"}, names[:5])
	assert.True(t, sort.SliceIsSorted(names[7:], func(i, j int) bool { return names[7+i] < names[7+j] }))

	e, ok := idx.Lookup("ATA")
	require.True(t, ok)
	assert.Equal(t, category.Other, e.Category)
}

func TestBuildEntriesPrefersLocalName(t *testing.T) {
	t.Parallel()

	records := map[string]category.Record{
		"JPN": rec("JP", "JPN", "Japan", "Япон"),
		"FRA": rec("FR", "FRA", "France", "Франц"),
		"AUS": rec("AU", "AUS", "Australia", ""),
	}
	m := category.Map{"JPN": category.Normal, "FRA": category.Normal, "AUS": category.Normal}
	entries := BuildEntries(m, records, NewCollator("mn"))
	got := []string{entries[0].Code3, entries[1].Code3, entries[2].Code3}
	// Latin sorts before Cyrillic; Франц before Япон
	assert.Equal(t, []string{"AUS", "FRA", "JPN"}, got)
}

func TestFilterEmptyQuery(t *testing.T) {
	t.Parallel()

	idx := fixture(t)
	res := idx.Filter("")
	require.Len(t, res, MaxResults)
	for _, e := range res {
		assert.NotEqual(t, category.Other, e.Category)
	}
	// same order as the full eligible list
	assert.Equal(t, "austria", res[0].NameEn)
	assert.Equal(t, "France", res[1].NameEn)
	assert.Equal(t, idx.Filter("   "), res)
}

func TestFilterSubstring(t *testing.T) {
	t.Parallel()

	idx := fixture(t)

	res := idx.Filter("jap")
	require.Len(t, res, 1)
	assert.Equal(t, "Japan", res[0].NameEn)

	assert.Empty(t, idx.Filter("zzz"))
	// "other" never appears even on exact match
	assert.Empty(t, idx.Filter("Antarctica"))

	res = idx.Filter("KR")
	require.Len(t, res, 1)
	assert.Equal(t, "KOR", res[0].Code3)

	res = idx.Filter("mng")
	require.Len(t, res, 1)
	assert.Equal(t, "MNG", res[0].Code3)

	for _, q := range []string{"an", "A", "zland"} {
		res := idx.Filter(q)
		assert.LessOrEqual(t, len(res), MaxResults)
		for _, e := range res {
			assert.True(t, matches(e, strings.ToLower(q)), "%s should match %q", e.NameEn, q)
			assert.NotEqual(t, category.Other, e.Category)
		}
	}
}

func TestNavigatorKeys(t *testing.T) {
	t.Parallel()

	n := NewNavigator(fixture(t), 4)
	require.Len(t, n.Results(), MaxResults)

	n.Key(KeyUp)
	assert.Equal(t, 0, n.Active())
	for i := 0; i < 30; i++ {
		n.Key(KeyDown)
		assert.LessOrEqual(t, n.Active(), len(n.Results())-1)
	}
	assert.Equal(t, MaxResults-1, n.Active())

	n.SetQuery("a")
	assert.Equal(t, 0, n.Active())
	n.Key(KeyDown)
	e, ok := n.Key(KeyEnter)
	require.True(t, ok)
	assert.Equal(t, n.Results()[1], e)
}

func TestNavigatorJapanScenario(t *testing.T) {
	t.Parallel()

	n := NewNavigator(fixture(t), 0)
	n.SetQuery("jap")
	e, ok := n.Key(KeyEnter)
	require.True(t, ok)
	assert.Equal(t, "JPN", e.Code3)

	n.SetQuery("zzz")
	assert.Empty(t, n.Results())
	_, ok = n.Key(KeyEnter)
	assert.False(t, ok)
	n.Key(KeyDown)
	n.Key(KeyUp)
	assert.Equal(t, 0, n.Active())
}

func TestNavigatorWindow(t *testing.T) {
	t.Parallel()

	n := NewNavigator(fixture(t), 4)
	s, e := n.Window()
	assert.Equal(t, 0, s)
	assert.Equal(t, 4, e)

	for i := 0; i < 5; i++ {
		n.Key(KeyDown)
	}
	s, e = n.Window()
	assert.Equal(t, 5, n.Active())
	assert.Equal(t, 2, s)
	assert.Equal(t, 6, e)

	// moving back inside the window does not scroll
	n.Key(KeyUp)
	n.Key(KeyUp)
	s, _ = n.Window()
	assert.Equal(t, 2, s)

	n.Key(KeyUp)
	s, _ = n.Window()
	assert.Equal(t, 2, n.Active())
	assert.Equal(t, 2, s)
	n.Key(KeyUp)
	s, _ = n.Window()
	assert.Equal(t, 1, s)

	n.SetQuery("jap")
	s, e = n.Window()
	assert.Equal(t, 0, s)
	assert.Equal(t, 1, e)
}

func TestNavigatorHoverPick(t *testing.T) {
	t.Parallel()

	n := NewNavigator(fixture(t), 4)
	assert.True(t, n.Hover(3))
	assert.Equal(t, 3, n.Active())
	assert.False(t, n.Hover(99))
	assert.Equal(t, 3, n.Active())

	e, ok := n.Pick(2)
	require.True(t, ok)
	assert.Equal(t, n.Results()[2], e)
	_, ok = n.Pick(-1)
	assert.False(t, ok)
}

func TestSuggest(t *testing.T) {
	t.Parallel()

	idx := fixture(t)
	assert.Empty(t, idx.Filter("jpaan"))
	s := idx.Suggest("jpaan", 3)
	require.NotEmpty(t, s)
	assert.Equal(t, "JPN", s[0].Code3)
	assert.Empty(t, idx.Suggest("", 3))

	for _, e := range idx.Suggest("antarctika", 5) {
		assert.NotEqual(t, "ATA", e.Code3)
	}
}
