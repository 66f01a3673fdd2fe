package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passport-map/internal/countrycode"
)

func ds(c Category, codes ...string) Dataset {
	d := Dataset{Category: c}
	for _, code := range codes {
		d.Rows = append(d.Rows, Row{CountryCode: code, NameEn: code})
	}
	return d
}

func TestResolveHighestRankWins(t *testing.T) {
	t.Parallel()

	m, st := Resolve([]Dataset{
		ds(Diplomat, "MN"),
		ds(Normal, "MN"),
		ds(Special, "MN"),
	}, countrycode.Alpha3)
	assert.Equal(t, Diplomat, m["MNG"])
	assert.Equal(t, 3, st.Rows)
	assert.Equal(t, 0, st.Skipped)
}

func TestResolveOrderIndependent(t *testing.T) {
	t.Parallel()

	sets := []Dataset{
		ds(Special, "JP", "FR", "KR"),
		ds(Normal, "JP", "DE"),
		ds(Diplomat, "FR"),
	}
	perms := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	var first Map
	for _, p := range perms {
		in := []Dataset{sets[p[0]], sets[p[1]], sets[p[2]]}
		m, _ := Resolve(in, countrycode.Alpha3)
		if first == nil {
			first = m
			continue
		}
		assert.Equal(t, first, m, "perm %v", p)
	}
	assert.Equal(t, Normal, first["JPN"])
	assert.Equal(t, Diplomat, first["FRA"])
	assert.Equal(t, Special, first["KOR"])
	assert.Equal(t, Normal, first["DEU"])
}

func TestResolveAbsentAndUntranslatable(t *testing.T) {
	t.Parallel()

	m, st := Resolve([]Dataset{ds(Normal, "JP", "QQ", "")}, countrycode.Alpha3)
	require.Len(t, m, 1)
	assert.Equal(t, 2, st.Skipped)
	_, ok := m["USA"]
	assert.False(t, ok)
	assert.Equal(t, Other, m.Get("USA"))
}

func TestParseCategory(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Diplomat, ParseCategory(" Diplomat "))
	assert.Equal(t, Normal, ParseCategory("normal"))
	assert.Equal(t, Special, ParseCategory("SPECIAL"))
	assert.Equal(t, Other, ParseCategory("tourist"))
	assert.Greater(t, Rank(Diplomat), Rank(Normal))
	assert.Greater(t, Rank(Normal), Rank(Special))
	assert.Greater(t, Rank(Special), Rank(Other))
}

func TestBuildRecords(t *testing.T) {
	t.Parallel()

	sets := []Dataset{
		{Category: Special, Rows: []Row{{CountryCode: "jp", NameEn: "Japan", NameLocal: "Япон", Duration: "14"}}},
		{Category: Normal, Rows: []Row{
			{CountryCode: "JP", NameEn: "Japan", Duration: "30", Notes: "tourism", EffectiveDate: "2023-01-01"},
			{CountryCode: "JP", NameEn: "Japan (dup)", Duration: "90"},
		}},
	}
	m, _ := Resolve(sets, countrycode.Alpha3)
	recs := BuildRecords(sets, m, countrycode.Alpha3)
	require.Contains(t, recs, "JPN")
	r := recs["JPN"]
	assert.Equal(t, Normal, r.Category)
	assert.Equal(t, "JP", r.Code2)
	assert.Equal(t, "Japan", r.NameEn)
	assert.Equal(t, "Япон", r.NameLocal)
	assert.Equal(t, "30", r.Attributes.Duration)
	assert.Equal(t, "https://flagcdn.com/jp.svg", r.FlagURL())

	tip := r.Tooltip()
	assert.Equal(t, "🇯🇵 Япон: 30 хоног хүртэл\nТэмдэглэл: tourism\nХүчинтэй огноо: 2023-01-01", tip)
	assert.Equal(t, "Japan: N/A хоног хүртэл", Record{NameEn: "Japan"}.Tooltip())
}

func TestCategoryText(t *testing.T) {
	t.Parallel()

	b, err := Diplomat.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "diplomat", string(b))

	var c Category
	require.NoError(t, c.UnmarshalText([]byte("special")))
	assert.Equal(t, Special, c)
	assert.Equal(t, "Энгийн", Normal.Label())
}
