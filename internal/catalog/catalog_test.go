package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"passport-map/internal/category"
	"passport-map/internal/geometry"
)

const world = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": "JPN", "properties": {"name": "Japan"},
     "geometry": {"type": "Polygon", "coordinates": [[[136,34],[140,34],[140,38],[136,38],[136,34]]]}},
    {"type": "Feature", "id": "MNG", "properties": {"name": "Mongolia"},
     "geometry": {"type": "Polygon", "coordinates": [[[90,42],[118,42],[118,52],[90,52],[90,42]]]}},
    {"type": "Feature", "id": "ATA", "properties": {"name": "Antarctica"},
     "geometry": {"type": "Polygon", "coordinates": [[[-60,-80],[60,-80],[60,-70],[-60,-70],[-60,-80]]]}}
  ]
}`

func build(t *testing.T) *Catalog {
	t.Helper()
	geo, err := geometry.Decode([]byte(world))
	require.NoError(t, err)
	sets := []category.Dataset{
		{Category: category.Diplomat, Rows: []category.Row{{CountryCode: "MN", NameEn: "Mongolia", NameLocal: "Монгол"}}},
		{Category: category.Normal, Rows: []category.Row{
			{CountryCode: "MN", NameEn: "Mongolia"},
			{CountryCode: "JP", NameEn: "Japan", NameLocal: "Япон", Duration: "30"},
			{CountryCode: "XX", NameEn: "Nowhere"},
		}},
		{Category: category.Special, Rows: []category.Row{{CountryCode: "MN", NameEn: "Mongolia"}}},
	}
	return Build(sets, geo, collate.New(language.English))
}

func TestBuild(t *testing.T) {
	t.Parallel()

	c := build(t)
	assert.Equal(t, category.Diplomat, c.Categories["MNG"])
	assert.Equal(t, category.Normal, c.Categories["JPN"])
	_, ok := c.Categories["ATA"]
	assert.False(t, ok)
	assert.Equal(t, 1, c.Stats.Skipped)

	ata, ok := c.Record("ATA")
	require.True(t, ok)
	assert.Equal(t, category.Other, ata.Category)
	assert.Equal(t, "AQ", ata.Code2)
	assert.Equal(t, "Antarctica", ata.NameEn)

	counts := c.Counts()
	assert.Equal(t, 1, counts[category.Diplomat])
	assert.Equal(t, 1, counts[category.Normal])
	assert.Equal(t, 1, counts[category.Other])
	assert.Equal(t, []string{"JPN", "MNG"}, c.Codes())
}

func TestTooltipAndListing(t *testing.T) {
	t.Parallel()

	c := build(t)
	assert.Equal(t, "🇯🇵 Япон: 30 хоног хүртэл", c.Tooltip("JPN"))
	assert.Equal(t, category.NoInfo, c.Tooltip("ATA"))
	assert.Equal(t, category.NoInfo, c.Tooltip("USA"))

	list := c.Listing()
	require.Len(t, list, 3)
	assert.Equal(t, "ATA", list[0].Code3)
	assert.Equal(t, "MNG", list[1].Code3)
	assert.Equal(t, "JPN", list[2].Code3)

	res := c.Search.Filter("")
	require.Len(t, res, 2)
}

func TestHolder(t *testing.T) {
	t.Parallel()

	h := &Holder{}
	assert.Nil(t, h.Load())
	a := build(t)
	h.Store(a)
	assert.Same(t, a, h.Load())
	h.Store(nil)
	assert.Same(t, a, h.Load())

	b := build(t)
	h.Store(b)
	assert.Same(t, b, h.Load())
}
