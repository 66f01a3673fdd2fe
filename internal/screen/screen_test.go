package screen

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"passport-map/internal/camera"
	"passport-map/internal/catalog"
	"passport-map/internal/category"
	"passport-map/internal/countryinfo"
	"passport-map/internal/geometry"
	"passport-map/internal/mapview"
	"passport-map/internal/search"
)

const world = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": "JPN", "properties": {"name": "Japan"},
     "geometry": {"type": "Polygon", "coordinates": [[[136,34],[140,34],[140,38],[136,38],[136,34]]]}},
    {"type": "Feature", "id": "ATA", "properties": {"name": "Antarctica"},
     "geometry": {"type": "Polygon", "coordinates": [[[-60,-60],[60,-60],[60,-50],[-60,-50],[-60,-60]]]}}
  ]
}`

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type stubFetcher struct{}

func (stubFetcher) Fetch(_ context.Context, code3 string) (countryinfo.Facts, error) {
	return countryinfo.Facts{Code3: code3, Capital: "cap-" + code3}, nil
}

type events struct {
	mu  sync.Mutex
	all []Event
}

func (e *events) add(ev Event) {
	e.mu.Lock()
	e.all = append(e.all, ev)
	e.mu.Unlock()
}

func (e *events) count(typ string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, ev := range e.all {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

var home = camera.State{Center: orb.Point{0, 20}, Zoom: 1}

func newCatalog(t *testing.T, extra ...category.Row) *catalog.Catalog {
	t.Helper()
	geo, err := geometry.Decode([]byte(world))
	require.NoError(t, err)
	rows := append([]category.Row{
		{CountryCode: "JP", NameEn: "Japan", NameLocal: "Япон", Duration: "30"},
		{CountryCode: "FR", NameEn: "France"},
	}, extra...)
	sets := []category.Dataset{{Category: category.Normal, Rows: rows}}
	return catalog.Build(sets, geo, collate.New(language.English))
}

func newScreen(t *testing.T) (*Screen, *clock, *events, *catalog.Holder) {
	t.Helper()
	clk := &clock{t: time.Unix(1700000000, 0)}
	ev := &events{}
	holder := catalog.NewHolder(newCatalog(t))
	s := New(holder, stubFetcher{}, Options{
		View:              mapview.View{Width: 960, Height: 540, MinZoom: 1, MaxZoom: 8},
		DefaultView:       home,
		SelectZoom:        4,
		AnimationDuration: 800 * time.Millisecond,
		FrameInterval:     time.Millisecond,
		VisibleResults:    5,
		Now:               clk.Now,
	}, ev.add)
	t.Cleanup(s.Close)
	return s, clk, ev, holder
}

func TestSelectAnimatesToCentroidAndBack(t *testing.T) {
	t.Parallel()

	s, clk, ev, _ := newScreen(t)
	changed, err := s.Select("JPN", "api")
	require.NoError(t, err)
	require.True(t, changed)
	assert.True(t, s.Snapshot().Animating)

	clk.Advance(800 * time.Millisecond)
	cur := s.Camera()
	assert.Equal(t, orb.Point{138, 36}, cur.Center)
	assert.Equal(t, 4.0, cur.Zoom)

	require.Eventually(t, func() bool {
		p := s.Snapshot().Panel
		return !p.Loading && p.Facts != nil
	}, time.Second, time.Millisecond)
	assert.Equal(t, "cap-JPN", s.Snapshot().Panel.Facts.Capital)

	changed, err = s.Select("", "api")
	require.NoError(t, err)
	require.True(t, changed)
	clk.Advance(800 * time.Millisecond)
	assert.Equal(t, home, s.Camera())
	assert.Equal(t, "", s.Snapshot().Panel.Code3)
	assert.GreaterOrEqual(t, ev.count(EventSelection), 2)
}

func TestSelectSameIsNoop(t *testing.T) {
	t.Parallel()

	s, _, ev, _ := newScreen(t)
	_, _ = s.Select("JPN", "api")
	n := ev.count(EventSelection)
	changed, err := s.Select("JPN", "api")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, n, ev.count(EventSelection))
}

func TestSelectWithoutCentroidKeepsCamera(t *testing.T) {
	t.Parallel()

	s, clk, _, _ := newScreen(t)
	changed, err := s.Select("FRA", "api")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.False(t, s.Snapshot().Animating)
	clk.Advance(time.Second)
	assert.Equal(t, home, s.Camera())
	assert.Equal(t, "FRA", s.Selected())
	assert.Equal(t, "FRA", s.Snapshot().Panel.Code3)
}

func TestClickSelectsOnlyInteractive(t *testing.T) {
	t.Parallel()

	s, clk, _, _ := newScreen(t)
	_, _ = s.Select("JPN", "api")
	clk.Advance(time.Second)

	code, ok, err := s.Click(480, 270)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "JPN", code)

	_, _ = s.Select("", "api")
	clk.Advance(time.Second)
	shapes, v := s.Render()
	require.NotEmpty(t, shapes)
	px := v.Project(s.Camera(), orb.Point{0, -55})
	_, ok, err = s.Click(px[0], px[1])
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "", s.Selected())
}

func TestManualPanStopsAnimation(t *testing.T) {
	t.Parallel()

	s, clk, _, _ := newScreen(t)
	_, _ = s.Select("JPN", "api")
	clk.Advance(200 * time.Millisecond)

	st, err := s.Pan(10, 0)
	require.NoError(t, err)
	assert.False(t, s.Snapshot().Animating)
	clk.Advance(time.Second)
	assert.Equal(t, st, s.Camera())
	// selection is untouched by manual gestures
	assert.Equal(t, "JPN", s.Selected())

	z, err := s.Zoom(100, 480, 270)
	require.NoError(t, err)
	assert.Equal(t, 8.0, z.Zoom)
}

func TestSearchDrivesSelection(t *testing.T) {
	t.Parallel()

	s, clk, _, _ := newScreen(t)
	st, err := s.SetQuery("jap")
	require.NoError(t, err)
	require.Len(t, st.Results, 1)
	assert.Equal(t, "JPN", st.Results[0].Code3)

	_, ok, err := s.Key(search.KeyEnter)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "JPN", s.Selected())
	clk.Advance(time.Second)
	assert.Equal(t, orb.Point{138, 36}, s.Camera().Center)

	st, err = s.SetQuery("zzz")
	require.NoError(t, err)
	assert.Empty(t, st.Results)
	_, ok, err = s.Key(search.KeyEnter)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "JPN", s.Selected())

	st, _ = s.SetQuery("jpaan")
	require.NotEmpty(t, st.Suggestions)
	assert.Equal(t, "JPN", st.Suggestions[0].Code3)

	_, _ = s.SetQuery("")
	st, ok, err = s.Pick(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, st.Results[1].Code3, s.Selected())

	st, err = s.Hover(0)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Active)
}

func TestCatalogReloadRebindsSearch(t *testing.T) {
	t.Parallel()

	s, _, _, holder := newScreen(t)
	st, _ := s.SetQuery("kor")
	assert.Empty(t, st.Results)

	holder.Store(newCatalog(t, category.Row{CountryCode: "KR", NameEn: "South Korea"}))
	snap := s.Snapshot()
	require.Len(t, snap.Search.Results, 1)
	assert.Equal(t, "KOR", snap.Search.Results[0].Code3)
}

func TestCloseRejectsOperations(t *testing.T) {
	t.Parallel()

	s, _, _, _ := newScreen(t)
	s.Close()
	s.Close()
	_, err := s.Select("JPN", "api")
	require.ErrorIs(t, err, ErrClosed)
	_, _, err = s.Click(1, 1)
	require.ErrorIs(t, err, ErrClosed)
	_, err = s.Pan(1, 1)
	require.ErrorIs(t, err, ErrClosed)
}
