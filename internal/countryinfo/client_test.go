package countryinfo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const japan = `[{
  "name": {"common": "Japan", "official": "Japan"},
  "capital": ["Tokyo"],
  "region": "Asia",
  "subregion": "Eastern Asia",
  "population": 125836021,
  "area": 377930,
  "languages": {"jpn": "Japanese"},
  "currencies": {"JPY": {"name": "Japanese yen", "symbol": "¥"}},
  "timezones": ["UTC+09:00"],
  "maps": {"googleMaps": "https://goo.gl/maps/NGTLSCSrA8bMrvnX9"},
  "coatOfArms": {"png": "https://mainfacts.com/media/images/coats_of_arms/jp.png", "svg": "https://mainfacts.com/media/images/coats_of_arms/jp.svg"}
}]`

func TestParse(t *testing.T) {
	t.Parallel()

	f, err := Parse("JPN", []byte(japan))
	require.NoError(t, err)
	assert.Equal(t, "Japan", f.Name)
	assert.Equal(t, "Tokyo", f.Capital)
	assert.Equal(t, "Asia", f.Region)
	assert.Equal(t, "Eastern Asia", f.Subregion)
	assert.Equal(t, int64(125836021), f.Population)
	assert.Equal(t, 377930.0, f.Area)
	assert.Equal(t, "Japanese", f.Languages)
	assert.Equal(t, "Japanese yen", f.Currencies)
	assert.Equal(t, []string{"UTC+09:00"}, f.Timezones)
	assert.Equal(t, "https://mainfacts.com/media/images/coats_of_arms/jp.svg", f.CoatOfArms)

	obj, err := Parse("CHE", []byte(`{"name":{"common":"Switzerland"},"languages":{"fra":"French","gsw":"Swiss German","ita":"Italian","roh":"Romansh"},
	  "currencies":{"CHF":{"name":"Swiss franc"}},"coatOfArms":{"png":"x.png"}}`))
	require.NoError(t, err)
	assert.Equal(t, "French, Swiss German, Italian, Romansh", obj.Languages)
	assert.Equal(t, "x.png", obj.CoatOfArms)
	assert.Equal(t, "", obj.Capital)

	_, err = Parse("X", []byte(`[]`))
	require.Error(t, err)
	_, err = Parse("X", []byte(`nope`))
	require.Error(t, err)
}

func TestFetchUsesCache(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/alpha/JPN", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("fields"), "coatOfArms")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(japan))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second, 0, NewMemoryCache(8, time.Minute))
	f, err := c.Fetch(context.Background(), "jpn")
	require.NoError(t, err)
	assert.Equal(t, "JPN", f.Code3)
	assert.Equal(t, "Tokyo", f.Capital)

	f2, err := c.Fetch(context.Background(), "JPN")
	require.NoError(t, err)
	assert.Equal(t, f, f2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetchStatusError(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path == "/alpha/XXX" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, 1, nil)
	_, err := c.Fetch(context.Background(), "XXX")
	require.EqualError(t, err, "REST Countries 404")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	_, err = c.Fetch(context.Background(), "ZZZ")
	require.EqualError(t, err, "REST Countries 503")
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))

	_, err = c.Fetch(context.Background(), " ")
	require.ErrorIs(t, err, ErrEmptyCode)
}

func TestFetchCancelled(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, 5*time.Second, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.Fetch(ctx, "JPN")
	require.Error(t, err)
}

func TestTieredCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	local := NewMemoryCache(2, time.Minute)
	remote := NewMemoryCache(2, time.Minute)
	tc := Tiered{Local: local, Remote: remote}

	_, ok := tc.Get(ctx, "JPN")
	assert.False(t, ok)

	remote.Set(ctx, "JPN", Facts{Code3: "JPN", Name: "Japan"})
	f, ok := tc.Get(ctx, "JPN")
	require.True(t, ok)
	assert.Equal(t, "Japan", f.Name)

	// backfilled
	f, ok = local.Get(ctx, "JPN")
	require.True(t, ok)
	assert.Equal(t, "Japan", f.Name)

	tc.Set(ctx, "FRA", Facts{Code3: "FRA"})
	_, ok = remote.Get(ctx, "FRA")
	assert.True(t, ok)
}
