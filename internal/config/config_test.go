package config

import (
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("PASSMAP_DATASETS", "")
	t.Setenv("PASSMAP_DEFAULT_CENTER", "")
	t.Setenv("PASSMAP_ANIMATION_MS", "")
	t.Setenv("PASSMAP_MIN_ZOOM", "")
	t.Setenv("PASSMAP_MAX_ZOOM", "")

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultDatasets(), c.Datasets)
	assert.Equal(t, orb.Point{0, 20}, c.DefaultCenter)
	assert.Equal(t, 800*time.Millisecond, c.AnimationDuration)
	assert.Equal(t, 1.0, c.MinZoom)
	assert.Equal(t, 8.0, c.MaxZoom)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PASSMAP_DATASETS", "normal=n.json, diplomat=d.json")
	t.Setenv("PASSMAP_DEFAULT_CENTER", "105.5, 46")
	t.Setenv("PASSMAP_ANIMATION_MS", "250")
	t.Setenv("PASSMAP_MIN_ZOOM", "2")
	t.Setenv("PASSMAP_MAX_ZOOM", "1")
	t.Setenv("COUNTRY_INFO_BASE", "http://rest.local/v3.1/")
	t.Setenv("PASSMAP_FRAME_MS", "not-a-number")

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []DatasetSource{{Category: "normal", Path: "n.json"}, {Category: "diplomat", Path: "d.json"}}, c.Datasets)
	assert.Equal(t, orb.Point{105.5, 46}, c.DefaultCenter)
	assert.Equal(t, 250*time.Millisecond, c.AnimationDuration)
	assert.Equal(t, 2.0, c.MaxZoom)
	assert.Equal(t, "http://rest.local/v3.1", c.CountryInfoBase)
	assert.Equal(t, 16*time.Millisecond, c.FrameInterval)
}

func TestFromEnvErrors(t *testing.T) {
	t.Setenv("PASSMAP_DATASETS", "")
	t.Setenv("PASSMAP_DEFAULT_CENTER", "nowhere")
	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("PASSMAP_DEFAULT_CENTER", "")
	t.Setenv("PASSMAP_DATASETS", "diplomat")
	_, err = FromEnv()
	assert.Error(t, err)
}

func TestParseDatasets(t *testing.T) {
	ds, err := ParseDatasets(" diplomat=a.json ,, special=c.json")
	require.NoError(t, err)
	assert.Len(t, ds, 2)
	assert.Equal(t, "special", ds[1].Category)

	_, err = ParseDatasets(" , ")
	assert.Error(t, err)
	_, err = ParseDatasets("=x.json")
	assert.Error(t, err)
}
