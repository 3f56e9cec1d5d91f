package aspect

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(DefaultAllowed, Portrait9x16)
	require.NoError(t, err)
	return r
}

func TestResolve_Deterministic(t *testing.T) {
	r := newResolver(t)

	got, err := r.Resolve("a", 1080, 1920)
	require.NoError(t, err)
	assert.Equal(t, Portrait9x16, got)

	again, err := r.Resolve("a", 1920, 1080)
	require.NoError(t, err)
	assert.Equal(t, Portrait9x16, again, "cached ratio must not flicker")
}

func TestResolve_SnapsToNearest(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
		want   Ratio
	}{
		{name: "full hd landscape", width: 1920, height: 1080, want: Landscape16x9},
		{name: "portrait", width: 720, height: 1280, want: Portrait9x16},
		{name: "vga", width: 640, height: 480, want: Classic4x3},
		{name: "square snaps to 4:3", width: 1000, height: 1000, want: Classic4x3},
		{name: "ultra tall", width: 100, height: 1000, want: Portrait9x16},
		{name: "ultra wide", width: 3000, height: 1000, want: Landscape16x9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newResolver(t)
			got, err := r.Resolve("id", tt.width, tt.height)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNearest_TieGoesToFirst(t *testing.T) {
	a := Ratio{Name: "1:1", Value: 1}
	b := Ratio{Name: "3:1", Value: 3}
	assert.Equal(t, a, Nearest([]Ratio{a, b}, 2))
	assert.Equal(t, b, Nearest([]Ratio{b, a}, 2))
}

func TestResolve_InvalidMetadataNotCached(t *testing.T) {
	r := newResolver(t)

	for _, dims := range [][2]int{{0, 1080}, {1920, 0}, {-5, 10}, {10, -5}} {
		got, err := r.Resolve("a", dims[0], dims[1])
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidMediaMetadata))
		assert.Equal(t, Portrait9x16, got)
	}
	_, ok := r.Lookup("a")
	assert.False(t, ok)

	got, err := r.Resolve("a", 1920, 1080)
	require.NoError(t, err)
	assert.Equal(t, Landscape16x9, got)
	assert.Equal(t, Landscape16x9, r.Get("a"))
}

func TestGet_FallbackAndForget(t *testing.T) {
	r := newResolver(t)
	assert.Equal(t, Portrait9x16, r.Get("unknown"))

	_, err := r.Resolve("a", 1920, 1080)
	require.NoError(t, err)
	r.Forget("a")
	assert.Equal(t, r.Fallback(), r.Get("a"))
}

func TestNewResolver_RequiresRatios(t *testing.T) {
	_, err := NewResolver(nil, Portrait9x16)
	assert.ErrorIs(t, err, ErrNoRatios)
}

func TestParseRatio(t *testing.T) {
	r, err := ParseRatio("16:9")
	require.NoError(t, err)
	assert.Equal(t, "16:9", r.Name)
	assert.InDelta(t, 16.0/9.0, r.Value, 1e-9)

	r, err = ParseRatio(" 4/3 ")
	require.NoError(t, err)
	assert.Equal(t, "4:3", r.Name)

	for _, bad := range []string{"", "16", ":9", "16:", "a:b", "0:9", "16:-9"} {
		_, err := ParseRatio(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseRatios_PreservesOrder(t *testing.T) {
	rs, err := ParseRatios([]string{"9:16", "16:9"})
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "9:16", rs[0].Name)
	assert.Equal(t, "16:9", rs[1].Name)

	_, err = ParseRatios([]string{"9:16", "nope"})
	assert.Error(t, err)
}
