package planner

import (
	"math"
	"testing"

	"github.com/AnyUserName/imgsqueeze/internal/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan_Percent(t *testing.T) {
	sizes := [][2]int{{1000, 500}, {1, 1}, {333, 777}, {1920, 1080}, {7, 3}}
	for _, sz := range sizes {
		for p := 0; p <= 100; p += 5 {
			got, err := Plan(format.JPEG, sz[0], sz[1], Percent(p))
			require.NoError(t, err)
			assert.Equal(t, int(math.Round(float64(sz[0])*float64(p)/100)), got.Width)
			assert.Equal(t, int(math.Round(float64(sz[1])*float64(p)/100)), got.Height)
		}
	}
}

func TestPlan_PercentIdentity(t *testing.T) {
	got, err := Plan(format.PNG, 1234, 567, Default())
	require.NoError(t, err)
	assert.Equal(t, Dimensions{1234, 567}, got)
}

func TestPlan_PercentClamped(t *testing.T) {
	got, err := Plan(format.JPEG, 200, 100, Percent(250))
	require.NoError(t, err)
	assert.Equal(t, Dimensions{200, 100}, got)

	got, err = Plan(format.JPEG, 200, 100, Percent(-10))
	require.NoError(t, err)
	assert.Equal(t, Dimensions{0, 0}, got)
}

func TestPlan_FixedWidthKeepsAspect(t *testing.T) {
	sizes := [][2]int{{1000, 500}, {640, 480}, {333, 777}, {4000, 3}}
	for _, sz := range sizes {
		for _, tw := range []int{1, 50, 200, 999} {
			got, err := Plan(format.WEBP, sz[0], sz[1], FixedWidth(tw))
			require.NoError(t, err)
			assert.Equal(t, tw, got.Width)
			want := float64(tw) * float64(sz[1]) / float64(sz[0])
			assert.InDelta(t, want, float64(got.Height), 0.5+1e-9)
		}
	}
}

func TestPlan_FixedHeightKeepsAspect(t *testing.T) {
	got, err := Plan(format.JPEG, 1000, 500, FixedHeight(100))
	require.NoError(t, err)
	assert.Equal(t, Dimensions{200, 100}, got)
}

func TestPlan_NonPositiveFixedFallsBack(t *testing.T) {
	for _, s := range []Scale{FixedWidth(0), FixedWidth(-4), FixedHeight(0)} {
		got, err := Plan(format.JPEG, 300, 200, s)
		require.NoError(t, err)
		assert.Equal(t, Dimensions{300, 200}, got, s.String())
	}
}

func TestPlan_ZeroDivisor(t *testing.T) {
	_, err := Plan(format.JPEG, 0, 100, FixedWidth(50))
	assert.ErrorIs(t, err, ErrInvalidDimension)

	_, err = Plan(format.JPEG, 100, 0, FixedHeight(50))
	assert.ErrorIs(t, err, ErrInvalidDimension)

	_, err = Plan(format.JPEG, -1, 10, Default())
	assert.ErrorIs(t, err, ErrInvalidDimension)
}

func TestPlan_VectorIgnoresScale(t *testing.T) {
	for _, s := range []Scale{Percent(10), FixedWidth(200), FixedHeight(3), Percent(0)} {
		got, err := Plan(format.SVG, 120, 80, s)
		require.NoError(t, err)
		assert.Equal(t, Dimensions{120, 80}, got)
	}
}

func TestParseScale(t *testing.T) {
	cases := map[string]Scale{
		"":       Default(),
		"50%":    Percent(50),
		"75":     Percent(75),
		"w:200":  FixedWidth(200),
		"H:120":  FixedHeight(120),
		" 10 % ": Percent(10),
	}
	for in, want := range cases {
		got, err := ParseScale(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseScale("w:abc")
	assert.Error(t, err)
}

func TestScaleString(t *testing.T) {
	assert.Equal(t, "50%", Percent(50).String())
	assert.Equal(t, "w:200", FixedWidth(200).String())
	assert.Equal(t, "h:10", FixedHeight(10).String())
}

func TestPlan_FixedOverflowRejected(t *testing.T) {
	// 2^62 * 1e6 overflows int; the result must not wrap to a negative side.
	got, err := Plan(format.JPEG, 1, 1000000, FixedWidth(1<<62))
	assert.ErrorIs(t, err, ErrInvalidDimension)
	assert.Equal(t, Dimensions{}, got)

	_, err = Plan(format.JPEG, 1000000, 1, FixedHeight(1<<62))
	assert.ErrorIs(t, err, ErrInvalidDimension)
}

func TestPlan_FixedAboveMaxSide(t *testing.T) {
	_, err := Plan(format.JPEG, 1000, 500, FixedWidth(2000000))
	assert.ErrorIs(t, err, ErrInvalidDimension)

	// Width fits but the derived height does not.
	_, err = Plan(format.PNG, 10, 100, FixedWidth(MaxSide))
	assert.ErrorIs(t, err, ErrInvalidDimension)

	got, err := Plan(format.PNG, 100, 10, FixedWidth(MaxSide))
	require.NoError(t, err)
	assert.Equal(t, Dimensions{MaxSide, MaxSide / 10}, got)
}
