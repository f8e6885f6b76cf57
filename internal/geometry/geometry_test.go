package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticDisplays(rects ...Rect) DisplayLister {
	return DisplayListerFunc(func() []Rect { return rects })
}

func TestComputePosition_SingleDisplay(t *testing.T) {
	r := NewResolver(staticDisplays(Rect{0, 0, 1920, 1080}), nil)

	pos, err := r.ComputePosition(Point{100, 100}, Size{750, 525})
	require.NoError(t, err)
	assert.Equal(t, Point{585, 277}, pos)
}

func TestComputePosition_NoDisplay(t *testing.T) {
	r := NewResolver(staticDisplays(), nil)

	_, err := r.ComputePosition(Point{0, 0}, Size{750, 475})
	assert.ErrorIs(t, err, ErrNoDisplay)
}

func TestNearest(t *testing.T) {
	left := Rect{-1280, 0, 1280, 1024}
	primary := Rect{0, 0, 1920, 1080}
	above := Rect{0, -1440, 2560, 1440}
	r := NewResolver(staticDisplays(primary, left, above), nil)

	tests := []struct {
		name    string
		pointer Point
		want    Rect
	}{
		{"on primary", Point{10, 10}, primary},
		{"on left", Point{-5, 500}, left},
		{"on above", Point{2000, -1}, above},
		{"below everything", Point{100, 5000}, primary},
		{"far left", Point{-9000, 200}, left},
		{"right edge of primary is exclusive", Point{1920, 10}, primary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Nearest(tt.pointer)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputePosition_WindowInsideNearestDisplay(t *testing.T) {
	arrangements := map[string][]Rect{
		"single": {{0, 0, 1920, 1080}},
		"side by side": {
			{0, 0, 1920, 1080},
			{1920, 0, 2560, 1440},
		},
		"negative origin": {
			{0, 0, 1366, 768},
			{-1920, -200, 1920, 1080},
		},
		"stacked": {
			{0, 0, 3840, 2160},
			{800, 2160, 1280, 800},
		},
	}
	size := Size{750, 475}

	for name, displays := range arrangements {
		t.Run(name, func(t *testing.T) {
			r := NewResolver(staticDisplays(displays...), nil)
			for _, d := range displays {
				pointers := []Point{
					{d.X, d.Y},
					{d.X + d.Width - 1, d.Y + d.Height - 1},
					{d.X + d.Width/3, d.Y + d.Height/2},
				}
				for _, p := range pointers {
					pos, err := r.ComputePosition(p, size)
					require.NoError(t, err)

					window := Rect{pos.X, pos.Y, size.Width, size.Height}
					assert.True(t, d.ContainsRect(window),
						"window %v not inside display %v for pointer %v", window, d, p)
				}
			}
		})
	}
}

func TestCenter_OversizedWindowPinnedToOrigin(t *testing.T) {
	pos := Center(Rect{100, 50, 640, 480}, Size{800, 400})
	assert.Equal(t, Point{100, 90}, pos)
}

func TestResolver_RequeriesDisplays(t *testing.T) {
	displays := []Rect{{0, 0, 1920, 1080}}
	r := NewResolver(DisplayListerFunc(func() []Rect { return displays }), nil)

	first, err := r.ComputePosition(Point{10, 10}, Size{750, 475})
	require.NoError(t, err)

	// Simulate a hot-plugged monitor replacing the old one.
	displays = []Rect{{0, 0, 2560, 1440}}
	second, err := r.ComputePosition(Point{10, 10}, Size{750, 475})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, Point{905, 482}, second)
}

func TestPrimary(t *testing.T) {
	r := NewResolver(staticDisplays(Rect{0, 0, 1920, 1080}, Rect{1920, 0, 1280, 1024}), nil)
	d, err := r.Primary()
	require.NoError(t, err)
	assert.Equal(t, Rect{0, 0, 1920, 1080}, d)

	_, err = NewResolver(staticDisplays(), nil).Primary()
	assert.ErrorIs(t, err, ErrNoDisplay)
}
