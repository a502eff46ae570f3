package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPixelToPercent_RoundTrip(t *testing.T) {
	canvas := Bounds{Width: 1000, Height: 800}

	cases := []struct{ px, py float64 }{
		{0, 0},
		{100, 100},
		{333.33, 217.9},
		{900, 700},
	}
	for _, tc := range cases {
		xp, yp := PixelToPercent(tc.px, tc.py, canvas)
		px, py := PercentToPixel(xp, yp, canvas)
		assert.InDelta(t, tc.px, px, 1e-9)
		assert.InDelta(t, tc.py, py, 1e-9)
	}
}

func TestClampToCanvas_ReservesElementSize(t *testing.T) {
	canvas := Bounds{Width: 1000, Height: 1000}

	// Dragging towards (950, 950) with a 100px element clamps to 900.
	px, py := ClampToCanvas(950, 950, 100, 100, canvas)
	assert.Equal(t, 900.0, px)
	assert.Equal(t, 900.0, py)

	xp, yp := PixelToPercent(px, py, canvas)
	assert.Equal(t, 90.0, xp)
	assert.Equal(t, 90.0, yp)
}

func TestClampToCanvas_NegativePinsToOrigin(t *testing.T) {
	canvas := Bounds{Width: 1000, Height: 1000}

	px, py := ClampToCanvas(-40, -1, 100, 100, canvas)
	assert.Equal(t, 0.0, px)
	assert.Equal(t, 0.0, py)
}

func TestClampToCanvas_OversizedElement(t *testing.T) {
	canvas := Bounds{Width: 500, Height: 500}

	px, py := ClampToCanvas(100, 100, 600, 600, canvas)
	assert.Equal(t, 0.0, px)
	assert.Equal(t, 0.0, py)
}

func TestResizeFromDelta_Floor(t *testing.T) {
	w, h := ResizeFromDelta(100, 100, -80, -90)
	assert.Equal(t, MinTableSize, w)
	assert.Equal(t, MinTableSize, h)

	w, h = ResizeFromDelta(100, 80, 60, 20)
	assert.Equal(t, 160.0, w)
	assert.Equal(t, 100.0, h)
}
