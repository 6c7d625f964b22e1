package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBox_IntersectsAndContains(t *testing.T) {
	a := Box{Min: Point{0, 0, 0}, Max: Point{1, 1, 1}}
	tests := []struct {
		name string
		b    Box
		want bool
	}{
		{"overlapping", Box{Min: Point{0.5, 0.5, 0.5}, Max: Point{2, 2, 2}}, true},
		{"touching face", Box{Min: Point{1, 0, 0}, Max: Point{2, 1, 1}}, true},
		{"disjoint in z", Box{Min: Point{0, 0, 1.01}, Max: Point{1, 1, 2}}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, a.Intersects(tc.b))
			assert.Equal(t, tc.want, tc.b.Intersects(a))
		})
	}
	assert.True(t, a.Contains(Point{1, 1, 1}))
	assert.False(t, a.Contains(Point{1, 1, 1.0001}))
}

func TestBoxOf_OrdersCorners(t *testing.T) {
	b := BoxOf(Point{3, -1, 2}, Point{1, 4, -2})
	assert.Equal(t, Point{1, -1, -2}, b.Min)
	assert.Equal(t, Point{3, 4, 2}, b.Max)
	assert.InDelta(t, 2.5, b.HalfExtent(), 1e-12)
	assert.Equal(t, Point{2, 1.5, 0}, b.Center())
}

func TestPointBox_PadAndEmpty(t *testing.T) {
	b := PointBox(Point{1, 1, 1}, 0.5)
	assert.False(t, b.Empty())
	assert.True(t, b.Pad(-0.6).Empty())
	assert.InDelta(t, 3.0, Point{0, 0, 0}.Dist(Point{1, 2, 2}), 1e-12)
}
