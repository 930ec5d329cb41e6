package noise

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePoints() [][2]float64 {
	pts := make([][2]float64, 0, 400)
	for i := 0; i < 20; i++ {
		for j := 0; j < 20; j++ {
			pts = append(pts, [2]float64{float64(i)*0.37 + 0.13, float64(j)*0.41 - 3.07})
		}
	}
	return pts
}

func TestField_Deterministic(t *testing.T) {
	for _, kind := range []Kind{KindSimplex, KindPerlin} {
		t.Run(string(kind), func(t *testing.T) {
			a := NewSource(42, kind).Field("terrain")
			b := NewSource(42, kind).Field("terrain")
			for _, p := range samplePoints() {
				assert.Equal(t, a.Noise2D(p[0], p[1]), b.Noise2D(p[0], p[1]))
				assert.Equal(t, a.Noise3D(p[0], 1.5, p[1]), b.Noise3D(p[0], 1.5, p[1]))
				assert.Equal(t, a.Noise4D(p[0], p[1], 0.25, 0), b.Noise4D(p[0], p[1], 0.25, 0))
			}
		})
	}
}

func TestField_IndependentByName(t *testing.T) {
	for _, kind := range []Kind{KindSimplex, KindPerlin} {
		t.Run(string(kind), func(t *testing.T) {
			src := NewSource(7, kind)
			a := src.Field("desert/terrain")
			b := src.Field("grassland/terrain")

			var diff float64
			for _, p := range samplePoints() {
				diff += math.Abs(a.Noise2D(p[0], p[1]) - b.Noise2D(p[0], p[1]))
			}
			assert.Greater(t, diff, 1.0, "поля с разными именами не должны совпадать")
		})
	}
}

func TestField_Range(t *testing.T) {
	for _, kind := range []Kind{KindSimplex, KindPerlin} {
		f := NewSource(1, kind).Field("range")
		for _, p := range samplePoints() {
			v := f.Noise2D(p[0]*3, p[1]*3)
			assert.LessOrEqual(t, math.Abs(v), 1.5, "значение шума %s вне диапазона: %f", kind, v)
			v = f.Noise4D(p[0], p[1], p[0]*0.5, p[1]*0.25)
			assert.LessOrEqual(t, math.Abs(v), 1.5)
		}
	}
}

func TestPerlinNoise4D_ContinuousAcrossSlices(t *testing.T) {
	f := NewSource(99, KindPerlin).Field("clouds")
	for _, w := range []float64{1, 2, -3} {
		before := f.Noise4D(0.3, 0.7, 1.1, w-1e-7)
		after := f.Noise4D(0.3, 0.7, 1.1, w+1e-7)
		assert.InDelta(t, before, after, 1e-4, "разрыв 4D-шума на границе w=%v", w)
	}
}

func TestSampleOffset(t *testing.T) {
	f := NewSource(3, KindSimplex).Field("biome")
	assert.Equal(t, f.Noise2D(1000.5, 1001.25), SampleOffset(f, 0.5, 1.25, 1000))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindSimplex, k)

	k, err = ParseKind("perlin")
	require.NoError(t, err)
	assert.Equal(t, KindPerlin, k)

	_, err = ParseKind("value")
	assert.Error(t, err)
}
