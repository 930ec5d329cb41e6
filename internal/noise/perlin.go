package noise

import (
	"math"

	"github.com/aquilax/go-perlin"
)

// Параметры генератора Перлина
const (
	perlinAlpha   = 2.0 // Сглаживание шума
	perlinBeta    = 2.0 // Частота шума
	perlinOctaves = 3   // Количество октав

	// Смещение между соседними 3D-срезами при построении 4D-шума
	perlinSliceOffset = 131.7
)

// perlinField — поле на основе go-perlin.
// go-perlin не умеет 4D, поэтому четвёртое измерение строится как плавная
// интерполяция двух декоррелированных 3D-срезов в floor(w) и floor(w)+1.
type perlinField struct {
	p *perlin.Perlin
}

func newPerlinField(seed int64) *perlinField {
	return &perlinField{p: perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, seed)}
}

func (f *perlinField) Noise2D(x, y float64) float64 {
	return f.p.Noise2D(x, y)
}

func (f *perlinField) Noise3D(x, y, z float64) float64 {
	return f.p.Noise3D(x, y, z)
}

func (f *perlinField) Noise4D(x, y, z, w float64) float64 {
	w0 := math.Floor(w)
	t := fade(w - w0)
	a := f.p.Noise3D(x+w0*perlinSliceOffset, y, z)
	b := f.p.Noise3D(x+(w0+1)*perlinSliceOffset, y, z)
	return lerp(a, b, t)
}
