package noise

import "github.com/ojrac/opensimplex-go"

// simplexField — поле на основе OpenSimplex
type simplexField struct {
	n opensimplex.Noise
}

func newSimplexField(seed int64) *simplexField {
	return &simplexField{n: opensimplex.New(seed)}
}

func (f *simplexField) Noise2D(x, y float64) float64 {
	return f.n.Eval2(x, y)
}

func (f *simplexField) Noise3D(x, y, z float64) float64 {
	return f.n.Eval3(x, y, z)
}

func (f *simplexField) Noise4D(x, y, z, w float64) float64 {
	return f.n.Eval4(x, y, z, w)
}
