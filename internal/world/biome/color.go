package biome

// RGB — цвет с компонентами в [0, 1]
type RGB struct {
	R, G, B float64
}

// Scale умножает все компоненты на коэффициент
func (c RGB) Scale(f float64) RGB {
	return RGB{R: c.R * f, G: c.G * f, B: c.B * f}
}

// Add складывает цвета покомпонентно
func (c RGB) Add(o RGB) RGB {
	return RGB{R: c.R + o.R, G: c.G + o.G, B: c.B + o.B}
}

// Lerp смешивает цвет с другим: t=0 — исходный, t=1 — other
func (c RGB) Lerp(o RGB, t float64) RGB {
	return RGB{
		R: c.R*(1-t) + o.R*t,
		G: c.G*(1-t) + o.G*t,
		B: c.B*(1-t) + o.B*t,
	}
}
