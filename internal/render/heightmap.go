package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/annel0/voxel-world/internal/world/terrain"
	"github.com/disintegration/imaging"
)

// MapMode определяет, что рисует карта
type MapMode string

const (
	ModeHeight MapMode = "height" // оттенки серого по высоте, вода синим
	ModeBiome  MapMode = "biome"  // цвет доминирующего биома
	ModeColor  MapMode = "color"  // смешанный цвет с затенением под водой
)

// ParseMapMode разбирает режим карты
func ParseMapMode(s string) (MapMode, error) {
	switch MapMode(s) {
	case ModeHeight, ModeBiome, ModeColor:
		return MapMode(s), nil
	default:
		return "", fmt.Errorf("неизвестный режим карты %q", s)
	}
}

// MapOptions задаёт область карты
type MapOptions struct {
	CenterX float64
	CenterZ float64
	Size    int     // сторона в пикселях
	Scale   float64 // мировых единиц на пиксель
	Mode    MapMode
	Upscale int // итоговый размер после увеличения; 0 — без увеличения
}

// Heightmap рисует карту поля сверху. Ось X направлена вправо, Z — вниз.
func Heightmap(field *terrain.Field, opts MapOptions) (*image.NRGBA, error) {
	if opts.Size <= 0 || opts.Scale <= 0 {
		return nil, fmt.Errorf("некорректный размер карты (%d px, %v ед/px)", opts.Size, opts.Scale)
	}
	if opts.Mode == "" {
		opts.Mode = ModeHeight
	}

	img := imaging.New(opts.Size, opts.Size, color.NRGBA{A: 255})
	half := float64(opts.Size) / 2
	water := field.WaterLevel()

	for py := 0; py < opts.Size; py++ {
		for px := 0; px < opts.Size; px++ {
			x := opts.CenterX + (float64(px)-half)*opts.Scale
			z := opts.CenterZ + (float64(py)-half)*opts.Scale

			var c color.NRGBA
			switch opts.Mode {
			case ModeBiome:
				rgb := field.Biomes().Get(field.BiomeKind(x, z)).Color
				c = toNRGBA(rgb.R, rgb.G, rgb.B)
			case ModeColor:
				rgb := field.Shade(x, z, 0)
				c = toNRGBA(rgb.R, rgb.G, rgb.B)
			default:
				h := float64(field.Height(x, z))
				v := mathClamp(h/64, 0, 1)
				if h < water {
					depth := mathClamp((water-h)/10, 0, 1)
					c = toNRGBA(0.1, 0.25, 0.9-0.5*depth)
				} else {
					c = toNRGBA(v, v, v)
				}
			}
			img.SetNRGBA(px, py, c)
		}
	}

	if opts.Upscale > opts.Size {
		img = imaging.Resize(img, opts.Upscale, opts.Upscale, imaging.NearestNeighbor)
	}
	return img, nil
}

// Save сохраняет карту; формат определяется по расширению
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("ошибка сохранения карты %s: %w", path, err)
	}
	return nil
}

func toNRGBA(r, g, b float64) color.NRGBA {
	return color.NRGBA{
		R: uint8(math.Round(mathClamp(r, 0, 1) * 255)),
		G: uint8(math.Round(mathClamp(g, 0, 1) * 255)),
		B: uint8(math.Round(mathClamp(b, 0, 1) * 255)),
		A: 255,
	}
}

func mathClamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
