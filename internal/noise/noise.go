// Package noise предоставляет детерминированные когерентные шумы (2D/3D/4D).
//
// Каждое поле — чистая функция координат и фиксированного сида. Независимые
// поля получаются из одного Source по имени: сид поля выводится хешированием
// "<сид>/<имя>", поэтому поля с разными именами не коррелируют даже в одних
// и тех же координатах. Октавное смешивание выполняют вызывающие компоненты.
package noise

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Field — детерминированное когерентное поле шума.
// Значения примерно в диапазоне [-1, 1], непрерывны на целочисленных границах.
type Field interface {
	Noise2D(x, y float64) float64
	Noise3D(x, y, z float64) float64
	Noise4D(x, y, z, w float64) float64
}

// Kind выбирает реализацию шума
type Kind string

const (
	KindSimplex Kind = "simplex" // OpenSimplex
	KindPerlin  Kind = "perlin"  // классический Перлин (go-perlin)
)

// ParseKind разбирает имя реализации; пустая строка означает simplex
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindSimplex:
		return KindSimplex, nil
	case KindPerlin:
		return KindPerlin, nil
	default:
		return "", fmt.Errorf("неизвестный тип шума %q", s)
	}
}

// Source порождает независимые поля шума из общего сида мира
type Source struct {
	Seed int64
	Kind Kind
}

// NewSource создаёт источник полей шума
func NewSource(seed int64, kind Kind) Source {
	if kind == "" {
		kind = KindSimplex
	}
	return Source{Seed: seed, Kind: kind}
}

// FieldSeed возвращает сид поля с указанным именем
func (s Source) FieldSeed(name string) int64 {
	return int64(xxhash.Sum64String(strconv.FormatInt(s.Seed, 10) + "/" + name))
}

// Field создаёт поле шума с указанным именем.
// Одинаковые (сид, имя, тип) всегда дают одинаковое поле.
func (s Source) Field(name string) Field {
	seed := s.FieldSeed(name)
	if s.Kind == KindPerlin {
		return newPerlinField(seed)
	}
	return newSimplexField(seed)
}

// SampleOffset сэмплирует 2D-поле со смещением обеих координат.
// Так одно поле даёт второй, декоррелированный сигнал (например, влажность
// из того же шума, что и температура).
func SampleOffset(f Field, x, z, offset float64) float64 {
	return f.Noise2D(x+offset, z+offset)
}

// fade — сглаживающая кривая 6t^5 - 15t^4 + 10t^3
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}
