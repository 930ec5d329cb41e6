package mesh

import (
	"math"

	"github.com/annel0/voxel-world/internal/noise"
)

// Параметры облаков
const (
	cloudHeight    = 100.0
	cloudThickness = 20.0
	cloudThreshold = 0.6
	cloudScale     = 0.01
	cloudFadeRange = 0.1

	// Облака анимируются ступенями: одна эпоха длится CloudEpochLength единиц времени
	CloudEpochLength = 5.0
	cloudEpochTime   = 0.75 // время шума на одну эпоху
)

type cloudNoise struct {
	base     noise.Field
	dynamic  noise.Field
	vertical noise.Field
	shape    noise.Field
}

func newCloudNoise(src noise.Source) cloudNoise {
	return cloudNoise{
		base:     src.Field("cloud/base"),
		dynamic:  src.Field("cloud/dynamic"),
		vertical: src.Field("cloud/vertical"),
		shape:    src.Field("cloud/shape"),
	}
}

// CloudEpoch возвращает текущую и следующую эпоху облаков для времени t
func CloudEpoch(t float64) (current, next int64) {
	current = int64(math.Floor(t / CloudEpochLength))
	return current, current + 1
}

// ResampleClouds пересчитывает высоты и цвета облачного буфера на месте.
// Горизонтальные позиции вершин не меняются.
func (b *Builder) ResampleClouds(buf *Buffer, t float64) {
	epoch, _ := CloudEpoch(t)
	buf.Epoch = epoch
	now := float64(epoch) * cloudEpochTime
	n := b.clouds

	for i := 0; i < buf.VertexCount(); i++ {
		pi, ci := i*3, i*4
		x := float64(buf.Positions[pi])
		z := float64(buf.Positions[pi+2])

		base := n.base.Noise3D(x*cloudScale+now*0.005, cloudHeight*0.01, z*cloudScale+now*0.0025)
		dynamic := n.dynamic.Noise4D(x*cloudScale*0.5, z*cloudScale*0.5, now*0.0075, 0) * 0.075
		shape := n.shape.Noise4D(x*cloudScale*0.3, z*cloudScale*0.3, now*0.0025, 0) * 0.1
		vertical := n.vertical.Noise4D(x*cloudScale*2, z*cloudScale*2, now*0.005, 0) * cloudThickness

		v := base + dynamic + shape
		if v <= cloudThreshold {
			buf.Positions[pi+1] = cloudHeight
			buf.Colors[ci] = 1
			buf.Colors[ci+1] = 1
			buf.Colors[ci+2] = 1
			buf.Colors[ci+3] = 0
			continue
		}

		variation := math.Min(vertical*2, cloudThickness)
		drift := math.Sin(now*0.125+x*0.01+z*0.01) * 0.5
		buf.Positions[pi+1] = float32(cloudHeight + variation + drift)

		alpha := math.Min(math.Max((v-cloudThreshold)/cloudFadeRange, 0), 1)
		brightness := float32(0.98 + (v-cloudThreshold)*0.02)
		buf.Colors[ci] = brightness
		buf.Colors[ci+1] = brightness
		buf.Colors[ci+2] = brightness
		buf.Colors[ci+3] = float32(alpha * 0.8)
	}
}
