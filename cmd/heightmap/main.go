package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/annel0/voxel-world/internal/noise"
	"github.com/annel0/voxel-world/internal/render"
	"github.com/annel0/voxel-world/internal/world/terrain"
	"github.com/fatih/color"
)

func main() {
	var (
		seed    = flag.Int64("seed", 1337, "World seed")
		kind    = flag.String("noise", "simplex", "Noise backend: simplex, perlin")
		mode    = flag.String("mode", "height", "Map mode: height, biome, color")
		centerX = flag.Float64("x", 0, "Map center X")
		centerZ = flag.Float64("z", 0, "Map center Z")
		size    = flag.Int("size", 256, "Map side in pixels")
		scale   = flag.Float64("scale", 2, "World units per pixel")
		upscale = flag.Int("upscale", 0, "Resize output to this side (nearest neighbor)")
		out     = flag.String("out", "heightmap.png", "Output file (.png, .jpg, .gif, .bmp, .tif)")
	)
	flag.Parse()

	fail := color.New(color.FgRed, color.Bold)
	ok := color.New(color.FgGreen)
	info := color.New(color.FgCyan)

	noiseKind, err := noise.ParseKind(*kind)
	if err != nil {
		fail.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(2)
	}
	mapMode, err := render.ParseMapMode(*mode)
	if err != nil {
		fail.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(2)
	}

	field := terrain.NewField(noise.NewSource(*seed, noiseKind))

	info.Printf("🗺  seed=%d noise=%s mode=%s center=(%.0f, %.0f) %dpx × %.2f ед/px\n",
		*seed, noiseKind, mapMode, *centerX, *centerZ, *size, *scale)

	started := time.Now()
	img, err := render.Heightmap(field, render.MapOptions{
		CenterX: *centerX,
		CenterZ: *centerZ,
		Size:    *size,
		Scale:   *scale,
		Mode:    mapMode,
		Upscale: *upscale,
	})
	if err != nil {
		fail.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	if err := render.Save(img, *out); err != nil {
		fail.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	stats := field.Stats()
	ok.Printf("✅ %s сохранена за %s\n", *out, time.Since(started).Round(time.Millisecond))
	fmt.Printf("   биом в центре: %s, высота %d, записей в кэше: %d\n",
		field.Biome(*centerX, *centerZ), field.Height(*centerX, *centerZ), stats.Entries())
}
