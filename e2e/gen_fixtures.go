//go:build ignore

// gen_fixtures writes a small image tree for a manual smoke test of
// "imgsqueeze build".
// Usage: go run gen_fixtures.go <output_dir>
package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/chai2010/webp"
	"golang.org/x/image/bmp"
)

const logo = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<!DOCTYPE svg PUBLIC "-//W3C//DTD SVG 1.1//EN" "http://www.w3.org/Graphics/SVG/1.1/DTD/svg11.dtd">
<!-- Created with a vector editor -->
<svg xmlns="http://www.w3.org/2000/svg" width="240" height="120" viewBox="0 0 240 120">
  <metadata>
    <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"/>
  </metadata>
  <rect x="10" y="10" width="100" height="100" rx="12" fill="#1e88e5"/>
  <circle cx="180" cy="60" r="45" fill="#fdd835"/>
</svg>
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	must(os.MkdirAll(filepath.Join(dir, "cards"), 0o755))

	// Photo-like banner, high quality so recompression shrinks it.
	write(filepath.Join(dir, "banner.jpg"), encodeJPEG(gradient(1000, 500), 95))

	// Flat-colour cards compress well to a small palette.
	for i := 1; i <= 3; i++ {
		name := fmt.Sprintf("card-%d.png", i)
		write(filepath.Join(dir, "cards", name), encodePNG(solidWithBorder(200, 150, uint8(i*60))))
	}

	write(filepath.Join(dir, "hero.webp"), encodeWEBP(gradient(640, 360)))
	write(filepath.Join(dir, "logo.svg"), []byte(logo))

	// BMP content behind a .png name is sniffed and reported as unsupported.
	var buf bytes.Buffer
	must(bmp.Encode(&buf, gradient(32, 32)))
	write(filepath.Join(dir, "mislabelled.png"), buf.Bytes())

	fmt.Fprintf(os.Stderr, "[gen_fixtures] created 7 fixtures in %s\n", dir)
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: uint8((x ^ y) & 0xff),
				A: 255,
			})
		}
	}
	return img
}

func solidWithBorder(w, h int, base uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: base, G: base + 40, B: base + 80, A: 255}
			if x < 4 || x >= w-4 || y < 4 || y >= h-4 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodeJPEG(img image.Image, q int) []byte {
	var buf bytes.Buffer
	must(jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}))
	return buf.Bytes()
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	must(png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeWEBP(img image.Image) []byte {
	var buf bytes.Buffer
	must(webp.Encode(&buf, img, &webp.Options{Quality: 95}))
	return buf.Bytes()
}

func write(path string, data []byte) {
	must(os.WriteFile(path, data, 0o644))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
