// Package preview renders the chart layout of each generated atlas to an image.
package preview

import (
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"go.uber.org/multierr"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/Faultbox/uvatlas/internal/atlas"
	"github.com/Faultbox/uvatlas/internal/layout"
)

// DefaultMaxSize bounds the longest image side when Options.MaxSize is 0.
const DefaultMaxSize = 2048

// ErrUnsupportedFormat is returned for an unknown image extension.
var ErrUnsupportedFormat = errors.New("unsupported preview format")

var (
	background = color.NRGBA{R: 24, G: 24, B: 28, A: 255}
	labelColor = color.NRGBA{R: 235, G: 235, B: 235, A: 255}
	labelBack  = color.NRGBA{R: 0, G: 0, B: 0, A: 160}
)

// Options controls preview rendering.
type Options struct {
	MaxSize int             // longest side in pixels, 0 means DefaultMaxSize
	Layout  layout.Strategy // UDIM names files by tile number
}

type encoder func(w io.Writer, img image.Image) error

var encoders = map[string]encoder{
	".png":  png.Encode,
	".webp": func(w io.Writer, img image.Image) error { return nativewebp.Encode(w, img, nil) },
	".tga":  tga.Encode,
}

// Write renders every atlas in res and encodes it by the extension of path.
// A single atlas is written to path; several atlases get an index suffix
// (name_1.png) or, with the UDIM layout, a tile number (name.1002.png).
// Returns the written paths.
func Write(path string, res *atlas.Result, opts Options) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	enc, ok := encoders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	var written []string
	for i := 0; i < res.AtlasCount; i++ {
		img := Render(res, int32(i), opts)
		out := atlasPath(path, i, res.AtlasCount, opts.Layout)
		if err := writeFile(out, img, enc); err != nil {
			return written, fmt.Errorf("writing preview %s: %w", out, err)
		}
		written = append(written, out)
	}
	return written, nil
}

// Render draws the charts packed into one atlas.
func Render(res *atlas.Result, atlasIndex int32, opts Options) *image.NRGBA {
	maxSize := opts.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	w, h := fitSize(res.Width, res.Height, maxSize)

	// Large atlases are drawn at twice the output size and filtered down.
	rw, rh := w, h
	if w < res.Width || h < res.Height {
		rw, rh = min(w*2, res.Width), min(h*2, res.Height)
	}

	img := image.NewNRGBA(image.Rect(0, 0, rw, rh))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	drawCharts(img, res, atlasIndex, float32(rw)/float32(res.Width), float32(rh)/float32(res.Height))

	if rw != w || rh != h {
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		img = dst
	}

	label := "atlas " + strconv.Itoa(int(atlasIndex))
	if opts.Layout == layout.UDIM {
		label += " (" + strconv.Itoa(layout.Tile(atlasIndex)) + ")"
	}
	drawLabel(img, label)
	return img
}

// fitSize scales width x height so the longest side is at most maxSize.
func fitSize(width, height, maxSize int) (int, int) {
	width, height = max(width, 1), max(height, 1)
	longest := max(width, height)
	if longest <= maxSize {
		return width, height
	}
	s := float64(maxSize) / float64(longest)
	return max(int(math.Round(float64(width)*s)), 1), max(int(math.Round(float64(height)*s)), 1)
}

type chartKey struct {
	mesh  int
	chart int32
}

// drawCharts fills the triangles of every chart in the atlas, one color per chart.
func drawCharts(img *image.NRGBA, res *atlas.Result, atlasIndex int32, sx, sy float32) {
	charts := make(map[chartKey][][3][2]float32)
	var order []chartKey

	for mi := range res.Meshes {
		m := &res.Meshes[mi]
		for f := 0; f+2 < len(m.Indices); f += 3 {
			v0 := m.Vertices[m.Indices[f]]
			if v0.AtlasIndex != atlasIndex {
				continue
			}
			var tri [3][2]float32
			for k := 0; k < 3; k++ {
				v := m.Vertices[m.Indices[f+k]]
				tri[k] = [2]float32{v.UV[0] * sx, v.UV[1] * sy}
			}
			key := chartKey{mesh: mi, chart: v0.ChartIndex}
			if _, ok := charts[key]; !ok {
				order = append(order, key)
			}
			charts[key] = append(charts[key], tri)
		}
	}

	var z vector.Rasterizer
	bounds := img.Bounds()
	for _, key := range order {
		tris := charts[key]
		r := triangleBounds(tris).Intersect(bounds)
		if r.Empty() {
			continue
		}
		z.Reset(r.Dx(), r.Dy())
		ox, oy := float32(r.Min.X), float32(r.Min.Y)
		for _, t := range tris {
			z.MoveTo(t[0][0]-ox, t[0][1]-oy)
			z.LineTo(t[1][0]-ox, t[1][1]-oy)
			z.LineTo(t[2][0]-ox, t[2][1]-oy)
			z.ClosePath()
		}
		z.Draw(img, r, image.NewUniform(chartColor(key)), image.Point{})
	}
}

func triangleBounds(tris [][3][2]float32) image.Rectangle {
	minX, minY := float32(math.MaxFloat32), float32(math.MaxFloat32)
	maxX, maxY := float32(-math.MaxFloat32), float32(-math.MaxFloat32)
	for _, t := range tris {
		for _, p := range t {
			minX, maxX = min(minX, p[0]), max(maxX, p[0])
			minY, maxY = min(minY, p[1]), max(maxY, p[1])
		}
	}
	return image.Rect(
		int(math.Floor(float64(minX))), int(math.Floor(float64(minY))),
		int(math.Ceil(float64(maxX))), int(math.Ceil(float64(maxY))),
	)
}

// chartColor derives a stable, saturated color from the chart identity.
func chartColor(key chartKey) color.NRGBA {
	h := fnv.New32a()
	fmt.Fprintf(h, "%d/%d", key.mesh, key.chart)
	sum := h.Sum32()

	hue := float64(sum%360) / 60
	x := 1 - math.Abs(math.Mod(hue, 2)-1)
	var r, g, b float64
	switch int(hue) {
	case 0:
		r, g = 1, x
	case 1:
		r, g = x, 1
	case 2:
		g, b = 1, x
	case 3:
		g, b = x, 1
	case 4:
		r, b = x, 1
	default:
		r, b = 1, x
	}
	const lo, span = 70, 160
	return color.NRGBA{R: uint8(lo + r*span), G: uint8(lo + g*span), B: uint8(lo + b*span), A: 255}
}

func drawLabel(img *image.NRGBA, text string) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: face,
		Dot:  fixed.P(4, 4+face.Ascent),
	}
	box := image.Rect(2, 2, 6+d.MeasureString(text).Ceil(), 6+face.Height)
	draw.Draw(img, box.Intersect(img.Bounds()), image.NewUniform(labelBack), image.Point{}, draw.Over)
	d.DrawString(text)
}

func atlasPath(path string, index, count int, strategy layout.Strategy) string {
	if count <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	if strategy == layout.UDIM {
		return base + "." + strconv.Itoa(layout.Tile(int32(index))) + ext
	}
	return base + "_" + strconv.Itoa(index) + ext
}

func writeFile(path string, img image.Image, enc encoder) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	return enc(f, img)
}
