package similarity

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Reference is the grayscale image frames are compared against. Resized
// copies are cached per frame size.
type Reference struct {
	Path string

	src    *image.Gray
	mu     sync.Mutex
	fitted map[image.Point]*image.Gray
}

// LoadReference decodes PNG, JPEG, GIF, BMP or WebP.
func LoadReference(path string) (*Reference, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode reference %s: %w", path, err)
	}
	ref := NewReference(img)
	ref.Path = path
	return ref, nil
}

func NewReference(img image.Image) *Reference {
	return &Reference{src: ToGray(img), fitted: map[image.Point]*image.Gray{}}
}

func (r *Reference) Size() image.Point { return r.src.Bounds().Size() }

// Fit returns the reference scaled to size, anchored at the origin.
func (r *Reference) Fit(size image.Point) *image.Gray {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.fitted[size]; ok {
		return g
	}
	var g *image.Gray
	if r.src.Bounds().Size() == size && r.src.Bounds().Min == (image.Point{}) {
		g = r.src
	} else {
		g = image.NewGray(image.Rectangle{Max: size})
		draw.ApproxBiLinear.Scale(g, g.Bounds(), r.src, r.src.Bounds(), draw.Src, nil)
	}
	r.fitted[size] = g
	return g
}

// ToGray converts any image to an origin-anchored 8-bit grayscale copy.
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok && b.Min == (image.Point{}) {
		return g
	}
	g := image.NewGray(image.Rectangle{Max: b.Size()})
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}
