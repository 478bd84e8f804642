package similarity

import (
	"context"
	"fmt"
	"image"
	"math"

	"golang.org/x/sync/errgroup"
)

// SSIM window and constants for 8-bit data.
const (
	ssimWin = 7
	ssimK1  = 0.01
	ssimK2  = 0.03
	ssimL   = 255.0
)

// SSIM returns the mean structural similarity of a and b over 7x7 uniform
// windows with sample covariance. Both images must have the same size.
func SSIM(a, b *image.Gray) (float64, error) {
	size, err := sameSize(a, b)
	if err != nil {
		return 0, err
	}
	w, h := size.X, size.Y
	if w < ssimWin || h < ssimWin {
		return 0, fmt.Errorf("ssim: image %dx%d is smaller than the %dx%d window", w, h, ssimWin, ssimWin)
	}

	ia := newIntegrals(a, b, w, h)

	const np = ssimWin * ssimWin
	covNorm := float64(np) / float64(np-1)
	c1 := (ssimK1 * ssimL) * (ssimK1 * ssimL)
	c2 := (ssimK2 * ssimL) * (ssimK2 * ssimL)

	var total float64
	var count int
	for y := 0; y+ssimWin <= h; y++ {
		for x := 0; x+ssimWin <= w; x++ {
			sx, sy, sxx, syy, sxy := ia.window(x, y, ssimWin)
			ux := sx / np
			uy := sy / np
			vx := covNorm * (sxx/np - ux*ux)
			vy := covNorm * (syy/np - uy*uy)
			vxy := covNorm * (sxy/np - ux*uy)

			num := (2*ux*uy + c1) * (2*vxy + c2)
			den := (ux*ux + uy*uy + c1) * (vx + vy + c2)
			total += num / den
			count++
		}
	}
	return total / float64(count), nil
}

// integrals holds summed-area tables of x, y, x², y² and xy.
type integrals struct {
	stride            int
	x, y, xx, yy, xy []int64
}

func newIntegrals(a, b *image.Gray, w, h int) *integrals {
	n := (w + 1) * (h + 1)
	it := &integrals{
		stride: w + 1,
		x:      make([]int64, n),
		y:      make([]int64, n),
		xx:     make([]int64, n),
		yy:     make([]int64, n),
		xy:     make([]int64, n),
	}
	for j := 0; j < h; j++ {
		ra, rb := row(a, j, w), row(b, j, w)
		var rx, ry, rxx, ryy, rxy int64
		for i := 0; i < w; i++ {
			pa, pb := int64(ra[i]), int64(rb[i])
			rx += pa
			ry += pb
			rxx += pa * pa
			ryy += pb * pb
			rxy += pa * pb

			cur := (j+1)*it.stride + i + 1
			up := j*it.stride + i + 1
			it.x[cur] = it.x[up] + rx
			it.y[cur] = it.y[up] + ry
			it.xx[cur] = it.xx[up] + rxx
			it.yy[cur] = it.yy[up] + ryy
			it.xy[cur] = it.xy[up] + rxy
		}
	}
	return it
}

func (it *integrals) window(x, y, k int) (sx, sy, sxx, syy, sxy float64) {
	a := y*it.stride + x
	b := y*it.stride + x + k
	c := (y+k)*it.stride + x
	d := (y+k)*it.stride + x + k
	sum := func(t []int64) float64 { return float64(t[d] - t[b] - t[c] + t[a]) }
	return sum(it.x), sum(it.y), sum(it.xx), sum(it.yy), sum(it.xy)
}

// moments are the raw sums needed for a zero-mean correlation.
type moments struct {
	n, t, i, tt, ii, ti int64
}

func (m *moments) add(o moments) {
	m.n += o.n
	m.t += o.t
	m.i += o.i
	m.tt += o.tt
	m.ii += o.ii
	m.ti += o.ti
}

func bandMoments(tpl, img *image.Gray, w, y0, y1 int) moments {
	var m moments
	for y := y0; y < y1; y++ {
		rt, ri := row(tpl, y, w), row(img, y, w)
		for x := 0; x < w; x++ {
			pt, pi := int64(rt[x]), int64(ri[x])
			m.t += pt
			m.i += pi
			m.tt += pt * pt
			m.ii += pi * pi
			m.ti += pt * pi
		}
		m.n += int64(w)
	}
	return m
}

// coefficient is the TM_CCOEFF_NORMED score for one placement.
func (m moments) coefficient() float64 {
	n := float64(m.n)
	t, i := float64(m.t), float64(m.i)
	cov := n*float64(m.ti) - t*i
	vt := n*float64(m.tt) - t*t
	vi := n*float64(m.ii) - i*i
	switch {
	case vt <= 0 && vi <= 0:
		// Two flat images correlate when their levels agree.
		if math.Abs(t-i) <= n {
			return 1
		}
		return 0
	case vt <= 0 || vi <= 0:
		return 0
	}
	return cov / math.Sqrt(vt*vi)
}

// NCC returns the zero-mean normalized cross-correlation of same-size images.
func NCC(tpl, img *image.Gray) (float64, error) {
	size, err := sameSize(tpl, img)
	if err != nil {
		return 0, err
	}
	return bandMoments(tpl, img, size.X, 0, size.Y).coefficient(), nil
}

// ParallelNCC computes the same score as NCC with the rows split into bands.
func ParallelNCC(ctx context.Context, tpl, img *image.Gray, workers int) (float64, error) {
	size, err := sameSize(tpl, img)
	if err != nil {
		return 0, err
	}
	if workers < 1 {
		workers = 1
	}
	if workers > size.Y {
		workers = size.Y
	}

	parts := make([]moments, workers)
	band := (size.Y + workers - 1) / workers
	g, gctx := errgroup.WithContext(ctx)
	for k := 0; k < workers; k++ {
		y0 := k * band
		y1 := min(y0+band, size.Y)
		if y0 >= y1 {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			parts[k] = bandMoments(tpl, img, size.X, y0, y1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var m moments
	for _, p := range parts {
		m.add(p)
	}
	return m.coefficient(), nil
}

func sameSize(a, b *image.Gray) (image.Point, error) {
	sa, sb := a.Bounds().Size(), b.Bounds().Size()
	if sa != sb {
		return image.Point{}, fmt.Errorf("size mismatch: %dx%d vs %dx%d", sa.X, sa.Y, sb.X, sb.Y)
	}
	if sa.X == 0 || sa.Y == 0 {
		return image.Point{}, fmt.Errorf("empty image")
	}
	return sa, nil
}

func row(g *image.Gray, y, w int) []uint8 {
	off := g.PixOffset(g.Rect.Min.X, g.Rect.Min.Y+y)
	return g.Pix[off : off+w]
}
