package rowan

import (
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// Layer is a named render step that draws into a viewport region of the
// tick's screen. By default a layer is anchored between StageOverlay and
// StageDebug; use [Scheduler.StepAfter] / [Scheduler.StepBefore] with the
// layer's name to re-anchor it.
type Layer struct {
	// Name identifies the layer's step in the ordering graph.
	Name string
	// Viewport selects the screen region to draw into. The zero Rect means
	// the full screen.
	Viewport Rect
	// Draw renders the layer's content into the target image.
	Draw func(target *ebiten.Image)
	// ClearViewport clears the viewport before Draw when the pass's Clear
	// flag is set.
	ClearViewport bool
	// Offscreen renders Draw into a pooled intermediate texture and
	// composites it into the viewport afterwards. Required when the draw
	// routine must not blend with existing screen content mid-way.
	Offscreen bool
}

// AddLayer registers the layer's step, anchored after StageOverlay and
// before StageDebug.
func (s *Scheduler) AddLayer(l *Layer) {
	s.RegisterStep(l.Name, func(p *Pass) { s.renderLayer(l, p) })
	s.StepAfter(l.Name, StageOverlay)
	s.StepBefore(l.Name, StageDebug)
}

// RemoveLayer unregisters the layer's step.
func (s *Scheduler) RemoveLayer(l *Layer) {
	s.UnregisterStep(l.Name)
}

func (s *Scheduler) renderLayer(l *Layer, p *Pass) {
	if p.Screen == nil || l.Draw == nil {
		return
	}
	target := p.Screen
	offX, offY := 0.0, 0.0
	if !l.Viewport.IsZero() {
		vp := l.Viewport
		target = p.Screen.SubImage(image.Rect(
			int(vp.X), int(vp.Y),
			int(vp.X+vp.Width), int(vp.Y+vp.Height),
		)).(*ebiten.Image)
		offX, offY = vp.X, vp.Y
	}

	if l.ClearViewport && p.Clear {
		target.Clear()
	}

	if !l.Offscreen {
		l.Draw(target)
		return
	}

	b := target.Bounds()
	rt := s.pool.Acquire(b.Dx(), b.Dy())
	l.Draw(rt)
	var op ebiten.DrawImageOptions
	op.GeoM.Translate(offX, offY)
	p.Screen.DrawImage(rt, &op)
	s.pool.Release(rt)
}

// NewImageHandle wraps an ebiten image in a Handle whose dispose callback
// deallocates the image. Cells holding the handle share its lifetime; the
// GPU memory is returned when the last one lets go.
func NewImageHandle(img *ebiten.Image) *Handle[*ebiten.Image] {
	return NewHandle(img, func(i *ebiten.Image) { i.Deallocate() })
}

// --- Offscreen texture pool ---

// texturePool manages reusable offscreen ebiten images keyed by
// power-of-two dimensions. After warmup, Acquire/Release are zero-alloc.
type texturePool struct {
	buckets map[uint64][]*ebiten.Image
}

// poolKey packs power-of-two width and height into a single uint64.
func poolKey(w, h int) uint64 {
	return uint64(w)<<32 | uint64(h)
}

// Acquire returns a cleared offscreen image with at least (w, h) pixels.
// Dimensions are rounded up to the next power of two.
func (p *texturePool) Acquire(w, h int) *ebiten.Image {
	pw := nextPowerOfTwo(w)
	ph := nextPowerOfTwo(h)
	key := poolKey(pw, ph)

	if p.buckets != nil {
		if stack := p.buckets[key]; len(stack) > 0 {
			img := stack[len(stack)-1]
			p.buckets[key] = stack[:len(stack)-1]
			img.Clear()
			return img
		}
	}

	return ebiten.NewImageWithOptions(
		image.Rect(0, 0, pw, ph),
		&ebiten.NewImageOptions{Unmanaged: true},
	)
}

// Release returns an image to the pool for reuse. The image is cleared on
// next Acquire, not here (avoids redundant GPU work if released then
// immediately re-acquired).
func (p *texturePool) Release(img *ebiten.Image) {
	if img == nil {
		return
	}
	b := img.Bounds()
	key := poolKey(b.Dx(), b.Dy())

	if p.buckets == nil {
		p.buckets = make(map[uint64][]*ebiten.Image)
	}
	p.buckets[key] = append(p.buckets[key], img)
}

// nextPowerOfTwo returns the smallest power of two >= n (minimum 1).
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << int(math.Ceil(math.Log2(float64(n))))
}
