package rowan

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// NewFPSStep returns a step that draws the current FPS and TPS in the
// top-left corner of the screen. The readout refreshes every ~0.5 seconds.
// Register it after StageDebug so it lands on top of everything:
//
//	sched.RegisterStep("fps", rowan.NewFPSStep())
//	sched.StepAfter("fps", rowan.StageDebug)
func NewFPSStep() Step {
	// 100x32 is enough for "FPS: 60.0\nTPS: 60.0"
	var img *ebiten.Image
	var sinceUpdate float64

	return func(p *Pass) {
		if p.Screen == nil {
			return
		}
		if img == nil {
			img = ebiten.NewImage(100, 32)
			sinceUpdate = 1 // force an immediate first readout
		}

		sinceUpdate += p.Delta
		if sinceUpdate >= 0.5 {
			sinceUpdate = 0
			img.Clear()
			// Semi-transparent background for readability
			img.Fill(color.RGBA{0, 0, 0, 128})
			ebitenutil.DebugPrint(img, fmt.Sprintf("FPS: %.1f\nTPS: %.1f",
				ebiten.ActualFPS(), ebiten.ActualTPS()))
		}

		var op ebiten.DrawImageOptions
		op.GeoM.Translate(4, 4)
		p.Screen.DrawImage(img, &op)
	}
}
