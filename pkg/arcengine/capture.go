package arcengine

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

func (e *Engine) captureFrame(img *ebiten.Image, suffix string, timestamp time.Time) {
	if e.FrameCaptureDir == "" {
		return
	}
	if err := os.MkdirAll(e.FrameCaptureDir, 0o755); err != nil {
		log.Printf("[CAPTURE] Error creating capture directory: %v", err)
		return
	}

	filename := fmt.Sprintf("arcmap-%s-%s.png", timestamp.Format("20060102-150405"), suffix)
	path := filepath.Join(e.FrameCaptureDir, filename)

	// Pixels must be copied out on the game goroutine; encoding happens off it.
	rgba := image.NewRGBA(img.Bounds())
	img.ReadPixels(rgba.Pix)

	go func() {
		f, err := os.Create(path)
		if err != nil {
			log.Printf("[CAPTURE] Error creating capture file: %v", err)
			return
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Printf("[CAPTURE] Error closing capture file: %v", err)
			}
		}()

		if err := png.Encode(f, rgba); err != nil {
			log.Printf("[CAPTURE] Error encoding capture: %v", err)
			return
		}
		log.Printf("[CAPTURE] Captured frame: %s", path)
	}()
}

// RenderStill draws one frame of snap at the given loop time onto a headless surface:
// backdrop, land, then arcs. It returns the scheduled frame.
func RenderStill(s *CanvasSurface, basemap *Basemap, r *FrameRenderer, sched *LoopScheduler, snap *Snapshot, elapsed float64) Frame {
	s.Clear()
	basemap.DrawTo(s, r.Projector)
	f := sched.Tick(snap, elapsed)
	r.Draw(s, snap, f)
	return f
}
