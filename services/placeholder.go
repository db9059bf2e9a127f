package services

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"slide-deck-platform/internal/logger"
)

const (
	placeholderWidth  = 960
	placeholderHeight = 540
)

// Placeholder background shades. Distinct placeholders alternate by slide
// parity so adjacent synthetic slides are tellable apart during manual QA.
var (
	placeholderBase = color.RGBA{R: 0x2b, G: 0x3a, B: 0x55, A: 0xff}
	placeholderAlt  = color.RGBA{R: 0x55, G: 0x3a, B: 0x2b, A: 0xff}
)

// PlaceholderGenerator writes deterministic substitute slide images for
// slides that could not be rendered from real content.
type PlaceholderGenerator struct{}

func NewPlaceholderGenerator() *PlaceholderGenerator {
	return &PlaceholderGenerator{}
}

// Write renders a placeholder JPEG at path. The generic variant is identical
// for every slide in a batch apart from the number; the distinct variant
// branches wording and background on the slide number's parity. Returns
// false instead of an error: placeholder generation itself failing must not
// break the conversion chain.
func (g *PlaceholderGenerator) Write(path string, slideNumber int, title string, distinct bool) bool {
	img := image.NewRGBA(image.Rect(0, 0, placeholderWidth, placeholderHeight))

	bg := placeholderBase
	var lines []string
	if distinct {
		if slideNumber%2 == 0 {
			bg = placeholderAlt
			lines = []string{
				fmt.Sprintf("Slide %d", slideNumber),
				title,
				"This slide could not be rendered",
			}
		} else {
			lines = []string{
				fmt.Sprintf("Slide %d", slideNumber),
				title,
				"Rendering unavailable for this slide",
			}
		}
	} else {
		lines = []string{
			fmt.Sprintf("Slide %d", slideNumber),
			title,
			"Preview not available",
		}
	}

	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
	}
	y := placeholderHeight/2 - len(lines)*20/2
	for _, line := range lines {
		if line == "" {
			y += 40
			continue
		}
		width := drawer.MeasureString(line)
		drawer.Dot = fixed.Point26_6{
			X: fixed.I(placeholderWidth/2) - width/2,
			Y: fixed.I(y),
		}
		drawer.DrawString(line)
		y += 40
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		logger.Error("Failed to create placeholder directory", "path", path, "error", err.Error())
		return false
	}

	out, err := os.Create(path)
	if err != nil {
		logger.Error("Failed to create placeholder file", "path", path, "error", err.Error())
		return false
	}
	defer out.Close()

	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: 85}); err != nil {
		logger.Error("Failed to encode placeholder", "path", path, "error", err.Error())
		return false
	}

	return true
}

// GenericText is the slide text recorded alongside a batch-uniform placeholder
func GenericText(slideNumber int) string {
	return fmt.Sprintf("Slide %d", slideNumber)
}

// ErrorText is the slide text recorded when a single page failed to rasterize
// inside an otherwise successful renderer run
func ErrorText(slideNumber int) string {
	return fmt.Sprintf("Slide %d (Error Placeholder)", slideNumber)
}
