package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"slide-deck-platform/internal/config"
	"slide-deck-platform/internal/logger"
	"slide-deck-platform/models"
)

// ConversionResult is the canonical output of the strategy chain. Slides
// holds public URLs, SlideTexts the per-slide text, and both are always the
// same length. IsPlaceholder is true when any slide is synthetic.
type ConversionResult struct {
	Slides        []string
	SlideTexts    []string
	IsPlaceholder bool
}

// pagedDocument abstracts the intermediate PDF so tests can substitute a fake
type pagedDocument interface {
	PageCount() int
	RasterizePage(n int, outPath string) error
	ExtractText(n int) (string, error)
	Close() error
}

// Converter orchestrates the ordered conversion strategies:
// paginate-then-rasterize, direct image export, then full placeholder fill.
// Convert never fails outward; every internal error degrades to the next
// strategy so the caller always receives a well-formed result.
type Converter struct {
	config       *config.Config
	placeholders *PlaceholderGenerator
	breaker      *gobreaker.CircuitBreaker

	// injection points for tests
	run  func(ctx context.Context, name string, args ...string) ([]byte, error)
	open func(path string) (pagedDocument, error)
}

func NewConverter(cfg *config.Config, placeholders *PlaceholderGenerator) *Converter {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "Renderer",
		MaxRequests: 2,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Renderer circuit breaker state change", "from", from.String(), "to", to.String())
		},
	})

	return &Converter{
		config:       cfg,
		placeholders: placeholders,
		breaker:      breaker,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
		open: func(path string) (pagedDocument, error) {
			return OpenDocument(path)
		},
	}
}

// Convert runs the strategy chain for the uploaded deck at inputPath. The
// final slide images land under {SlidesDir}/{id}/slide-{n}.jpg regardless of
// which strategy produced them. rendererAvailable comes from the probe; when
// false the renderer strategies are skipped and the batch-uniform placeholder
// fill runs directly.
func (c *Converter) Convert(ctx context.Context, inputPath, id, title string, rendererAvailable bool) ConversionResult {
	outDir := filepath.Join(c.config.SlidesDir, id)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		logger.Error("Failed to create slide output directory", "id", id, "error", err.Error())
		// Placeholder writes below will retry the MkdirAll and log again.
	}

	if rendererAvailable {
		result, err := c.paginateAndRasterize(ctx, inputPath, id, title, outDir)
		if err == nil && len(result.Slides) > 0 {
			return result
		}
		if err != nil {
			logger.Warn("Paginate-then-rasterize strategy failed", "id", id, "error", err.Error())
		}

		result, err = c.directExport(ctx, inputPath, id, title, outDir)
		if err == nil && len(result.Slides) > 0 {
			return result
		}
		if err != nil {
			logger.Warn("Direct export strategy failed", "id", id, "error", err.Error())
		}
	}

	return c.placeholderFill(id, title, outDir, rendererAvailable)
}

// paginateAndRasterize is the primary strategy: render the deck to an
// intermediate PDF, then process every page independently. The slide count
// is exactly the real page count; a page that fails to rasterize gets a
// distinct placeholder, not a shorter deck.
func (c *Converter) paginateAndRasterize(ctx context.Context, inputPath, id, title, outDir string) (ConversionResult, error) {
	tmpDir, err := os.MkdirTemp("", "deck-paginate-*")
	if err != nil {
		return ConversionResult{}, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			logger.Warn("Failed to remove temp dir", "dir", tmpDir, "error", err.Error())
		}
	}()

	out, err := c.render(ctx, "--headless", "--convert-to", "pdf", "--outdir", tmpDir, inputPath)
	if err != nil {
		return ConversionResult{}, fmt.Errorf("renderer pdf conversion failed: %w (output: %s)", err, tail(string(out), 300))
	}

	pdfName := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath)) + ".pdf"
	pdfPath := filepath.Join(tmpDir, pdfName)
	if _, err := os.Stat(pdfPath); err != nil {
		return ConversionResult{}, fmt.Errorf("expected pdf not found at %s: %w", pdfPath, err)
	}

	doc, err := c.open(pdfPath)
	if err != nil {
		return ConversionResult{}, err
	}
	defer doc.Close()

	pageCount := doc.PageCount()
	if pageCount == 0 {
		return ConversionResult{}, fmt.Errorf("paginated document has no pages")
	}

	result := ConversionResult{
		Slides:     make([]string, 0, pageCount),
		SlideTexts: make([]string, 0, pageCount),
	}

	for n := 1; n <= pageCount; n++ {
		target := filepath.Join(outDir, slideFilename(n))

		if err := doc.RasterizePage(n, target); err != nil {
			logger.Warn("Page rasterization failed, substituting placeholder", "id", id, "page", n, "error", err.Error())
			c.placeholders.Write(target, n, title, true)
			result.Slides = append(result.Slides, slideURL(id, n))
			result.SlideTexts = append(result.SlideTexts, ErrorText(n))
			result.IsPlaceholder = true
			continue
		}

		text, err := doc.ExtractText(n)
		if err != nil {
			logger.Debug("Page text extraction failed", "id", id, "page", n, "error", err.Error())
			text = GenericText(n)
		}

		result.Slides = append(result.Slides, slideURL(id, n))
		result.SlideTexts = append(result.SlideTexts, text)
	}

	return result, nil
}

// directExport asks the renderer to export slide images in a single pass.
// Some renderer builds collapse multi-slide decks into one image; when that
// happens the real image keeps slot 1 and slots 2..FallbackSlideCount are
// padded with distinct placeholders. The pad count is a heuristic guess at a
// typical deck length, kept for compatibility with existing fixtures.
func (c *Converter) directExport(ctx context.Context, inputPath, id, title, outDir string) (ConversionResult, error) {
	tmpDir, err := os.MkdirTemp("", "deck-export-*")
	if err != nil {
		return ConversionResult{}, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			logger.Warn("Failed to remove temp dir", "dir", tmpDir, "error", err.Error())
		}
	}()

	out, err := c.render(ctx, "--headless", "--convert-to", "jpg", "--outdir", tmpDir, inputPath)
	if err != nil {
		return ConversionResult{}, fmt.Errorf("renderer image export failed: %w (output: %s)", err, tail(string(out), 300))
	}

	images, err := collectImages(tmpDir)
	if err != nil {
		return ConversionResult{}, err
	}
	if len(images) == 0 {
		return ConversionResult{}, fmt.Errorf("renderer produced no images")
	}

	var result ConversionResult

	if len(images) == 1 {
		target := filepath.Join(outDir, slideFilename(1))
		if err := moveFile(images[0], target); err != nil {
			return ConversionResult{}, fmt.Errorf("failed to place exported image: %w", err)
		}
		result.Slides = append(result.Slides, slideURL(id, 1))
		result.SlideTexts = append(result.SlideTexts, GenericText(1))

		for n := 2; n <= models.FallbackSlideCount; n++ {
			c.placeholders.Write(filepath.Join(outDir, slideFilename(n)), n, title, true)
			result.Slides = append(result.Slides, slideURL(id, n))
			result.SlideTexts = append(result.SlideTexts, GenericText(n))
		}
		result.IsPlaceholder = true
		return result, nil
	}

	// Renumber in discovery order; the renderer's native filenames are never
	// exposed to callers.
	for i, src := range images {
		n := i + 1
		target := filepath.Join(outDir, slideFilename(n))
		if err := moveFile(src, target); err != nil {
			return ConversionResult{}, fmt.Errorf("failed to place exported image %d: %w", n, err)
		}
		result.Slides = append(result.Slides, slideURL(id, n))
		result.SlideTexts = append(result.SlideTexts, GenericText(n))
	}

	return result, nil
}

// placeholderFill is the terminal fallback: a full deck of synthetic slides.
// When the renderer was absent the batch is uniform; when the renderer was
// present but every strategy failed, distinct placeholders are used so the
// failure mode stays visible in the output.
func (c *Converter) placeholderFill(id, title, outDir string, rendererAvailable bool) ConversionResult {
	result := ConversionResult{
		Slides:        make([]string, 0, models.FallbackSlideCount),
		SlideTexts:    make([]string, 0, models.FallbackSlideCount),
		IsPlaceholder: true,
	}

	for n := 1; n <= models.FallbackSlideCount; n++ {
		c.placeholders.Write(filepath.Join(outDir, slideFilename(n)), n, title, rendererAvailable)
		result.Slides = append(result.Slides, slideURL(id, n))
		result.SlideTexts = append(result.SlideTexts, GenericText(n))
	}

	return result
}

// render invokes the renderer binary through the circuit breaker with a
// bounded per-call timeout
func (c *Converter) render(ctx context.Context, args ...string) ([]byte, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, time.Duration(c.config.RendererTimeout)*time.Second)
		defer cancel()
		return c.run(callCtx, c.config.RendererBin, args...)
	})
	if err != nil {
		if out != nil {
			if b, ok := out.([]byte); ok {
				return b, err
			}
		}
		return nil, err
	}
	return out.([]byte), nil
}

// collectImages gathers exported images in discovery order, sorted by the
// trailing number the renderer appends to multi-slide exports
func collectImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read export directory: %w", err)
	}

	var images []string
	for _, e := range entries {
		// Some renderer builds emit uppercase extensions
		ext := filepath.Ext(e.Name())
		if strings.EqualFold(ext, ".jpg") || strings.EqualFold(ext, ".jpeg") {
			images = append(images, filepath.Join(dir, e.Name()))
		}
	}

	sort.Slice(images, func(i, j int) bool {
		ni, nj := trailingNumber(images[i]), trailingNumber(images[j])
		if ni != nj {
			return ni < nj
		}
		return images[i] < images[j]
	})

	return images, nil
}

// trailingNumber pulls the page number off names like "deck-3.jpg"
func trailingNumber(path string) int {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	end := len(name)
	for end > 0 && name[end-1] >= '0' && name[end-1] <= '9' {
		end--
	}
	if end < len(name) {
		val, _ := strconv.Atoi(name[end:])
		return val
	}
	return 0
}

// moveFile renames src to dst, falling back to copy when the rename crosses
// filesystems (temp dirs often live on a different mount)
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		os.Remove(dst)
		return err
	}

	return os.Remove(src)
}

// slideFilename is the canonical on-disk name for slide n (1-indexed)
func slideFilename(n int) string {
	return fmt.Sprintf("slide-%d.jpg", n)
}

// slideURL is the public URL clients construct from SlideCount alone
func slideURL(id string, n int) string {
	return fmt.Sprintf("/slides/%s/%s", id, slideFilename(n))
}
