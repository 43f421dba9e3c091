package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/shanehull/psxann/internal/ocr"
)

const renderTimeout = 60 * time.Second

var errNoImage = errors.New("page has no embedded image")

// Renderer rasterizes one page (1-based) of a PDF.
type Renderer interface {
	Name() string
	Render(ctx context.Context, pdf []byte, page, dpi int) ([]byte, error)
}

// render tries each renderer in order and returns the first image.
func (e *Extractor) render(ctx context.Context, data []byte, page int) (ocr.Image, error) {
	dpi := e.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	var errs []error
	for _, r := range e.Renderers {
		img, err := r.Render(ctx, data, page, dpi)
		if err == nil && len(img) > 0 {
			return ocr.NewImage(img), nil
		}
		if err == nil {
			err = errNoImage
		}
		errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
	}
	if len(errs) == 0 {
		return ocr.Image{}, errors.New("no page renderers configured")
	}
	return ocr.Image{}, errors.Join(errs...)
}

// PopplerRenderer rasterizes pages with poppler's pdftoppm.
type PopplerRenderer struct {
	Binary string
}

func (p PopplerRenderer) Name() string { return "pdftoppm" }

func (p PopplerRenderer) Render(ctx context.Context, data []byte, page, dpi int) ([]byte, error) {
	bin := p.Binary
	if bin == "" {
		bin = "pdftoppm"
	}

	ctx, cancel := context.WithTimeout(ctx, renderTimeout)
	defer cancel()

	tmpFile, err := os.CreateTemp("", "psx_pdf_*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpFileName := tmpFile.Name()
	defer os.Remove(tmpFileName)

	_, err = tmpFile.Write(data)
	if closeErr := tmpFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write PDF bytes to temp file: %w", err)
	}

	n := strconv.Itoa(page)
	cmd := exec.CommandContext(ctx, bin,
		"-f", n, "-l", n,
		"-r", strconv.Itoa(dpi),
		"-png", "-singlefile",
		tmpFileName, "-",
	)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out.Bytes(), nil
}

// EmbeddedImageRenderer returns the largest image embedded in a page. Scanned
// filings are usually one full-page image, so this works without poppler.
type EmbeddedImageRenderer struct{}

func (EmbeddedImageRenderer) Name() string { return "embedded-image" }

func (EmbeddedImageRenderer) Render(ctx context.Context, data []byte, page, _ int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conf := model.NewDefaultConfiguration()
	pages, err := api.ExtractImagesRaw(bytes.NewReader(data), []string{strconv.Itoa(page)}, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}

	var (
		best     []byte
		bestArea int
	)
	for _, images := range pages {
		for _, img := range images {
			if img.Reader == nil || img.Width*img.Height <= bestArea {
				continue
			}
			var buf bytes.Buffer
			if _, err := buf.ReadFrom(img); err != nil {
				continue
			}
			best, bestArea = buf.Bytes(), img.Width*img.Height
		}
	}

	if best == nil {
		return nil, errNoImage
	}
	return best, nil
}
