/*
Package extract recovers text from fetched attachment bytes. PDFs are read
through their text layer page by page; pages without enough text, and plain
images, go through OCR.
*/
package extract

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shanehull/psxann/internal/ocr"
)

const (
	DefaultMinPageText = 50
	DefaultDPI         = 150
	DefaultTimeout     = 3 * time.Minute
)

var pdfMagic = []byte("%PDF")

type Kind string

const (
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
)

// DetectKind classifies data by its magic prefix. Anything that is not a PDF
// is treated as an image.
func DetectKind(data []byte) Kind {
	if bytes.HasPrefix(data, pdfMagic) {
		return KindPDF
	}
	return KindImage
}

type Method string

const (
	MethodText Method = "text"
	MethodOCR  Method = "ocr"
	MethodNone Method = "none"
)

type PageResult struct {
	Number int
	Text   string
	Method Method
}

// Attempt records how each page of one document was recovered.
type Attempt struct {
	Kind  Kind
	Pages []PageResult
}

// Text joins the non-empty page texts in page order.
func (a Attempt) Text() string {
	var parts []string
	for _, p := range a.Pages {
		if t := strings.TrimSpace(p.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

// Recognizer turns an image into text. *ocr.Chain satisfies it.
type Recognizer interface {
	Recognize(ctx context.Context, img ocr.Image) string
}

type Extractor struct {
	OCR         Recognizer
	Renderers   []Renderer
	MinPageText int
	DPI         int
	Timeout     time.Duration
}

func New(recognizer Recognizer, renderers ...Renderer) *Extractor {
	return &Extractor{
		OCR:         recognizer,
		Renderers:   renderers,
		MinPageText: DefaultMinPageText,
		DPI:         DefaultDPI,
		Timeout:     DefaultTimeout,
	}
}

// Extract returns the best-effort text of data, possibly empty.
func (e *Extractor) Extract(ctx context.Context, data []byte) string {
	return e.Attempt(ctx, data).Text()
}

// Attempt runs the cascade under the extractor's timeout. When the deadline
// passes, the pages recovered so far are returned.
func (e *Extractor) Attempt(ctx context.Context, data []byte) Attempt {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	attempt := Attempt{Kind: DetectKind(data)}
	if len(data) == 0 {
		return attempt
	}

	switch attempt.Kind {
	case KindPDF:
		attempt.Pages = e.extractPDF(ctx, data)
	default:
		attempt.Pages = []PageResult{e.ocrPage(ctx, 1, ocr.NewImage(data))}
	}

	if ctx.Err() != nil {
		slog.Warn("Extraction deadline reached, keeping partial text", "pages", len(attempt.Pages), "err", ctx.Err())
	}
	return attempt
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte) []PageResult {
	texts, err := readTextLayer(ctx, data)
	if err != nil {
		slog.Warn("Failed to read PDF text layer, rendering first page", "err", err)
		texts = []string{""}
	}

	minText := e.MinPageText
	if minText <= 0 {
		minText = DefaultMinPageText
	}

	var pages []PageResult
	for i, text := range texts {
		if ctx.Err() != nil {
			break
		}
		number := i + 1

		if len(strings.TrimSpace(text)) > minText {
			pages = append(pages, PageResult{Number: number, Text: text, Method: MethodText})
			continue
		}

		img, err := e.render(ctx, data, number)
		if err != nil {
			slog.Warn("Failed to render page for OCR", "page", number, "err", err)
			pages = append(pages, PageResult{Number: number, Text: text, Method: MethodNone})
			continue
		}
		pages = append(pages, e.ocrPage(ctx, number, img))
	}
	return pages
}

func (e *Extractor) ocrPage(ctx context.Context, number int, img ocr.Image) PageResult {
	if e.OCR == nil {
		return PageResult{Number: number, Method: MethodNone}
	}
	return PageResult{Number: number, Text: e.OCR.Recognize(ctx, img), Method: MethodOCR}
}
