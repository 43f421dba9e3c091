package ocr

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	tesseractTimeout = 60 * time.Second
	wordLevel        = "5"
)

// Tesseract runs the tesseract binary and rebuilds lines from its TSV output.
type Tesseract struct {
	Language string
	binary   *Lazy[string]
}

func NewTesseract(language string) *Tesseract {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{
		Language: language,
		binary: NewLazy(func(context.Context) (string, error) {
			path, err := exec.LookPath("tesseract")
			if err != nil {
				return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			slog.Debug("Found tesseract", "path", path)
			return path, nil
		}),
	}
}

func (t *Tesseract) Name() string { return "tesseract" }

func (t *Tesseract) Recognize(ctx context.Context, img Image) (string, error) {
	bin, err := t.binary.Get(ctx)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, tesseractTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "stdin", "stdout", "-l", t.Language, "tsv")
	cmd.Stdin = bytes.NewReader(img.Data)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	lines := ParseTSV(stdout.Bytes())
	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(l.Text)
	}
	slog.Debug("Tesseract recognized lines", "lines", len(lines), "confidence", meanConfidence(lines))
	return sb.String(), nil
}

// Line is one recognized line with the mean confidence of its words.
type Line struct {
	Text       string
	Confidence float64
}

type lineKey struct {
	page, block, par, line string
}

// ParseTSV groups tesseract's word rows into lines in detection order.
func ParseTSV(data []byte) []Line {
	type acc struct {
		words []string
		conf  float64
	}

	var order []lineKey
	groups := make(map[lineKey]*acc)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for first := true; scanner.Scan(); first = false {
		if first {
			continue
		}
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < 12 || fields[0] != wordLevel {
			continue
		}
		word := strings.TrimSpace(fields[11])
		if word == "" {
			continue
		}
		conf, err := strconv.ParseFloat(fields[10], 64)
		if err != nil || conf < 0 {
			continue
		}

		key := lineKey{fields[1], fields[2], fields[3], fields[4]}
		g, ok := groups[key]
		if !ok {
			g = &acc{}
			groups[key] = g
			order = append(order, key)
		}
		g.words = append(g.words, word)
		g.conf += conf
	}

	lines := make([]Line, 0, len(order))
	for _, key := range order {
		g := groups[key]
		lines = append(lines, Line{
			Text:       strings.Join(g.words, " "),
			Confidence: g.conf / float64(len(g.words)),
		})
	}
	return lines
}

func meanConfidence(lines []Line) float64 {
	if len(lines) == 0 {
		return 0
	}
	var sum float64
	for _, l := range lines {
		sum += l.Confidence
	}
	return sum / float64(len(lines))
}
