package psx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

const (
	DefaultListingURL    = DefaultHost + "/announcements/companies"
	DefaultRenderTimeout = 20 * time.Second
)

const (
	tableSelector  = "table:has(tbody tr)"
	rowSelector    = "table tbody tr"
	firstRowTextJS = `(document.querySelector("table tbody tr") || {}).innerText || ""`
	clickNextJS    = `(() => {` + nextControlJS + `const el = findNext(); if (!el) return false; el.click(); return true; })()`
)

// nextControlJS mirrors isNextControl.
const nextControlJS = `const findNext = () => Array.from(document.querySelectorAll("a, button")).find(el => {
	const text = (el.textContent || "").trim().toLowerCase();
	const cls = " " + (el.getAttribute("class") || "").toLowerCase() + " ";
	return (el.getAttribute("rel") || "").toLowerCase() === "next" ||
		cls.includes(" next ") ||
		(el.getAttribute("aria-label") || "").toLowerCase() === "next" ||
		["next", "next ›", "next »", "›", "»"].includes(text);
});`

// BrowserConfig configures the headless browser used to render the listing.
type BrowserConfig struct {
	URL           string
	Headless      bool
	NoSandbox     bool
	UserAgent     string
	RenderTimeout time.Duration
}

// BrowserSource is a PageSource backed by a chromedp tab on the rendered
// announcements listing.
type BrowserSource struct {
	tab     context.Context
	cancels []context.CancelFunc
	cfg     BrowserConfig
}

// OpenBrowser starts a browser, loads the listing and waits for its first rows.
func OpenBrowser(ctx context.Context, cfg BrowserConfig) (*BrowserSource, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultListingURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = userAgent
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = DefaultRenderTimeout
	}

	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("no-sandbox", cfg.NoSandbox),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(cfg.UserAgent),
	)

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(ctx, allocatorOpts...)
	tab, tabCancel := chromedp.NewContext(allocatorCtx)

	b := &BrowserSource{
		tab:     tab,
		cancels: []context.CancelFunc{tabCancel, allocatorCancel},
		cfg:     cfg,
	}

	slog.Info("Opening announcements listing", "url", cfg.URL)
	err := b.run(ctx,
		chromedp.Navigate(cfg.URL),
		chromedp.WaitVisible(rowSelector, chromedp.ByQuery),
	)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to load listing %s: %w", cfg.URL, err)
	}

	return b, nil
}

func (b *BrowserSource) Close() {
	for _, cancel := range b.cancels {
		cancel()
	}
}

func (b *BrowserSource) Rows(ctx context.Context) ([]Row, error) {
	var table string
	if err := b.run(ctx, chromedp.OuterHTML(tableSelector, &table, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("failed to snapshot listing table: %w", err)
	}
	return ParseRows(strings.NewReader(table))
}

func (b *BrowserSource) NextControl(ctx context.Context) (NextControl, error) {
	var body string
	if err := b.run(ctx, chromedp.OuterHTML("body", &body, chromedp.ByQuery)); err != nil {
		return NextControl{}, fmt.Errorf("failed to snapshot listing page: %w", err)
	}
	return ClassifyNextControl(strings.NewReader(body))
}

// Advance clicks the next control and waits until the first row changes.
func (b *BrowserSource) Advance(ctx context.Context) error {
	var before string
	if err := b.run(ctx, chromedp.Evaluate(firstRowTextJS, &before)); err != nil {
		return fmt.Errorf("failed to read first row: %w", err)
	}

	var clicked bool
	if err := b.run(ctx, chromedp.Evaluate(clickNextJS, &clicked)); err != nil {
		return fmt.Errorf("failed to click next control: %w", err)
	}
	if !clicked {
		return fmt.Errorf("next control disappeared before click")
	}

	quoted, err := json.Marshal(before)
	if err != nil {
		return err
	}
	changed := fmt.Sprintf(`%s !== %s`, firstRowTextJS, quoted)

	var ok bool
	err = b.run(ctx,
		chromedp.Poll(changed, &ok, chromedp.WithPollingTimeout(b.cfg.RenderTimeout)),
		chromedp.WaitVisible(rowSelector, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("next page did not render: %w", err)
	}
	return nil
}

// run executes actions on the tab, bounded by the render timeout and by ctx.
func (b *BrowserSource) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(b.tab, b.cfg.RenderTimeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// ClassifyNextControl finds the listing's "next" control in a page snapshot
// using the same rules as the in-page click script.
func ClassifyNextControl(r io.Reader) (NextControl, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return NextControl{}, fmt.Errorf("failed to parse page snapshot: %w", err)
	}

	var next *goquery.Selection
	doc.Find("a, button").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if isNextControl(s) {
			next = s
			return false
		}
		return true
	})
	if next == nil {
		return NextControl{}, nil
	}

	return NextControl{
		Present:  true,
		Disabled: isDisabled(next),
		Visible:  isVisible(next),
	}, nil
}

func isNextControl(s *goquery.Selection) bool {
	if rel, _ := s.Attr("rel"); strings.EqualFold(rel, "next") {
		return true
	}
	if hasClass(s, "next") {
		return true
	}
	if label, _ := s.Attr("aria-label"); strings.EqualFold(label, "next") {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(s.Text())) {
	case "next", "next ›", "next »", "›", "»":
		return true
	}
	return false
}

func isDisabled(s *goquery.Selection) bool {
	if _, ok := s.Attr("disabled"); ok {
		return true
	}
	if v, _ := s.Attr("aria-disabled"); v == "true" {
		return true
	}
	if hasClass(s, "disabled") {
		return true
	}
	return s.ParentsFiltered("li").FilterFunction(func(_ int, p *goquery.Selection) bool {
		return hasClass(p, "disabled")
	}).Length() > 0
}

func isVisible(s *goquery.Selection) bool {
	for n := s; n.Length() > 0 && !n.Is("body"); n = n.Parent() {
		if _, ok := n.Attr("hidden"); ok {
			return false
		}
		if hasClass(n, "hidden") || hasClass(n, "d-none") {
			return false
		}
		style, _ := n.Attr("style")
		style = strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}

func hasClass(s *goquery.Selection, name string) bool {
	class, _ := s.Attr("class")
	for _, c := range strings.Fields(strings.ToLower(class)) {
		if c == name {
			return true
		}
	}
	return false
}
