package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shanehull/psxann/internal/config"
	"github.com/shanehull/psxann/internal/extract"
	"github.com/shanehull/psxann/internal/notify"
	"github.com/shanehull/psxann/internal/ocr"
	"github.com/shanehull/psxann/internal/pipeline"
	"github.com/shanehull/psxann/internal/psx"
	"github.com/shanehull/psxann/internal/sarmaaya"
	"github.com/shanehull/psxann/internal/store"
)

func scrape(ctx context.Context, cfg *config.Config, merger *store.Merger) error {
	opts := cfg.Scrape

	resolver, err := psx.NewResolver(opts.Host, nil)
	if err != nil {
		return fmt.Errorf("invalid --host %q: %w", opts.Host, err)
	}

	p := &pipeline.Pipeline{
		Fetcher:   psx.NewFetcher(nil),
		Extractor: newExtractor(opts),
		Merger:    merger,
		Workers:   opts.Workers,
		TextLimit: opts.TextLimit,
	}

	browser, err := psx.OpenBrowser(ctx, psx.BrowserConfig{
		URL:           opts.ListingURL,
		Headless:      !opts.ShowBrowser,
		NoSandbox:     opts.NoSandbox,
		RenderTimeout: opts.RenderTimeout,
	})
	if err != nil {
		slog.Warn("Listing unavailable, relying on fallback source", "err", err)
	} else {
		defer browser.Close()
		p.Discoverer = &psx.Discoverer{
			Source:   browser,
			Resolver: resolver,
			Grace:    opts.Grace,
			MaxPages: opts.MaxPages,
		}
	}

	if !opts.DisableFallback {
		fallback, err := sarmaaya.NewClient(opts.FallbackURL, resolver.Host(), nil)
		if err != nil {
			return fmt.Errorf("invalid fallback source: %w", err)
		}
		p.Fallback = fallback
	}

	q := psx.Query{Ticker: opts.Ticker, Days: opts.Days, MaxItems: opts.MaxItems}
	slog.Info("Starting PSX scrape", "ticker", q.Ticker, "days", q.Days, "max_items", q.MaxItems)

	report, err := p.Run(ctx, q)
	if err != nil {
		return err
	}

	notify.ReportAnnouncements(os.Stdout, report.Announcements, report.Added, cfg.Store.Path)
	return sendDigest(opts, report)
}

func newExtractor(opts config.ScrapeOptions) *extract.Extractor {
	engines := []ocr.Engine{
		ocr.NewTesseract(opts.TesseractLang),
		ocr.NewGemini(opts.GeminiAPIKey, opts.GeminiModel),
	}
	if opts.LocalOCRURL != "" {
		engines = append(engines, ocr.NewLocalVision(opts.LocalOCRURL, opts.LocalOCRModel))
	}

	e := extract.New(ocr.NewChain(engines...), extract.PopplerRenderer{}, extract.EmbeddedImageRenderer{})
	e.MinPageText = opts.MinPageText
	e.DPI = opts.DPI
	e.Timeout = opts.ExtractTimeout
	return e
}

func sendDigest(opts config.ScrapeOptions, report pipeline.Report) error {
	if !opts.Email.Enabled {
		return nil
	}

	notable := notify.Notable(report.Announcements)
	if len(notable) == 0 {
		slog.Info("No notable announcements, skipping email")
		return nil
	}

	msg, err := notify.NewHTMLEmailRenderer().Render(notify.DigestData{
		Source:        report.Source,
		Days:          opts.Days,
		Ticker:        opts.Ticker,
		GeneratedAt:   time.Now(),
		Announcements: notable,
	})
	if err != nil {
		return fmt.Errorf("failed to render digest: %w", err)
	}

	sender := notify.NewEmailSender(notify.EmailConfig{
		SMTPServer: opts.Email.SMTPServer,
		SMTPPort:   opts.Email.SMTPPort,
		SMTPUser:   opts.Email.SMTPUser,
		SMTPPass:   opts.Email.SMTPPass,
		FromEmail:  opts.Email.FromEmail,
		ToEmail:    opts.Email.ToEmail,
		Enabled:    true,
	})
	if err := sender.Send(msg); err != nil {
		slog.Warn("Digest email not sent", "err", err)
	}
	return nil
}
