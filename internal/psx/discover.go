/*
Package psx discovers announcements on the Pakistan Stock Exchange data portal,
resolves their attachment URLs and downloads attachment documents.
*/
package psx

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shanehull/psxann/internal/types"
)

const (
	DefaultHost     = "https://dps.psx.com.pk"
	DefaultGrace    = 48 * time.Hour
	DefaultMaxPages = 100
	DefaultTimezone = "Asia/Karachi"
)

// Listing cell order: date, time, ticker, company, title, attachment.
const (
	dateCell = iota
	timeCell
	tickerCell
	companyCell
	titleCell
	attachmentCell
	minRowCells
)

var dateTimeLayouts = []string{
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006 15:04",
	"January 2, 2006 3:04 PM",
	"2006-01-02 15:04",
	"2006-01-02 3:04 PM",
	"02/01/2006 3:04 PM",
	"Jan 2, 2006",
	"2006-01-02",
}

// NextControl describes the listing's "next page" control.
type NextControl struct {
	Present  bool
	Disabled bool
	Visible  bool
}

func (n NextControl) Usable() bool {
	return n.Present && !n.Disabled && n.Visible
}

// PageSource is the listing surface as seen by the discoverer. Implementations
// hold the current page; Advance moves to the next one and returns once its
// rows have rendered.
type PageSource interface {
	Rows(ctx context.Context) ([]Row, error)
	NextControl(ctx context.Context) (NextControl, error)
	Advance(ctx context.Context) error
}

// Query selects announcements. An empty Ticker means all tickers; MaxItems <= 0
// means no cap.
type Query struct {
	Ticker   string
	Days     int
	MaxItems int
}

// State is a discovery state. The run ends in one of the terminal states.
type State string

const (
	StateLoadingPage   State = "LOADING_PAGE"
	StateScanningRows  State = "SCANNING_ROWS"
	StateAdvancing     State = "ADVANCING"
	StateCutoffReached State = "CUTOFF_REACHED"
	StateCapReached    State = "CAP_REACHED"
	StateNoMorePages   State = "NO_MORE_PAGES"
	StatePageLimit     State = "PAGE_LIMIT"
	StateFailed        State = "FAILED"
)

// Discoverer paginates a PageSource newest-first and collects matching
// announcements.
type Discoverer struct {
	Source   PageSource
	Resolver *Resolver
	Grace    time.Duration
	MaxPages int
	Location *time.Location
	Now      func() time.Time
}

type cursor struct {
	page    int
	results []types.Announcement
	cutoff  time.Time
	stale   time.Time
	ticker  string
	cap     int
	known   func(string) bool
}

// Discover runs the pagination state machine. It never fails: structural
// problems end the run and whatever was collected is returned. known reports
// attachment URLs already persisted; matching rows reuse them without a HEAD
// request. It may be nil.
func (d *Discoverer) Discover(ctx context.Context, q Query, known func(string) bool) []types.Announcement {
	results, state := d.run(ctx, q, known)
	slog.Info("Discovery finished", "state", state, "count", len(results))
	return results
}

func (d *Discoverer) run(ctx context.Context, q Query, known func(string) bool) ([]types.Announcement, State) {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	grace := d.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}
	maxPages := d.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	cutoff := now().AddDate(0, 0, -q.Days)
	c := &cursor{
		page:   1,
		cutoff: cutoff,
		stale:  cutoff.Add(-grace),
		ticker: strings.ToUpper(strings.TrimSpace(q.Ticker)),
		cap:    q.MaxItems,
		known:  known,
	}

	state := StateLoadingPage
	for {
		if ctx.Err() != nil {
			return c.results, StateFailed
		}

		switch state {
		case StateLoadingPage:
			state = StateScanningRows

		case StateScanningRows:
			rows, err := d.Source.Rows(ctx)
			if err != nil {
				slog.Warn("Failed to read listing rows", "page", c.page, "err", err)
				return c.results, StateFailed
			}
			slog.Debug("Scanning listing page", "page", c.page, "rows", len(rows))
			state = d.scan(ctx, c, rows)

		case StateAdvancing:
			if c.page >= maxPages {
				slog.Warn("Page limit reached", "pages", c.page)
				return c.results, StatePageLimit
			}

			next, err := d.Source.NextControl(ctx)
			if err != nil {
				slog.Warn("Failed to inspect pagination", "page", c.page, "err", err)
				return c.results, StateFailed
			}
			if !next.Usable() {
				return c.results, StateNoMorePages
			}
			if err := d.Source.Advance(ctx); err != nil {
				slog.Warn("Failed to advance listing", "page", c.page, "err", err)
				return c.results, StateFailed
			}
			c.page++
			state = StateLoadingPage

		default:
			return c.results, state
		}
	}
}

// scan processes the rows of one page and returns the next state.
func (d *Discoverer) scan(ctx context.Context, c *cursor, rows []Row) State {
	for _, row := range rows {
		if len(row.Cells) < minRowCells {
			slog.Debug("Skipping malformed row", "page", c.page, "cells", len(row.Cells))
			continue
		}

		raw := strings.TrimSpace(row.Cells[dateCell] + " " + row.Cells[timeCell])
		published, ok := d.parseDate(raw)
		if ok && published.Before(c.cutoff) {
			if published.Before(c.stale) {
				slog.Debug("Reached announcements past the cutoff", "published", raw)
				return StateCutoffReached
			}
			continue
		}

		ticker := strings.ToUpper(row.Cells[tickerCell])
		if c.ticker != "" && ticker != c.ticker {
			continue
		}

		ann := types.Announcement{
			Ticker:       ticker,
			Title:        row.Cells[titleCell],
			Company:      row.Cells[companyCell],
			PublishedRaw: raw,
			PublishedAt:  published,
			Source:       types.SourcePSX,
		}
		if d.Resolver != nil && !row.Attachment.IsEmpty() {
			ann.AttachmentURL = d.Resolver.ResolveKnown(ctx, row.Attachment, c.known)
		}

		c.results = append(c.results, ann)
		if c.cap > 0 && len(c.results) >= c.cap {
			return StateCapReached
		}
	}
	return StateAdvancing
}

func (d *Discoverer) parseDate(raw string) (time.Time, bool) {
	return ParseDate(raw, d.location())
}

func (d *Discoverer) location() *time.Location {
	if d.Location != nil {
		return d.Location
	}
	return pkt
}

var pkt = loadLocation(DefaultTimezone, 5*60*60)

// Location returns the exchange's local time zone.
func Location() *time.Location {
	return pkt
}

func loadLocation(name string, offset int) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("PKT", offset)
	}
	return loc
}

// ParseDate parses a listing date/time string in loc. The bool is false when
// no known layout matches.
func ParseDate(raw string, loc *time.Location) (time.Time, bool) {
	cleaned := strings.ToUpper(cleanText(raw))
	cleaned = strings.ReplaceAll(cleaned, "A.M.", "AM")
	cleaned = strings.ReplaceAll(cleaned, "P.M.", "PM")
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, cleaned, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
