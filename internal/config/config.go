/*
Package config parses command line flags and environment variables into the
run configuration. A .env file, when present, seeds the environment first.
*/
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/subosito/gotenv"
)

const (
	CommandScrape  = "scrape"
	CommandSummary = "summary"

	StoreCSV    = "csv"
	StoreSQLite = "sqlite"

	envFileVar     = "PSX_ENV_FILE"
	defaultEnvFile = ".env"
)

// ErrMissingConfig reports a required setting that is absent. It is the only
// configuration failure that stops a run, and it is raised before any network
// activity.
var ErrMissingConfig = errors.New("missing required configuration")

type StoreOptions struct {
	Kind string `long:"store" env:"PSX_STORE" default:"csv" choice:"csv" choice:"sqlite" description:"Persisted store backend"`
	Path string `long:"store-path" env:"PSX_STORE_PATH" default:"data/psx_announcements.csv" description:"Store file; a .csv suffix becomes .db for the sqlite backend"`
}

type ScrapeOptions struct {
	Ticker   string        `short:"t" long:"ticker" env:"PSX_TICKER" description:"Only collect this ticker (case-insensitive)"`
	Days     int           `short:"d" long:"days" env:"PSX_DAYS" default:"7" description:"Look-back window in days"`
	MaxItems int           `short:"n" long:"max-items" env:"PSX_MAX_ITEMS" default:"0" description:"Stop after this many announcements (0 = no cap)"`
	Grace    time.Duration `long:"grace" env:"PSX_GRACE" default:"48h" description:"How far past the cutoff a row may be before discovery stops"`
	MaxPages int           `long:"max-pages" env:"PSX_MAX_PAGES" default:"100" description:"Hard limit on listing pages"`

	Host            string `long:"host" env:"PSX_HOST" default:"https://dps.psx.com.pk" description:"Exchange data portal host"`
	ListingURL      string `long:"listing-url" env:"PSX_LISTING_URL" default:"https://dps.psx.com.pk/announcements/companies" description:"Announcements listing page"`
	FallbackURL     string `long:"fallback-url" env:"PSX_FALLBACK_URL" default:"https://beta-restapi.sarmaaya.pk/api/announcements/result-announcements" description:"Fallback announcements API"`
	DisableFallback bool   `long:"no-fallback" env:"PSX_NO_FALLBACK" description:"Do not query the fallback API when the listing is empty"`

	ShowBrowser   bool          `long:"show-browser" env:"PSX_SHOW_BROWSER" description:"Run the browser with a visible window"`
	NoSandbox     bool          `long:"no-sandbox" env:"PSX_NO_SANDBOX" description:"Disable the browser sandbox (containers)"`
	RenderTimeout time.Duration `long:"render-timeout" env:"PSX_RENDER_TIMEOUT" default:"20s" description:"Wait for listing pages to render"`

	Workers        int           `short:"w" long:"workers" env:"PSX_WORKERS" default:"4" description:"Announcements processed concurrently"`
	TextLimit      int           `long:"text-limit" env:"PSX_TEXT_LIMIT" default:"0" description:"Truncate persisted text to this many bytes (0 = unlimited)"`
	ExtractTimeout time.Duration `long:"extract-timeout" env:"PSX_EXTRACT_TIMEOUT" default:"3m" description:"Deadline for extracting one document"`
	MinPageText    int           `long:"min-page-text" env:"PSX_MIN_PAGE_TEXT" default:"50" description:"Characters a PDF page needs to skip OCR"`
	DPI            int           `long:"dpi" env:"PSX_DPI" default:"150" description:"Resolution for rendering pages to OCR"`

	TesseractLang string `long:"tesseract-lang" env:"PSX_TESSERACT_LANG" default:"eng" description:"Tesseract language"`
	GeminiAPIKey  string `long:"gemini-api-key" env:"GEMINI_API_KEY" description:"Gemini API key; the remote OCR tier is off without it"`
	GeminiModel   string `long:"gemini-model" env:"GEMINI_MODEL" default:"gemini-2.5-flash" description:"Gemini model for OCR"`
	LocalOCRURL   string `long:"local-ocr-url" env:"PSX_LOCAL_OCR_URL" description:"OpenAI-compatible vision server, e.g. http://localhost:11434/v1"`
	LocalOCRModel string `long:"local-ocr-model" env:"PSX_LOCAL_OCR_MODEL" default:"llava" description:"Vision model served by the local OCR server"`

	Email EmailOptions `group:"Email Options"`
}

type EmailOptions struct {
	Enabled    bool   `long:"email" env:"PSX_EMAIL" description:"Send an HTML digest of non-neutral announcements"`
	SMTPServer string `long:"smtp-server" env:"SMTP_SERVER" default:"smtp.gmail.com" description:"SMTP server address"`
	SMTPPort   int    `long:"smtp-port" env:"SMTP_PORT" default:"587" description:"SMTP server port"`
	SMTPUser   string `long:"smtp-user" env:"SMTP_USER" description:"SMTP username (email address)"`
	SMTPPass   string `long:"smtp-pass" env:"SMTP_PASS" description:"SMTP password or App Password"`
	ToEmail    string `long:"to-email" env:"TO_EMAIL" description:"Recipient email address"`
	FromEmail  string `long:"from-email" env:"FROM_EMAIL" description:"Sender email address (default: smtp-user)"`
}

type SummaryOptions struct {
	Ticker string `short:"t" long:"ticker" env:"PSX_TICKER" required:"true" description:"Ticker to summarize"`
}

type rawCfg struct {
	Debug bool         `long:"debug" env:"DEBUG" description:"Enable debug logging"`
	Store StoreOptions `group:"Store Options"`

	Scrape  ScrapeOptions  `command:"scrape" description:"Discover, extract, score and store announcements"`
	Summary SummaryOptions `command:"summary" description:"Summarize stored sentiment for a ticker"`
}

type Config struct {
	Command string
	Debug   bool
	Store   StoreOptions
	Scrape  ScrapeOptions
	Summary SummaryOptions
}

// Load parses args (without the program name). It returns nil, nil when help
// was requested.
func Load(args []string) (*Config, error) {
	loadEnvFile()

	var raw rawCfg
	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Config{
		Debug:   raw.Debug,
		Store:   raw.Store,
		Scrape:  raw.Scrape,
		Summary: raw.Summary,
	}
	if parser.Active != nil {
		cfg.Command = parser.Active.Name
	}

	cfg.Store.Path = strings.TrimSpace(cfg.Store.Path)
	if cfg.Store.Kind == StoreSQLite && filepath.Ext(cfg.Store.Path) == ".csv" {
		cfg.Store.Path = strings.TrimSuffix(cfg.Store.Path, ".csv") + ".db"
	}
	if cfg.Scrape.Email.FromEmail == "" {
		cfg.Scrape.Email.FromEmail = cfg.Scrape.Email.SMTPUser
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that flag parsing cannot.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("%w: --store-path is empty", ErrMissingConfig)
	}
	if c.Store.Kind != StoreCSV && c.Store.Kind != StoreSQLite {
		return fmt.Errorf("%w: unknown store %q", ErrMissingConfig, c.Store.Kind)
	}

	if c.Command != CommandScrape {
		return nil
	}

	e := c.Scrape.Email
	if e.Enabled {
		var missing []string
		for _, f := range []struct{ name, value string }{
			{"--smtp-server", e.SMTPServer},
			{"--smtp-user", e.SMTPUser},
			{"--smtp-pass", e.SMTPPass},
			{"--to-email", e.ToEmail},
		} {
			if strings.TrimSpace(f.value) == "" {
				missing = append(missing, f.name)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: --email needs %s", ErrMissingConfig, strings.Join(missing, ", "))
		}
	}

	if c.Scrape.Days < 0 {
		return fmt.Errorf("invalid --days %d: must not be negative", c.Scrape.Days)
	}
	return nil
}

func loadEnvFile() {
	path := os.Getenv(envFileVar)
	if path == "" {
		path = defaultEnvFile
	}
	if err := gotenv.Load(path); err != nil {
		slog.Debug("No .env file found, using OS environment", "path", path)
	}
}
