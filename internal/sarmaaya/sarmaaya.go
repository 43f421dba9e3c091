/*
Package sarmaaya reads result announcements from the Sarmaaya REST API. It is
the fallback source when the exchange listing yields nothing.
*/
package sarmaaya

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/shanehull/psxann/internal/psx"
	"github.com/shanehull/psxann/internal/types"
)

const (
	DefaultURL     = "https://beta-restapi.sarmaaya.pk/api/announcements/result-announcements"
	requestTimeout = 15 * time.Second
	dayLayout      = "2006-01-02"
)

var (
	postingLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		dayLayout,
	}

	documentExtensions = []string{".pdf", ".gif", ".jpg", ".jpeg", ".png", ".bmp", ".doc", ".docx"}
)

// Query mirrors psx.Query for the API window.
type Query struct {
	Ticker string
	Days   int
}

type response struct {
	Success  bool   `json:"success"`
	Response []item `json:"response"`
}

type item struct {
	Symbol            string            `json:"symbol"`
	AnnouncementTitle string            `json:"announcementTitle"`
	PostingDate       string            `json:"postingDate"`
	Attachments       []json.RawMessage `json:"attachments"`
	PeriodEnded       looseString       `json:"periodEnded"`
}

// looseString decodes a JSON string, number or boolean as text. Other shapes,
// and null, decode to "" instead of failing the whole response.
type looseString string

func (l *looseString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = looseString(strings.TrimSpace(s))
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v.(type) {
	case float64, bool:
		*l = looseString(strings.TrimSpace(string(data)))
	default:
		*l = ""
	}
	return nil
}

type Client struct {
	endpoint string
	host     *url.URL
	client   *http.Client
	now      func() time.Time
}

// NewClient returns a client for endpoint. Relative attachment paths are
// resolved against host.
func NewClient(endpoint, host string, client *http.Client) (*Client, error) {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	if host == "" {
		host = psx.DefaultHost
	}
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid attachment host %q: %w", host, err)
	}
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}
	return &Client{endpoint: endpoint, host: base, client: client, now: time.Now}, nil
}

// Fetch returns the announcements posted within the last q.Days days (in
// exchange time). A response flagged unsuccessful yields no announcements.
func (c *Client) Fetch(ctx context.Context, q Query) ([]types.Announcement, error) {
	loc := psx.Location()
	to := c.now().In(loc)
	from := to.AddDate(0, 0, -q.Days)

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", c.endpoint, err)
	}
	params := u.Query()
	params.Set("from", from.Format(dayLayout))
	params.Set("to", to.Format(dayLayout))
	u.RawQuery = params.Encode()

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Referer", psx.DefaultHost+"/announcements")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch announcements: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !body.Success {
		return nil, nil
	}

	ticker := strings.ToUpper(strings.TrimSpace(q.Ticker))
	var out []types.Announcement
	for _, it := range body.Response {
		symbol := strings.ToUpper(strings.TrimSpace(it.Symbol))
		if ticker != "" && symbol != ticker {
			continue
		}

		published, _ := parsePostingDate(it.PostingDate, loc)
		out = append(out, types.Announcement{
			Ticker:        symbol,
			Title:         strings.TrimSpace(it.AnnouncementTitle),
			PublishedRaw:  it.PostingDate,
			PublishedAt:   published,
			AttachmentURL: c.pickAttachment(it.Attachments),
			PeriodEnded:   string(it.PeriodEnded),
			Source:        types.SourceSarmaaya,
		})
	}
	return out, nil
}

// pickAttachment prefers the first PDF, then the first other known document
// or image.
func (c *Client) pickAttachment(raw []json.RawMessage) string {
	var names []string
	for _, r := range raw {
		if name := attachmentName(r); name != "" {
			names = append(names, name)
		}
	}

	for _, name := range names {
		if extension(name) == ".pdf" {
			return c.absolute(name)
		}
	}
	for _, name := range names {
		for _, ext := range documentExtensions {
			if extension(name) == ext {
				return c.absolute(name)
			}
		}
	}
	return ""
}

// attachmentName accepts either a bare string or an object with a url field.
func attachmentName(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.URL)
	}
	return ""
}

func (c *Client) absolute(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return c.host.ResolveReference(u).String()
}

func extension(name string) string {
	if u, err := url.Parse(name); err == nil {
		name = u.Path
	}
	return strings.ToLower(path.Ext(name))
}

func parsePostingDate(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range postingLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return psx.ParseDate(raw, loc)
}
