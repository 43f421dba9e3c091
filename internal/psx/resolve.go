package psx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"
)

const (
	attachmentPath = "/download/attachment/"
	imagePath      = "/download/image/"
	documentPath   = "/download/document/"
	headTimeout    = 5 * time.Second
)

var (
	documentIDPattern   = regexp.MustCompile(`/(\d+)(?:-\d+)?\.[A-Za-z0-9]+$`)
	candidateSeparators = regexp.MustCompile(`[,;\s]+`)

	imageExtensions = map[string]bool{
		".gif": true, ".jpg": true, ".jpeg": true, ".png": true, ".bmp": true,
	}
)

// AttachmentRef is the raw attachment reference found in a listing row: a
// direct href, or an attribute carrying one or more candidate file names.
type AttachmentRef struct {
	Href   string
	Images string
}

func (r AttachmentRef) IsEmpty() bool {
	return strings.TrimSpace(r.Href) == "" && strings.TrimSpace(r.Images) == ""
}

// Resolver turns attachment references into canonical download URLs.
type Resolver struct {
	base   *url.URL
	client *http.Client
}

// NewResolver creates a resolver for host (scheme and authority, e.g.
// https://dps.psx.com.pk). A nil client gets a short-timeout default.
func NewResolver(host string, client *http.Client) (*Resolver, error) {
	base, err := url.Parse(strings.TrimRight(host, "/"))
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: headTimeout}
	}
	return &Resolver{base: base, client: client}, nil
}

// Host returns the scheme and authority every resolved URL starts with.
func (r *Resolver) Host() string {
	return r.base.Scheme + "://" + r.base.Host
}

// Resolve returns the download URL for ref, or "" when nothing viable was
// found. The document-namespace upgrade is best effort and never fails.
func (r *Resolver) Resolve(ctx context.Context, ref AttachmentRef) string {
	return r.ResolveKnown(ctx, ref, nil)
}

// ResolveKnown is Resolve with a lookup of already persisted URLs. When the
// reference or its document-namespace candidate is known, that URL is returned
// without probing, so a stored announcement keeps the key it was saved under.
func (r *Resolver) ResolveKnown(ctx context.Context, ref AttachmentRef, known func(string) bool) string {
	resolved := r.resolveRef(ref)
	if resolved == "" {
		return ""
	}
	if known != nil {
		if known(resolved) {
			return resolved
		}
		if candidate := r.documentCandidate(resolved); candidate != "" && known(candidate) {
			slog.Debug("Reusing stored document URL", "from", resolved, "to", candidate)
			return candidate
		}
	}
	return r.upgrade(ctx, resolved)
}

func (r *Resolver) resolveRef(ref AttachmentRef) string {
	if href := strings.TrimSpace(ref.Href); href != "" && href != "#" && !strings.HasPrefix(href, "javascript:") {
		return r.absolute(href)
	}

	candidates := splitCandidates(ref.Images)
	if len(candidates) == 0 {
		return ""
	}

	chosen := candidates[len(candidates)-1]
	for _, c := range candidates {
		if hasKnownExtension(c) {
			chosen = c
			break
		}
	}

	if imageExtensions[strings.ToLower(path.Ext(chosen))] {
		return r.absolute(imagePath + path.Base(chosen))
	}
	return r.absolute(attachmentPath + path.Base(chosen))
}

// absolute resolves href against the host. Links pointing at another host are
// dropped so every result shares the host's scheme and authority.
func (r *Resolver) absolute(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		slog.Debug("Unparseable attachment href", "href", href, "err", err)
		return ""
	}
	abs := r.base.ResolveReference(u)
	if abs.Scheme != r.base.Scheme || abs.Host != r.base.Host {
		slog.Debug("Attachment href points off-site", "href", href)
		return ""
	}
	return abs.String()
}

func (r *Resolver) upgrade(ctx context.Context, resolved string) string {
	candidate := r.documentCandidate(resolved)
	if candidate == "" || !r.exists(ctx, candidate) {
		return resolved
	}

	slog.Debug("Upgraded attachment to document URL", "from", resolved, "to", candidate)
	return candidate
}

// documentCandidate returns the /download/document/<id>.pdf URL for resolved,
// or "" when resolved is already in that namespace or carries no id.
func (r *Resolver) documentCandidate(resolved string) string {
	u, err := url.Parse(resolved)
	if err != nil || strings.HasPrefix(u.Path, documentPath) {
		return ""
	}

	m := documentIDPattern.FindStringSubmatch(u.Path)
	if len(m) < 2 {
		return ""
	}
	return r.absolute(documentPath + m[1] + ".pdf")
}

func (r *Resolver) exists(ctx context.Context, target string) bool {
	ctx, cancel := context.WithTimeout(ctx, headTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		slog.Debug("Document check failed", "url", target, "err", err)
		return false
	}
	resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func splitCandidates(raw string) []string {
	var out []string
	for _, part := range candidateSeparators.Split(strings.TrimSpace(raw), -1) {
		if part = strings.Trim(part, `"'[]`); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func hasKnownExtension(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".pdf" || imageExtensions[ext]
}
