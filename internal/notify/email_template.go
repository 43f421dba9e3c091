package notify

const emailHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>PSX Digest</title>
  <style>
    body {
      margin: 0;
      padding: 24px;
      background-color: #f3f4f6;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
      color: #111827;
      line-height: 1.5;
    }

    .container {
      max-width: 640px;
      margin: 0 auto;
      background: #ffffff;
      border-radius: 8px;
      border: 1px solid #e5e7eb;
      overflow: hidden;
    }

    .header {
      padding: 20px 24px;
      background: linear-gradient(135deg, #0f3d2e 0%, #1f2937 100%);
      color: #ffffff;
    }

    .header-title {
      font-size: 22px;
      font-weight: 700;
      letter-spacing: 0.03em;
    }

    .header-meta {
      font-size: 13px;
      opacity: 0.85;
    }

    .section {
      padding: 16px 24px;
      border-top: 1px solid #f3f4f6;
    }

    .ticker {
      font-size: 18px;
      font-weight: 700;
      letter-spacing: 0.05em;
    }

    .title {
      font-size: 14px;
      color: #374151;
      margin-bottom: 6px;
    }

    .date {
      font-size: 12px;
      color: #6b7280;
    }

    .badge {
      display: inline-block;
      margin: 6px 6px 0 0;
      padding: 3px 10px;
      font-size: 11px;
      font-weight: 600;
      border-radius: 4px;
      text-transform: uppercase;
      letter-spacing: 0.05em;
      color: #ffffff;
    }

    .strong-bullish { background: #15803d; }
    .bullish { background: #22c55e; }
    .bearish { background: #f97316; }
    .strong-bearish { background: #b91c1c; }

    .signal-tag {
      display: inline-block;
      margin: 6px 4px 0 0;
      padding: 3px 8px;
      font-size: 12px;
      font-weight: 500;
      background: #e0f2fe;
      color: #0369a1;
      border-radius: 4px;
    }

    .context-box {
      margin-top: 10px;
      background: #f9fafb;
      border-left: 3px solid #0f3d2e;
      padding: 10px 14px;
      font-size: 13px;
      color: #374151;
      border-radius: 0 4px 4px 0;
    }

    .cta-button {
      display: inline-block;
      margin-top: 10px;
      padding: 8px 16px;
      font-size: 13px;
      font-weight: 600;
      color: #ffffff !important;
      background: #0f3d2e;
      border-radius: 6px;
      text-decoration: none;
    }

    .footer {
      padding: 16px 24px;
      font-size: 12px;
      color: #9ca3af;
      text-align: center;
      background: #f9fafb;
      border-top: 1px solid #f3f4f6;
    }

    a {
      color: #0b3d91;
      text-decoration: none;
    }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <div class="header-title">PSX Announcements{{if .Ticker}} – {{.Ticker}}{{end}}</div>
      <div class="header-meta">Last {{.Days}} days · source {{.Source}} · {{.GeneratedAt.Format "02 Jan 2006 3:04 PM"}}</div>
    </div>

    {{range .Announcements}}
    <div class="section">
      <div class="ticker">{{.Ticker}}</div>
      <div class="title">{{.Title}}</div>
      <div class="date">{{.PublishedRaw}}</div>
      {{with .Sentiment}}
      <span class="badge {{impactClass .Impact}}">{{.Impact}} {{signed .Score}}</span>
      {{range .Signals}}<span class="signal-tag">{{.}}</span>{{end}}
      {{end}}
      {{with snippet .ExtractedText}}
      <div class="context-box">{{.}}</div>
      {{end}}
      {{if .AttachmentURL}}
      <a href="{{.AttachmentURL}}" class="cta-button" target="_blank" rel="noopener">View Attachment →</a>
      {{end}}
    </div>
    {{end}}

    <div class="footer">
      Generated by psxann
    </div>
  </div>
</body>
</html>`
