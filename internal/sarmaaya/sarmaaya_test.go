package sarmaaya

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shanehull/psxann/internal/psx"
)

const payload = `{
  "success": true,
  "response": [
    {
      "symbol": "LUCK",
      "announcementTitle": " Financial Results for the Quarter ",
      "postingDate": "2026-10-14T15:45:00",
      "attachments": ["/download/document/1.gif", "/download/document/1.pdf"],
      "periodEnded": "2026-09-30"
    },
    {
      "symbol": "ogdc",
      "announcementTitle": "Board Meeting",
      "postingDate": "14 Oct",
      "attachments": [{"url": "https://cdn.example.com/files/2.JPG"}, "notes.txt"]
    },
    {
      "symbol": "HBL",
      "announcementTitle": "Credit Rating",
      "postingDate": "2026-10-13",
      "attachments": []
    }
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL+"/api/announcements/result-announcements", "", srv.Client())
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2026, 10, 15, 1, 0, 0, 0, time.UTC) }
	return c
}

func TestClient_Fetch(t *testing.T) {
	var query map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{"from": r.URL.Query().Get("from"), "to": r.URL.Query().Get("to")}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	})

	got, err := c.Fetch(context.Background(), Query{Days: 7})
	require.NoError(t, err)
	require.Len(t, got, 3)

	// 01:00 UTC is 06:00 in Karachi, so the window is in local days.
	assert.Equal(t, map[string]string{"from": "2026-10-08", "to": "2026-10-15"}, query)

	assert.Equal(t, "LUCK", got[0].Ticker)
	assert.Equal(t, "Financial Results for the Quarter", got[0].Title)
	assert.Equal(t, psx.DefaultHost+"/download/document/1.pdf", got[0].AttachmentURL)
	assert.Equal(t, "2026-09-30", got[0].PeriodEnded)
	assert.Equal(t, "sarmaaya", got[0].Source)
	assert.True(t, got[0].PublishedAt.Equal(time.Date(2026, 10, 14, 15, 45, 0, 0, psx.Location())))

	assert.Equal(t, "OGDC", got[1].Ticker)
	assert.Equal(t, "https://cdn.example.com/files/2.JPG", got[1].AttachmentURL)
	assert.Equal(t, "14 Oct", got[1].PublishedRaw)
	assert.True(t, got[1].PublishedAt.IsZero())

	assert.Empty(t, got[2].AttachmentURL)
}

func TestClient_FetchFiltersTicker(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	})

	got, err := c.Fetch(context.Background(), Query{Ticker: "Ogdc", Days: 7})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Board Meeting", got[0].Title)
}

func TestClient_FetchUnsuccessful(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "response": null}`))
	})

	got, err := c.Fetch(context.Background(), Query{Days: 7})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClient_FetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusBadGateway)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.Fetch(context.Background(), Query{Days: 7})
			assert.Error(t, err)
		})
	}
}

func TestClient_FetchToleratesOddPeriodEnded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "response": [
			{"symbol": "LUCK", "announcementTitle": "A", "postingDate": "2026-10-14", "periodEnded": 2026},
			{"symbol": "LUCK", "announcementTitle": "B", "postingDate": "2026-10-14", "periodEnded": {"quarter": 3}},
			{"symbol": "LUCK", "announcementTitle": "C", "postingDate": "2026-10-14", "periodEnded": null},
			{"symbol": "LUCK", "announcementTitle": "D", "postingDate": "2026-10-14", "periodEnded": [" 2026-06-30 "]},
			{"symbol": "LUCK", "announcementTitle": "E", "postingDate": "2026-10-14", "periodEnded": " 2026-06-30 "}
		]}`))
	})

	got, err := c.Fetch(context.Background(), Query{Days: 7})
	require.NoError(t, err)
	require.Len(t, got, 5)

	var periods []string
	for _, a := range got {
		periods = append(periods, a.PeriodEnded)
	}
	assert.Equal(t, []string{"2026", "", "", "", "2026-06-30"}, periods)
}
