package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cityagenda/event-platform/internal/logger"
	appctx "github.com/cityagenda/event-platform/internal/pkg/context"
)

const (
	appName        = "event-platform"
	eventURIPrefix = "/events/"
	timeLayout     = "2006-01-02 15:04:05"
)

// Client talks to the hit-counting stats service. Every failure is absorbed:
// a hit that gets lost or a stats outage must never fail the calling
// operation, so RecordView only logs errors and ViewCounts degrades to an
// all-zero map.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type endpointHit struct {
	App       string `json:"app"`
	URI       string `json:"uri"`
	IP        string `json:"ip"`
	Timestamp string `json:"timestamp"`
}

type viewStats struct {
	App  string `json:"app"`
	URI  string `json:"uri"`
	Hits int64  `json:"hits"`
}

// RecordView posts a hit for uri. Fire-and-forget.
func (c *Client) RecordView(ctx context.Context, uri, ip string) {
	if c.baseURL == "" {
		return
	}
	hit := endpointHit{
		App:       appName,
		URI:       uri,
		IP:        ip,
		Timestamp: time.Now().UTC().Format(timeLayout),
	}
	body, _ := json.Marshal(hit)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/hit", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if rid := appctx.GetRequestID(ctx); rid != "" {
		req.Header.Set("X-Request-Id", rid)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.WithCtx(ctx).Warn().Err(err).Str("uri", uri).Msg("stats hit post failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		logger.WithCtx(ctx).Warn().Int("status", resp.StatusCode).Str("uri", uri).Msg("stats hit rejected")
	}
}

// ViewCounts returns hits per event id for the window. Any error yields a
// map of zeroes for the requested ids.
func (c *Client) ViewCounts(ctx context.Context, eventIDs []int64, start, end time.Time) map[int64]int64 {
	views := make(map[int64]int64, len(eventIDs))
	for _, id := range eventIDs {
		views[id] = 0
	}
	if c.baseURL == "" || len(eventIDs) == 0 {
		return views
	}

	q := url.Values{}
	q.Set("start", start.UTC().Format(timeLayout))
	q.Set("end", end.UTC().Format(timeLayout))
	q.Set("unique", "false")
	for _, id := range eventIDs {
		q.Add("uris", EventURI(id))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stats?"+q.Encode(), nil)
	if err != nil {
		return views
	}
	if rid := appctx.GetRequestID(ctx); rid != "" {
		req.Header.Set("X-Request-Id", rid)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.WithCtx(ctx).Warn().Err(err).Msg("stats query failed")
		return views
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logger.WithCtx(ctx).Warn().Int("status", resp.StatusCode).Msg("stats query rejected")
		return views
	}

	var rows []viewStats
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		logger.WithCtx(ctx).Warn().Err(err).Msg("stats response decode failed")
		return views
	}

	for _, row := range rows {
		id, err := eventIDFromURI(row.URI)
		if err != nil {
			continue
		}
		if _, wanted := views[id]; wanted {
			views[id] = row.Hits
		}
	}
	return views
}

// EventURI is the canonical stats uri for a single event page.
func EventURI(eventID int64) string {
	return eventURIPrefix + strconv.FormatInt(eventID, 10)
}

func eventIDFromURI(uri string) (int64, error) {
	rest, ok := strings.CutPrefix(uri, eventURIPrefix)
	if !ok {
		return 0, fmt.Errorf("not an event uri: %s", uri)
	}
	return strconv.ParseInt(rest, 10, 64)
}
