package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// feedSizeLimit bounds how much relay payload is read.
const feedSizeLimit = 8 << 20

func copyBounded(dst *strings.Builder, src io.Reader) (int64, error) {
	return io.Copy(dst, io.LimitReader(src, feedSizeLimit))
}

// Doer executes HTTP requests; tests inject a fixture transport.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

var (
	embedSrcPattern = regexp.MustCompile(`[?&]src=([^&]+)`)
	icalPathPattern = regexp.MustCompile(`/calendar/ical/([^/]+)`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// ExtractCalendarID pulls the calendar identifier out of the supported URL
// shapes: an embed URL with ?src=, a public iCal URL, or a bare calendar
// address.
func ExtractCalendarID(raw string) (string, bool) {
	if m := embedSrcPattern.FindStringSubmatch(raw); m != nil {
		if id, err := url.QueryUnescape(m[1]); err == nil {
			return id, true
		}
		return m[1], true
	}
	if m := icalPathPattern.FindStringSubmatch(raw); m != nil {
		if id, err := url.QueryUnescape(m[1]); err == nil {
			return id, true
		}
		return m[1], true
	}
	if emailPattern.MatchString(raw) || strings.Contains(raw, "@") {
		return raw, true
	}
	return "", false
}

// BuildFeedURL returns the public iCal feed URL for a calendar identifier.
func BuildFeedURL(calendarID string) string {
	return fmt.Sprintf("https://calendar.google.com/calendar/ical/%s/public/basic.ics", url.PathEscape(calendarID))
}

// relay is one endpoint that fetches a calendar feed across the origin
// boundary. Relays are tried in order; the first success wins.
type relay struct {
	name    string
	build   func(target string) string
	wrapped bool // response is JSON with the feed under "contents"
}

var defaultRelays = []relay{
	{
		name:    "allorigins",
		build:   func(t string) string { return "https://api.allorigins.win/get?url=" + url.QueryEscape(t) },
		wrapped: true,
	},
	{
		name:  "corsproxy",
		build: func(t string) string { return "https://corsproxy.io/?" + url.QueryEscape(t) },
	},
	{
		name:  "cors-anywhere",
		build: func(t string) string { return "https://cors-anywhere.herokuapp.com/" + t },
	},
}

// FeedTransport fetches events from a public iCal feed through the relay
// list.
type FeedTransport struct {
	feedURL string
	http    Doer
	relays  []relay
}

// NewFeedTransport creates a transport for the given feed URL.
func NewFeedTransport(feedURL string) *FeedTransport {
	return &FeedTransport{
		feedURL: feedURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		relays:  defaultRelays,
	}
}

// NewFeedTransportWithDoer creates a feed transport with an injected HTTP
// transport and relay list.
func NewFeedTransportWithDoer(feedURL string, doer Doer, relays []relay) *FeedTransport {
	if relays == nil {
		relays = defaultRelays
	}
	return &FeedTransport{feedURL: feedURL, http: doer, relays: relays}
}

// FetchEvents downloads and parses the feed. All relays failing surfaces a
// descriptive error carrying the last relay failure.
func (t *FeedTransport) FetchEvents(ctx context.Context) ([]Event, error) {
	var lastErr error
	for _, r := range t.relays {
		body, err := t.fetchVia(ctx, r)
		if err != nil {
			lastErr = err
			continue
		}
		return ParseFeed(strings.NewReader(body))
	}
	return nil, fmt.Errorf("could not fetch calendar feed through any relay, last error: %w", lastErr)
}

func (t *FeedTransport) fetchVia(ctx context.Context, r relay) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.build(t.feedURL), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := t.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("relay %s: %w", r.name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("relay %s returned %d", r.name, resp.StatusCode)
	}

	if r.wrapped {
		var wrapper struct {
			Contents string `json:"contents"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
			return "", fmt.Errorf("relay %s: %w", r.name, err)
		}
		return wrapper.Contents, nil
	}

	var b strings.Builder
	if _, err := copyBounded(&b, resp.Body); err != nil {
		return "", fmt.Errorf("relay %s: %w", r.name, err)
	}
	return b.String(), nil
}
