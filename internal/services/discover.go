package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/desertthunder/wlx/internal/payload"
	"github.com/desertthunder/wlx/internal/shared"
)

const initialDataMarker = "ytInitialData"

// DiscoverBrowseParams loads the playlist page and looks for the browse params the web client uses for the
// playlist in its embedded ytInitialData.
func (c *InnertubeClient) DiscoverBrowseParams(ctx context.Context, playlistID string) (string, error) {
	pageURL := fmt.Sprintf("%s/playlist?list=%s", c.cfg.Origin, url.QueryEscape(playlistID))

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	session, err := c.headers.Headers(ctx)
	if err != nil {
		return "", err
	}
	copySessionHeaders(req.Header, session)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &RemoteRequestError{Path: "playlist", StatusCode: resp.StatusCode, Body: string(body)}
	}

	root, err := ParseInitialData(resp.Body)
	if err != nil {
		return "", err
	}

	params, ok := payload.FindBrowseParams(root, BrowseIDFor(playlistID))
	if !ok {
		return "", fmt.Errorf("%w: no browse params for %s in page data", shared.ErrServiceUnavailable, playlistID)
	}
	return params, nil
}

// ParseInitialData extracts the ytInitialData object from a YouTube HTML page.
func ParseInitialData(r io.Reader) (payload.Node, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return payload.Node{}, fmt.Errorf("failed to parse page: %w", err)
	}

	var found payload.Node
	var decodeErr error
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		idx := strings.Index(text, initialDataMarker)
		if idx < 0 {
			return true
		}
		start := strings.Index(text[idx:], "{")
		if start < 0 {
			return true
		}

		dec := json.NewDecoder(strings.NewReader(text[idx+start:]))
		dec.UseNumber()
		root, err := payload.Decode(dec)
		if err != nil {
			decodeErr = err
			return true
		}
		found = root
		return false
	})

	if !found.Exists() {
		if decodeErr != nil {
			return payload.Node{}, fmt.Errorf("%w: decode %s: %v", shared.ErrServiceUnavailable, initialDataMarker, decodeErr)
		}
		return payload.Node{}, fmt.Errorf("%w: %s not found in page", shared.ErrServiceUnavailable, initialDataMarker)
	}
	return found, nil
}
