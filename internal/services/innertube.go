// Innertube [PlaylistService] implementation
//
// Talks to the youtubei/v1 endpoints used by the YouTube web client, authenticated with headers captured from a
// signed-in browser session.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/wlx/internal/payload"
	"github.com/desertthunder/wlx/internal/shared"
)

const (
	defaultOrigin        = "https://www.youtube.com"
	defaultClientVersion = "2.20260101.00.00"
	clientName           = "WEB"
	clientNameID         = "1"

	PathBrowse = "browse"
	PathEdit   = "browse/edit_playlist"
)

// InnertubeConfig holds the client context sent with every request.
type InnertubeConfig struct {
	Origin            string
	APIKey            string
	ClientVersion     string
	HL                string
	GL                string
	VisitorData       string
	RequestsPerSecond float64
	Timeout           time.Duration
}

// InnertubeConfigFrom maps the application config onto the client config.
func InnertubeConfigFrom(c *shared.Config) InnertubeConfig {
	yt := c.Credentials.YouTube
	return InnertubeConfig{
		Origin:            yt.Origin,
		APIKey:            yt.APIKey,
		ClientVersion:     yt.ClientVersion,
		HL:                yt.HL,
		GL:                yt.GL,
		VisitorData:       yt.VisitorData,
		RequestsPerSecond: c.Client.RequestsPerSecond,
		Timeout:           time.Duration(c.Client.TimeoutSeconds) * time.Second,
	}
}

// InnertubeClient implements [PlaylistService] over HTTP.
type InnertubeClient struct {
	cfg        InnertubeConfig
	headers    HeaderProvider
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewInnertubeClient creates a client. A nil http client gets one with the configured timeout; a non-positive
// request rate disables the limiter.
func NewInnertubeClient(cfg InnertubeConfig, headers HeaderProvider, client *http.Client) *InnertubeClient {
	if cfg.Origin == "" {
		cfg.Origin = defaultOrigin
	}
	if cfg.ClientVersion == "" {
		cfg.ClientVersion = defaultClientVersion
	}
	if cfg.HL == "" {
		cfg.HL = "en"
	}
	if cfg.GL == "" {
		cfg.GL = "US"
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if headers == nil {
		headers = StaticHeaders{}
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &InnertubeClient{
		cfg:        cfg,
		headers:    headers,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Origin returns the configured site origin.
func (c *InnertubeClient) Origin() string { return c.cfg.Origin }

func (c *InnertubeClient) clientContext() map[string]any {
	client := map[string]any{
		"clientName":    clientName,
		"clientVersion": c.cfg.ClientVersion,
		"hl":            c.cfg.HL,
		"gl":            c.cfg.GL,
	}
	if c.cfg.VisitorData != "" {
		client["visitorData"] = c.cfg.VisitorData
	}
	return map[string]any{"client": client}
}

// Browse fetches one page of a playlist.
func (c *InnertubeClient) Browse(ctx context.Context, req BrowseRequest) (payload.Node, error) {
	body := map[string]any{"context": c.clientContext()}
	switch {
	case req.Continuation != "":
		body["continuation"] = req.Continuation
	case req.BrowseID != "":
		body["browseId"] = req.BrowseID
		if req.Params != "" {
			body["params"] = req.Params
		}
	default:
		return payload.Node{}, fmt.Errorf("%w: browse needs a continuation or a browse id", shared.ErrInvalidArgument)
	}

	return c.post(ctx, PathBrowse, body)
}

// EditPlaylist sends playlist edit actions. The returned status is not checked; see [CheckEditStatus].
func (c *InnertubeClient) EditPlaylist(ctx context.Context, req EditRequest) (*EditResponse, error) {
	if len(req.Actions) == 0 {
		return nil, fmt.Errorf("%w: edit requires at least one action", shared.ErrInvalidArgument)
	}

	body := map[string]any{
		"context":    c.clientContext(),
		"playlistId": req.PlaylistID,
		"actions":    req.Actions,
	}
	if req.Params != "" {
		body["params"] = req.Params
	}

	node, err := c.post(ctx, PathEdit, body)
	if err != nil {
		return nil, err
	}

	return &EditResponse{Status: shared.NormalizeText(node.Get("status").String()), Raw: node}, nil
}

func (c *InnertubeClient) endpoint(path string) string {
	q := url.Values{}
	q.Set("prettyPrint", "false")
	if c.cfg.APIKey != "" {
		q.Set("key", c.cfg.APIKey)
	}
	return fmt.Sprintf("%s/youtubei/v1/%s?%s", c.cfg.Origin, path, q.Encode())
}

func (c *InnertubeClient) post(ctx context.Context, path string, body map[string]any) (payload.Node, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return payload.Node{}, fmt.Errorf("failed to encode request: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return payload.Node{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(data))
	if err != nil {
		return payload.Node{}, fmt.Errorf("failed to create request: %w", err)
	}

	session, err := c.headers.Headers(ctx)
	if err != nil {
		return payload.Node{}, err
	}
	copySessionHeaders(req.Header, session)

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Youtube-Client-Name", clientNameID)
	req.Header.Set("X-Youtube-Client-Version", c.cfg.ClientVersion)
	req.Header.Set("X-Origin", c.cfg.Origin)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return payload.Node{}, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return payload.Node{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return payload.Node{}, &RemoteRequestError{Path: path, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	return payload.Parse(raw)
}
