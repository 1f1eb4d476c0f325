package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/wlx/internal/shared"
)

const playlistPage = `<!DOCTYPE html><html><head>
<script>var ytcfg = {"INNERTUBE_API_KEY":"KEY"};</script>
</head><body>
<script nonce="x">var ytInitialData = {"sidebar":{"items":[{"browseEndpoint":{"browseId":"VLWL","params":"wAEB"}}]}};</script>
</body></html>`

func TestParseInitialData(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		root, err := ParseInitialData(strings.NewReader(playlistPage))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !root.Get("sidebar").IsObject() {
			t.Error("expected decoded ytInitialData")
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, err := ParseInitialData(strings.NewReader(`<html><script>var x = 1;</script></html>`))
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseInitialData(strings.NewReader(`<html><script>var ytInitialData = {"a":;</script></html>`))
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestDiscoverBrowseParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/playlist" || r.URL.Query().Get("list") != "WL" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Cookie") != "SID=abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(playlistPage))
	}))
	defer srv.Close()

	t.Run("found", func(t *testing.T) {
		c := NewInnertubeClient(InnertubeConfig{Origin: srv.URL}, StaticHeaders{"Cookie": {"SID=abc"}}, nil)
		params, err := c.DiscoverBrowseParams(context.Background(), "WL")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if params != "wAEB" {
			t.Errorf("expected wAEB, got %s", params)
		}
	})

	t.Run("unknown playlist", func(t *testing.T) {
		c := NewInnertubeClient(InnertubeConfig{Origin: srv.URL}, StaticHeaders{"Cookie": {"SID=abc"}}, nil)
		if _, err := c.DiscoverBrowseParams(context.Background(), "LL"); err == nil {
			t.Error("expected error for unknown playlist")
		}
	})

	t.Run("unauthorised", func(t *testing.T) {
		c := NewInnertubeClient(InnertubeConfig{Origin: srv.URL}, nil, nil)
		_, err := c.DiscoverBrowseParams(context.Background(), "WL")
		var rre *RemoteRequestError
		if !errors.As(err, &rre) || rre.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401 RemoteRequestError, got %v", err)
		}
	})
}
