package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/wlx/internal/shared"
)

type recorded struct {
	path   string
	query  string
	header http.Header
	body   map[string]any
}

func newTestServer(t *testing.T, status int, response string, calls *[]recorded) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(data, &body)
		*calls = append(*calls, recorded{path: r.URL.Path, query: r.URL.RawQuery, header: r.Header.Clone(), body: body})

		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInnertubeClient(t *testing.T) {
	session := StaticHeaders{
		"Cookie":         {"SID=abc"},
		"Authorization":  {"SAPISIDHASH 1_abc"},
		"Content-Length": {"999"},
	}

	t.Run("New", func(t *testing.T) {
		c := NewInnertubeClient(InnertubeConfig{}, nil, nil)
		if c.Origin() != defaultOrigin {
			t.Errorf("expected default origin, got %s", c.Origin())
		}
		if c.cfg.ClientVersion != defaultClientVersion || c.cfg.HL != "en" || c.cfg.GL != "US" {
			t.Errorf("unexpected defaults %+v", c.cfg)
		}
		if c.httpClient == nil || c.limiter == nil {
			t.Error("expected http client and limiter")
		}
	})

	t.Run("Browse first page", func(t *testing.T) {
		var calls []recorded
		srv := newTestServer(t, http.StatusOK, `{"contents":{"ok":true}}`, &calls)

		c := NewInnertubeClient(InnertubeConfig{Origin: srv.URL, APIKey: "KEY", VisitorData: "VD"}, session, nil)
		node, err := c.Browse(context.Background(), BrowseRequest{BrowseID: BrowseIDFor("WL"), Params: "wAEB"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b, _ := node.Get("contents", "ok").Bool(); !b {
			t.Error("expected decoded response")
		}

		if len(calls) != 1 {
			t.Fatalf("expected 1 call, got %d", len(calls))
		}
		call := calls[0]
		if call.path != "/youtubei/v1/browse" {
			t.Errorf("unexpected path %s", call.path)
		}
		if call.query != "key=KEY&prettyPrint=false" {
			t.Errorf("unexpected query %s", call.query)
		}
		if call.body["browseId"] != "VLWL" || call.body["params"] != "wAEB" {
			t.Errorf("unexpected body %v", call.body)
		}
		client := call.body["context"].(map[string]any)["client"].(map[string]any)
		if client["clientName"] != "WEB" || client["visitorData"] != "VD" {
			t.Errorf("unexpected client context %v", client)
		}
		if call.header.Get("Cookie") != "SID=abc" || call.header.Get("Authorization") == "" {
			t.Error("expected session headers forwarded")
		}
		if call.header.Get("X-Youtube-Client-Name") != "1" || call.header.Get("X-Origin") != srv.URL {
			t.Errorf("unexpected client headers %v", call.header)
		}
	})

	t.Run("Browse continuation", func(t *testing.T) {
		var calls []recorded
		srv := newTestServer(t, http.StatusOK, `{}`, &calls)

		c := NewInnertubeClient(InnertubeConfig{Origin: srv.URL}, session, nil)
		if _, err := c.Browse(context.Background(), BrowseRequest{Continuation: "tok", BrowseID: "VLWL"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls[0].body["continuation"] != "tok" {
			t.Errorf("expected continuation in body, got %v", calls[0].body)
		}
		if _, ok := calls[0].body["browseId"]; ok {
			t.Error("expected browseId omitted for continuation")
		}
		if calls[0].query != "prettyPrint=false" {
			t.Errorf("expected no key param, got %s", calls[0].query)
		}
	})

	t.Run("Browse without target", func(t *testing.T) {
		c := NewInnertubeClient(InnertubeConfig{}, nil, nil)
		_, err := c.Browse(context.Background(), BrowseRequest{})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("EditPlaylist", func(t *testing.T) {
		var calls []recorded
		srv := newTestServer(t, http.StatusOK, `{"status":"STATUS_SUCCEEDED"}`, &calls)

		c := NewInnertubeClient(InnertubeConfig{Origin: srv.URL}, session, nil)
		resp, err := c.EditPlaylist(context.Background(), EditRequest{
			PlaylistID: "WL",
			Actions:    RemoveActions("a", "", "b"),
			Params:     DefaultEditParams,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Status != StatusSucceeded {
			t.Errorf("unexpected status %s", resp.Status)
		}
		if calls[0].path != "/youtubei/v1/browse/edit_playlist" {
			t.Errorf("unexpected path %s", calls[0].path)
		}
		actions := calls[0].body["actions"].([]any)
		if len(actions) != 2 {
			t.Fatalf("expected 2 actions, got %d", len(actions))
		}
		first := actions[0].(map[string]any)
		if first["action"] != "ACTION_REMOVE_VIDEO" || first["setVideoId"] != "a" {
			t.Errorf("unexpected action %v", first)
		}
		if _, ok := first["playlistVideoOrder"]; ok {
			t.Error("expected playlistVideoOrder omitted on remove")
		}
	})

	t.Run("EditPlaylist without actions", func(t *testing.T) {
		c := NewInnertubeClient(InnertubeConfig{}, nil, nil)
		if _, err := c.EditPlaylist(context.Background(), EditRequest{PlaylistID: "WL"}); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("HTTP failure", func(t *testing.T) {
		var calls []recorded
		srv := newTestServer(t, http.StatusConflict, `{"error":{"status":"ABORTED"}}`, &calls)

		c := NewInnertubeClient(InnertubeConfig{Origin: srv.URL}, nil, nil)
		_, err := c.Browse(context.Background(), BrowseRequest{BrowseID: "VLWL"})

		var rre *RemoteRequestError
		if !errors.As(err, &rre) {
			t.Fatalf("expected RemoteRequestError, got %v", err)
		}
		if rre.StatusCode != http.StatusConflict || !rre.Transient() {
			t.Errorf("expected transient 409, got %+v", rre)
		}
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Error("expected error to unwrap to ErrAPIRequest")
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		var calls []recorded
		srv := newTestServer(t, http.StatusOK, `<html>`, &calls)

		c := NewInnertubeClient(InnertubeConfig{Origin: srv.URL}, nil, nil)
		if _, err := c.Browse(context.Background(), BrowseRequest{BrowseID: "VLWL"}); err == nil {
			t.Error("expected decode error")
		}
	})

	t.Run("header provider failure", func(t *testing.T) {
		c := NewInnertubeClient(InnertubeConfig{Origin: "http://127.0.0.1:1"}, FileHeaders{Path: t.TempDir() + "/missing.json"}, nil)
		_, err := c.Browse(context.Background(), BrowseRequest{BrowseID: "VLWL"})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestSetOrderAction(t *testing.T) {
	a := SetOrderAction(OrderOldestFirst)
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"action":"ACTION_SET_PLAYLIST_VIDEO_ORDER","playlistVideoOrder":2}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}
