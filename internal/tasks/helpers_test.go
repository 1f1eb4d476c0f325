package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/desertthunder/wlx/internal/payload"
	"github.com/desertthunder/wlx/internal/services"
	tu "github.com/desertthunder/wlx/internal/testing"
)

// sleepRecorder replaces real waits and records requested durations.
type sleepRecorder struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, d)
	return nil
}

func (s *sleepRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// pagedService serves fixed pages keyed by continuation token; "" is the first page.
type pagedService struct {
	pages map[string]map[string]any
	calls []string
}

func (p *pagedService) Browse(_ context.Context, req services.BrowseRequest) (payload.Node, error) {
	p.calls = append(p.calls, req.Continuation)
	page, ok := p.pages[req.Continuation]
	if !ok {
		return payload.Node{}, &services.RemoteRequestError{Path: services.PathBrowse, StatusCode: 404, Body: "NOT_FOUND"}
	}
	return payload.Wrap(page), nil
}

func (p *pagedService) EditPlaylist(context.Context, services.EditRequest) (*services.EditResponse, error) {
	return &services.EditResponse{Status: services.StatusSucceeded}, nil
}

func listPage(videos []tu.FakeVideo, tokens ...string) map[string]any {
	items := []any{}
	for _, v := range videos {
		items = append(items, map[string]any{"playlistVideoRenderer": tu.VideoRenderer(v)})
	}
	for _, t := range tokens {
		items = append(items, map[string]any{"continuationItemRenderer": map[string]any{
			"continuationEndpoint": map[string]any{"continuationCommand": map[string]any{"token": t}},
		}})
	}
	return map[string]any{"onResponseReceivedActions": []any{
		map[string]any{"appendContinuationItemsAction": map[string]any{"continuationItems": items}},
	}}
}

func video(id string) tu.FakeVideo {
	return tu.FakeVideo{SetVideoID: "s" + id, VideoID: "v" + id, Title: "Video " + id, Channel: "Channel", Length: "1:00", Published: "1 day ago"}
}

func quietSettingsScanner(svc services.PlaylistService) (*Scanner, *sleepRecorder) {
	rec := &sleepRecorder{}
	s := NewScanner(svc, WatchLater(), nil, nil)
	s.sleep = rec.sleep
	return s, rec
}

func intPtr(v int) *int { return &v }
