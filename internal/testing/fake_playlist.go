package testing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/desertthunder/wlx/internal/payload"
	"github.com/desertthunder/wlx/internal/services"
)

type obj = map[string]any
type arr = []any

// FakeVideo is one row of a [FakePlaylist].
type FakeVideo struct {
	SetVideoID string
	VideoID    string
	Title      string
	Channel    string
	Length     string
	Published  string
}

// FakePlaylist is an in-memory [services.PlaylistService] that renders innertube-shaped pages.
//
// Videos are stored oldest first. When Order is not [services.OrderOldestFirst] pages are served newest first.
type FakePlaylist struct {
	mu sync.Mutex

	Videos   []FakeVideo
	PageSize int
	Order    int

	// SetOrderLag is the number of set-order requests acknowledged without taking effect.
	SetOrderLag int
	// EchoSortOnEdit includes the sort menu in set-order responses.
	EchoSortOnEdit bool
	// FailBatch rejects every multi-action remove.
	FailBatch bool
	// RemoveErr, when set, is consulted before each single remove; a non-nil error is returned as is.
	RemoveErr func(setVideoID string, attempt int) error
	// EditStatus overrides the status reported by every edit.
	EditStatus string
	// OnBrowse runs at the start of every browse call, outside the lock.
	OnBrowse func(call int)

	BrowseCalls       int
	EditCalls         int
	SetOrderCalls     int
	BatchCalls        int
	SingleRemoveCalls int
	Removed           []string

	removeAttempts map[string]int
}

// NewFakePlaylist creates a playlist of n videos with ids s1..sn / v1..vn, already sorted oldest first.
func NewFakePlaylist(n int) *FakePlaylist {
	f := &FakePlaylist{PageSize: 100, Order: services.OrderOldestFirst}
	for i := 1; i <= n; i++ {
		f.Videos = append(f.Videos, FakeVideo{
			SetVideoID: fmt.Sprintf("s%d", i),
			VideoID:    fmt.Sprintf("v%d", i),
			Title:      fmt.Sprintf("Video %d", i),
			Channel:    fmt.Sprintf("Channel %d", i%7),
			Length:     fmt.Sprintf("%d:%02d", i%60, i%60),
			Published:  fmt.Sprintf("%d days ago", i),
		})
	}
	return f
}

// Len returns the number of videos left.
func (f *FakePlaylist) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Videos)
}

// Rotate assigns a new setVideoId to the video currently holding setVideoID and returns it.
func (f *FakePlaylist) Rotate(setVideoID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, v := range f.Videos {
		if v.SetVideoID == setVideoID {
			f.Videos[i].SetVideoID = setVideoID + "-r"
			return f.Videos[i].SetVideoID
		}
	}
	return ""
}

// Insert adds a video at position i of the stored order.
func (f *FakePlaylist) Insert(i int, v FakeVideo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Videos = append(f.Videos[:i], append([]FakeVideo{v}, f.Videos[i:]...)...)
}

func (f *FakePlaylist) view() []FakeVideo {
	out := make([]FakeVideo, len(f.Videos))
	copy(out, f.Videos)
	if f.Order != services.OrderOldestFirst {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

func (f *FakePlaylist) pageSize() int {
	if f.PageSize <= 0 {
		return 100
	}
	return f.PageSize
}

func (f *FakePlaylist) Browse(ctx context.Context, req services.BrowseRequest) (payload.Node, error) {
	if err := ctx.Err(); err != nil {
		return payload.Node{}, err
	}

	f.mu.Lock()
	f.BrowseCalls++
	call := f.BrowseCalls
	hook := f.OnBrowse
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	offset := 0
	if req.Continuation != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(req.Continuation, "tok-"))
		if err != nil {
			return payload.Node{}, &services.RemoteRequestError{Path: services.PathBrowse, StatusCode: 400, Body: "INVALID_ARGUMENT"}
		}
		offset = n
	}

	view := f.view()
	end := min(offset+f.pageSize(), len(view))
	if offset > end {
		offset = end
	}

	items := arr{}
	for _, v := range view[offset:end] {
		items = append(items, obj{"playlistVideoRenderer": VideoRenderer(v)})
	}
	if end < len(view) {
		items = append(items, obj{"continuationItemRenderer": obj{
			"continuationEndpoint": obj{"continuationCommand": obj{"token": fmt.Sprintf("tok-%d", end)}},
		}})
	}

	if req.Continuation != "" {
		return payload.Wrap(obj{"onResponseReceivedActions": arr{
			obj{"appendContinuationItemsAction": obj{"continuationItems": items}},
		}}), nil
	}

	return payload.Wrap(obj{
		"metadata": obj{"playlistMetadataRenderer": obj{"title": "Watch later"}},
		"contents": obj{"twoColumnBrowseResultsRenderer": obj{"tabs": arr{obj{"tabRenderer": obj{"content": obj{
			"sectionListRenderer": obj{"contents": arr{obj{"itemSectionRenderer": obj{"contents": arr{
				obj{"playlistVideoListRenderer": obj{"contents": items}},
			}}}}},
		}}}}}},
		"header": obj{"playlistHeaderRenderer": obj{"sortFilterSubMenu": SortMenu(f.Order)}},
		"sidebar": obj{"playlistSidebarRenderer": obj{"items": arr{
			obj{"playlistSidebarPrimaryInfoRenderer": obj{"stats": arr{
				obj{"runs": arr{obj{"text": strconv.Itoa(len(view))}, obj{"text": " videos"}}},
				obj{"simpleText": "No views"},
				obj{"runs": arr{obj{"text": "Updated today"}}},
			}}},
		}}},
	}), nil
}

func (f *FakePlaylist) EditPlaylist(ctx context.Context, req services.EditRequest) (*services.EditResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.EditCalls++

	resp := obj{"status": services.StatusSucceeded}
	var removes []string
	for _, a := range req.Actions {
		switch a.Action {
		case payload.ActionSetPlaylistOrder:
			f.SetOrderCalls++
			if f.SetOrderCalls > f.SetOrderLag && a.PlaylistVideoOrder != nil {
				f.Order = *a.PlaylistVideoOrder
			}
			if f.EchoSortOnEdit {
				resp["actions"] = arr{obj{"updatePlaylistAction": SortMenu(f.Order)}}
			}
		case payload.ActionRemoveVideo:
			removes = append(removes, a.SetVideoID)
		}
	}

	if len(removes) > 1 {
		f.BatchCalls++
		if f.FailBatch {
			return nil, &services.RemoteRequestError{Path: services.PathEdit, StatusCode: 500, Body: "batch rejected"}
		}
		for _, id := range removes {
			if f.indexOf(id) < 0 {
				return nil, &services.RemoteRequestError{Path: services.PathEdit, StatusCode: 409, Body: "ABORTED"}
			}
		}
		for _, id := range removes {
			f.remove(id)
		}
	} else if len(removes) == 1 {
		id := removes[0]
		f.SingleRemoveCalls++
		if f.removeAttempts == nil {
			f.removeAttempts = make(map[string]int)
		}
		f.removeAttempts[id]++
		if f.RemoveErr != nil {
			if err := f.RemoveErr(id, f.removeAttempts[id]); err != nil {
				return nil, err
			}
		}
		if f.indexOf(id) < 0 {
			return nil, &services.RemoteRequestError{Path: services.PathEdit, StatusCode: 409, Body: "ABORTED"}
		}
		f.remove(id)
	}

	if f.EditStatus != "" {
		resp["status"] = f.EditStatus
	}

	node := payload.Wrap(resp)
	return &services.EditResponse{Status: node.Get("status").String(), Raw: node}, nil
}

func (f *FakePlaylist) indexOf(setVideoID string) int {
	for i, v := range f.Videos {
		if v.SetVideoID == setVideoID {
			return i
		}
	}
	return -1
}

func (f *FakePlaylist) remove(setVideoID string) {
	i := f.indexOf(setVideoID)
	if i < 0 {
		return
	}
	f.Videos = append(f.Videos[:i], f.Videos[i+1:]...)
	f.Removed = append(f.Removed, setVideoID)
}

// VideoRenderer renders v as a playlistVideoRenderer.
func VideoRenderer(v FakeVideo) map[string]any {
	return obj{
		"videoId":           v.VideoID,
		"title":             obj{"runs": arr{obj{"text": v.Title}}},
		"shortBylineText":   obj{"runs": arr{obj{"text": v.Channel}}},
		"lengthText":        obj{"simpleText": v.Length},
		"publishedTimeText": obj{"simpleText": v.Published},
		"isPlayable":        true,
		"menu": obj{"menuRenderer": obj{"items": arr{
			obj{"menuServiceItemRenderer": obj{"serviceEndpoint": obj{"playlistEditEndpoint": obj{
				"actions": arr{obj{"action": payload.ActionRemoveVideo, "setVideoId": v.SetVideoID}},
			}}}},
		}}},
	}
}

// SortMenu renders a sort menu with the item for selected marked.
func SortMenu(selected int) map[string]any {
	item := func(title string, order int) obj {
		return obj{
			"title":    title,
			"selected": order == selected,
			"serviceEndpoint": obj{"playlistEditEndpoint": obj{"actions": arr{
				obj{"action": payload.ActionSetPlaylistOrder, "playlistVideoOrder": order},
			}}},
		}
	}
	return obj{"sortFilterSubMenuRenderer": obj{
		"title": "Sort",
		"subMenuItems": arr{
			item("Date added (newest)", 1),
			item("Date added (oldest)", services.OrderOldestFirst),
			item("Most popular", 3),
		},
	}}
}
