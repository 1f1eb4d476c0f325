// package services defines the playlist service contract and its innertube implementation
package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/wlx/internal/payload"
)

const (
	// StatusSucceeded is the edit status the server reports for an applied mutation.
	StatusSucceeded = "STATUS_SUCCEEDED"
	// OrderOldestFirst is the playlistVideoOrder value for "date added (oldest)".
	OrderOldestFirst = 2
	// DefaultEditParams are the edit_playlist params sent for Watch Later mutations.
	DefaultEditParams = "CAFAAQ%3D%3D"
)

// PlaylistService is the remote playlist contract. Callers issue requests sequentially.
type PlaylistService interface {
	// Browse fetches a page: the first page by browse id (and optional params), later pages by continuation.
	Browse(ctx context.Context, req BrowseRequest) (payload.Node, error)

	// EditPlaylist applies actions to a playlist and returns the reported status with the raw response.
	EditPlaylist(ctx context.Context, req EditRequest) (*EditResponse, error)
}

// BrowseRequest selects a page. When Continuation is set, BrowseID and Params are ignored.
type BrowseRequest struct {
	Continuation string
	BrowseID     string
	Params       string
}

// EditAction is one playlistEditEndpoint action.
type EditAction struct {
	Action             string `json:"action"`
	SetVideoID         string `json:"setVideoId,omitempty"`
	PlaylistVideoOrder *int   `json:"playlistVideoOrder,omitempty"`
}

// EditRequest mutates a playlist.
type EditRequest struct {
	PlaylistID string
	Actions    []EditAction
	Params     string
}

// EditResponse is the decoded result of an edit.
type EditResponse struct {
	Status string
	Raw    payload.Node
}

// BrowseIDFor returns the browse id of a playlist.
func BrowseIDFor(playlistID string) string {
	return "VL" + playlistID
}

// RemoveActions builds one remove action per non-empty setVideoId.
func RemoveActions(setVideoIDs ...string) []EditAction {
	actions := make([]EditAction, 0, len(setVideoIDs))
	for _, id := range setVideoIDs {
		if id == "" {
			continue
		}
		actions = append(actions, EditAction{Action: payload.ActionRemoveVideo, SetVideoID: id})
	}
	return actions
}

// SetOrderAction builds the action that changes the playlist sort order.
func SetOrderAction(order int) EditAction {
	return EditAction{Action: payload.ActionSetPlaylistOrder, PlaylistVideoOrder: &order}
}

// CheckEditStatus rejects responses whose status is present and not succeeded.
func CheckEditStatus(path, label string, resp *EditResponse) error {
	if resp == nil {
		return &RemoteRequestError{Path: path, Body: fmt.Sprintf("%s: empty response", label)}
	}
	if resp.Status != "" && resp.Status != StatusSucceeded {
		return &RemoteRequestError{
			Path:       path,
			StatusCode: 200,
			Body:       fmt.Sprintf("%s failed with API status %q", label, resp.Status),
		}
	}
	return nil
}
