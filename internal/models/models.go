// package models defines the data model for the playlist pruner
package models

import (
	"time"
)

// Thumbnail is one image rendition attached to an entry.
type Thumbnail struct {
	URL    string `json:"url" yaml:"url"`
	Width  *int   `json:"width" yaml:"width"`
	Height *int   `json:"height" yaml:"height"`
}

// Entry is a single deletable playlist row.
//
// SetVideoID is assigned by the server and may change under concurrent edits; VideoID is the stable content
// identifier and may be empty for unavailable rows.
type Entry struct {
	SetVideoID        string      `json:"setVideoId" yaml:"setVideoId"`
	VideoID           string      `json:"videoId" yaml:"videoId"`
	Title             string      `json:"title" yaml:"title"`
	ChannelName       string      `json:"channelName" yaml:"channelName"`
	ChannelID         string      `json:"channelId" yaml:"channelId"`
	PublishedTimeText string      `json:"publishedTimeText" yaml:"publishedTimeText"`
	LengthText        string      `json:"lengthText" yaml:"lengthText"`
	IsPlayable        bool        `json:"isPlayable" yaml:"isPlayable"`
	UnavailableReason string      `json:"unavailableReason" yaml:"unavailableReason"`
	Thumbnails        []Thumbnail `json:"thumbnails" yaml:"thumbnails"`
	Badges            []string    `json:"badges" yaml:"badges"`
	OrderIndex        int         `json:"orderIndex" yaml:"orderIndex"`
	RawRenderer       any         `json:"rawRenderer,omitempty" yaml:"rawRenderer,omitempty"`
}

// SortItem is one option of the playlist sort menu.
type SortItem struct {
	Title              string `json:"title" yaml:"title"`
	Selected           bool   `json:"selected" yaml:"selected"`
	PlaylistVideoOrder *int   `json:"playlistVideoOrder" yaml:"playlistVideoOrder"`
}

// SortState is a snapshot of the server's sort selection.
type SortState struct {
	Title         string     `json:"title" yaml:"title"`
	SelectedTitle string     `json:"selectedTitle" yaml:"selectedTitle"`
	SelectedOrder *int       `json:"selectedOrder" yaml:"selectedOrder"`
	Items         []SortItem `json:"items" yaml:"items"`
}

// HasOrder reports whether the selected order equals order. A nil state never matches.
func (s *SortState) HasOrder(order int) bool {
	return s != nil && s.SelectedOrder != nil && *s.SelectedOrder == order
}

// PlaylistMetadata holds header information captured from the first page of a scan.
type PlaylistMetadata struct {
	PlaylistID         string   `json:"playlistId" yaml:"playlistId"`
	Title              string   `json:"title" yaml:"title"`
	Description        string   `json:"description" yaml:"description"`
	Stats              []string `json:"stats" yaml:"stats"`
	ReportedVideoCount *int     `json:"reportedVideoCount" yaml:"reportedVideoCount"`
	Owner              string   `json:"owner" yaml:"owner"`
	LastUpdatedText    string   `json:"lastUpdatedText" yaml:"lastUpdatedText"`
}

// ScanStats describes how a scan went.
type ScanStats struct {
	StartedAt      time.Time `json:"startedAt" yaml:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt" yaml:"finishedAt"`
	PagesFetched   int       `json:"pagesFetched" yaml:"pagesFetched"`
	UniqueEntries  int       `json:"uniqueEntries" yaml:"uniqueEntries"`
	TokensConsumed int       `json:"tokensConsumed" yaml:"tokensConsumed"`
}

// ScanResult is the outcome of one full paginated scan. It is not modified after being returned.
type ScanResult struct {
	Entries          []Entry           `json:"entries" yaml:"entries"`
	PlaylistMetadata *PlaylistMetadata `json:"playlistMetadata" yaml:"playlistMetadata"`
	SortState        *SortState        `json:"sortState" yaml:"sortState"`
	Scan             ScanStats         `json:"scan" yaml:"scan"`
}

// DeletionTarget is an entry selected for removal together with its position at scan time.
type DeletionTarget struct {
	Entry            Entry
	OrderIndexAtScan int
}

// NewDeletionTargets selects the first min(n, len(entries)) entries as targets.
func NewDeletionTargets(entries []Entry, n int) []DeletionTarget {
	if n > len(entries) {
		n = len(entries)
	}
	if n < 0 {
		n = 0
	}

	targets := make([]DeletionTarget, n)
	for i := range n {
		targets[i] = DeletionTarget{Entry: entries[i], OrderIndexAtScan: entries[i].OrderIndex}
	}
	return targets
}

// AuditRecord documents one successful removal.
type AuditRecord struct {
	SequenceNumber    int       `json:"sequenceNumber" yaml:"sequenceNumber"`
	Timestamp         time.Time `json:"timestamp" yaml:"timestamp"`
	OrderIndexAtScan  *int      `json:"orderIndexAtScan" yaml:"orderIndexAtScan"`
	SetVideoID        string    `json:"setVideoId" yaml:"setVideoId"`
	VideoID           string    `json:"videoId" yaml:"videoId"`
	Title             string    `json:"title" yaml:"title"`
	ChannelName       string    `json:"channelName" yaml:"channelName"`
	PublishedTimeText string    `json:"publishedTimeText" yaml:"publishedTimeText"`
	LengthText        string    `json:"lengthText" yaml:"lengthText"`
}
