package payload

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/shared"
)

const (
	ActionRemoveVideo       = "ACTION_REMOVE_VIDEO"
	ActionSetPlaylistOrder  = "ACTION_SET_PLAYLIST_VIDEO_ORDER"
	playlistVideoRenderer   = "playlistVideoRenderer"
	playlistVideoList       = "playlistVideoListRenderer"
	appendContinuationItems = "appendContinuationItemsAction"
	reloadContinuationItems = "reloadContinuationItemsCommand"
)

var nonDigits = regexp.MustCompile(`\D`)

// Page holds what one browse response contributes to a scan.
// Entries are unique by setVideoId within the page and carry no order index yet.
type Page struct {
	Entries []models.Entry
	Tokens  []string
}

type pageBuilder struct {
	includeRaw bool
	page       Page
	setIDs     map[string]struct{}
	tokens     map[string]struct{}
}

// ExtractPage collects deletable entries and continuation tokens from a browse response.
//
// An entry is recognised only through a playlistVideoRenderer whose menu offers a remove action with a non-empty
// setVideoId; other renderers are skipped.
func ExtractPage(root Node, includeRaw bool) Page {
	b := &pageBuilder{
		includeRaw: includeRaw,
		setIDs:     make(map[string]struct{}),
		tokens:     make(map[string]struct{}),
	}

	Walk(root, func(n Node) bool {
		if list := n.Get(playlistVideoList); list.IsObject() {
			b.consumeItems(list.Get("contents"))
			b.pushToken(list.Get("continuations").At(0).Get("nextContinuationData", "continuation"))
		}
		if action := n.Get(appendContinuationItems); action.IsObject() {
			b.consumeItems(action.Get("continuationItems"))
		}
		if cmd := n.Get(reloadContinuationItems); cmd.IsObject() {
			b.consumeItems(cmd.Get("continuationItems"))
		}

		b.pushToken(n.Get("nextContinuationData", "continuation"))
		b.pushToken(n.Get("continuationCommand", "token"))
		return true
	})

	return b.page
}

func (b *pageBuilder) pushToken(n Node) {
	token, ok := n.Str()
	if !ok || token == "" {
		return
	}
	if _, dup := b.tokens[token]; dup {
		return
	}
	b.tokens[token] = struct{}{}
	b.page.Tokens = append(b.page.Tokens, token)
}

func (b *pageBuilder) consumeItems(items Node) {
	for _, item := range items.Items() {
		if r := item.Get(playlistVideoRenderer); r.Exists() {
			b.pushEntry(r)
			continue
		}
		b.pushToken(continuationItemToken(item))
	}
}

func continuationItemToken(item Node) Node {
	cr := item.Get("continuationItemRenderer")
	if t := cr.Get("continuationEndpoint", "continuationCommand", "token"); t.Truthy() {
		return t
	}
	return cr.Get("button", "buttonRenderer", "command", "continuationCommand", "token")
}

// removeSetVideoID returns the setVideoId of the first remove action in the renderer's menu.
func removeSetVideoID(r Node) (string, bool) {
	for _, item := range r.Get("menu", "menuRenderer", "items").Items() {
		actions := item.Get("menuServiceItemRenderer", "serviceEndpoint", "playlistEditEndpoint", "actions")
		for _, action := range actions.Items() {
			if action.Get("action").String() != ActionRemoveVideo {
				continue
			}
			if id, ok := action.Get("setVideoId").Str(); ok {
				return id, true
			}
		}
	}
	return "", false
}

func (b *pageBuilder) pushEntry(r Node) {
	setVideoID, ok := removeSetVideoID(r)
	if !ok || setVideoID == "" {
		return
	}
	if _, dup := b.setIDs[setVideoID]; dup {
		return
	}
	b.setIDs[setVideoID] = struct{}{}

	entry := EntryFromRenderer(r)
	entry.SetVideoID = setVideoID
	if b.includeRaw {
		entry.RawRenderer = r.Raw()
	}
	b.page.Entries = append(b.page.Entries, entry)
}

// EntryFromRenderer reads the descriptive fields of a playlistVideoRenderer.
func EntryFromRenderer(r Node) models.Entry {
	runs := r.Get("shortBylineText", "runs").Items()

	var channel strings.Builder
	channelID := ""
	for _, run := range runs {
		channel.WriteString(run.Get("text").String())
		if channelID == "" {
			channelID = run.Get("navigationEndpoint", "browseEndpoint", "browseId").String()
		}
	}

	lengthText := r.Get("lengthText").Text()
	if lengthText == "" {
		for _, ov := range r.Get("thumbnailOverlays").Items() {
			if status := ov.Get("thumbnailOverlayTimeStatusRenderer"); status.Exists() {
				lengthText = status.Get("text").Text()
				break
			}
		}
	}

	playable := true
	if b, ok := r.Get("isPlayable").Bool(); ok && !b {
		playable = false
	}
	if r.Get("unplayableText").Truthy() {
		playable = false
	}

	thumbs := []models.Thumbnail{}
	for _, t := range r.Get("thumbnail", "thumbnails").Items() {
		thumbs = append(thumbs, models.Thumbnail{
			URL:    t.Get("url").String(),
			Width:  positiveInt(t.Get("width")),
			Height: positiveInt(t.Get("height")),
		})
	}

	badges := []string{}
	for _, badge := range r.Get("badges").Items() {
		label := badge.Get("metadataBadgeRenderer", "label")
		text := shared.NormalizeText(label.String())
		if text == "" {
			text = label.Text()
		}
		if text != "" {
			badges = append(badges, text)
		}
	}

	return models.Entry{
		VideoID:           r.Get("videoId").String(),
		Title:             r.Get("title").Text(),
		ChannelName:       shared.NormalizeText(channel.String()),
		ChannelID:         channelID,
		PublishedTimeText: r.Get("publishedTimeText").Text(),
		LengthText:        lengthText,
		IsPlayable:        playable,
		UnavailableReason: r.Get("unplayableText").Text(),
		Thumbnails:        thumbs,
		Badges:            badges,
	}
}

func positiveInt(n Node) *int {
	v, ok := n.Int()
	if !ok || v == 0 {
		return nil
	}
	return &v
}

// ExtractInteger keeps only the digits of text, so "1,234 videos" yields 1234.
func ExtractInteger(text string) (int, bool) {
	digits := nonDigits.ReplaceAllString(text, "")
	if digits == "" {
		return 0, false
	}
	v, err := strconv.Atoi(digits)
	return v, err == nil
}

// ExtractMetadata reads the playlist header of a first browse page.
func ExtractMetadata(root Node, fallbackID string) *models.PlaylistMetadata {
	meta := root.Get("metadata", "playlistMetadataRenderer")

	var primary Node
	if n, ok := FindFirst(root, func(n Node) bool {
		return n.Get("playlistSidebarPrimaryInfoRenderer").IsObject()
	}); ok {
		primary = n.Get("playlistSidebarPrimaryInfoRenderer")
	}

	rawStats := primary.Get("stats")
	stats := []string{}
	for _, s := range rawStats.Items() {
		if text := s.Text(); text != "" {
			stats = append(stats, text)
		}
	}

	var reported *int
	for _, stat := range stats {
		if !strings.Contains(strings.ToLower(stat), "video") {
			continue
		}
		if v, ok := ExtractInteger(stat); ok {
			reported = &v
			break
		}
	}

	var owner strings.Builder
	for _, run := range primary.Get("owner", "videoOwnerRenderer", "title", "runs").Items() {
		owner.WriteString(run.Get("text").String())
	}

	id := meta.Get("playlistId").String()
	if id == "" {
		id = fallbackID
	}

	return &models.PlaylistMetadata{
		PlaylistID:         id,
		Title:              shared.NormalizeText(meta.Get("title").String()),
		Description:        shared.NormalizeText(meta.Get("description").String()),
		Stats:              stats,
		ReportedVideoCount: reported,
		Owner:              shared.NormalizeText(owner.String()),
		LastUpdatedText:    rawStats.At(2).Text(),
	}
}

// ExtractSortState reads the playlist sort menu. It returns nil when the response carries none.
func ExtractSortState(root Node) *models.SortState {
	node, ok := FindFirst(root, func(n Node) bool {
		return n.Get("sortFilterSubMenuRenderer", "subMenuItems").IsArray()
	})
	if !ok {
		return nil
	}
	menu := node.Get("sortFilterSubMenuRenderer")

	state := &models.SortState{
		Title: shared.NormalizeText(menu.Get("title").String()),
		Items: []models.SortItem{},
	}

	for _, item := range menu.Get("subMenuItems").Items() {
		si := models.SortItem{
			Title:    shared.NormalizeText(item.Get("title").String()),
			Selected: item.Get("selected").Truthy(),
		}
		for _, action := range item.Get("serviceEndpoint", "playlistEditEndpoint", "actions").Items() {
			if action.Get("action").String() != ActionSetPlaylistOrder {
				continue
			}
			if order, ok := action.Get("playlistVideoOrder").Int(); ok {
				si.PlaylistVideoOrder = &order
			}
			break
		}
		state.Items = append(state.Items, si)
	}

	for _, item := range state.Items {
		if item.Selected {
			state.SelectedTitle = item.Title
			state.SelectedOrder = item.PlaylistVideoOrder
			break
		}
	}
	return state
}

// FindBrowseParams finds the params of the first browseEndpoint targeting browseID.
func FindBrowseParams(root Node, browseID string) (string, bool) {
	node, ok := FindFirst(root, func(n Node) bool {
		ep := n.Get("browseEndpoint")
		return ep.Get("browseId").String() == browseID && ep.Get("params").String() != ""
	})
	if !ok {
		return "", false
	}
	return node.Get("browseEndpoint", "params").String(), true
}
