// Package services defines the [PlaylistService] contract used by the pruning engines and implements it against
// YouTube's innertube API.
//
// # Contract
//
// [PlaylistService] has two operations: Browse (first page by browse id, later pages by continuation token) and
// EditPlaylist (remove or reorder). Responses are returned as [payload.Node] so extraction stays in the payload
// package. Callers issue requests one at a time.
//
// # Innertube Implementation
//
// [InnertubeClient] posts JSON to /youtubei/v1/browse and /youtubei/v1/browse/edit_playlist with a WEB client
// context. Session headers (cookie, authorization) are supplied by a [HeaderProvider], usually [FileHeaders]
// pointing at the file written by `wlx setup youtube`. Requests pass through a [rate.Limiter].
//
// [InnertubeClient.DiscoverBrowseParams] loads the playlist HTML page and reads the browse params from the
// embedded ytInitialData with goquery.
//
// # Error Handling
//
// Non-2xx responses and edits whose status is not STATUS_SUCCEEDED become [RemoteRequestError], which unwraps to
// [shared.ErrAPIRequest]. [RemoteRequestError.Transient] marks conflicts (409) and aborted or "something went
// wrong" failures; only those trigger reconciliation during deletion.
package services
