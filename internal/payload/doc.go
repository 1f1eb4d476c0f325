// Package payload reads the loosely structured JSON documents returned by the innertube endpoints.
//
// [Node] wraps a decoded JSON value and exposes accessors that return a zero value or an ok flag instead of
// panicking on missing keys or unexpected types, so deep paths can be composed without nil checks at each level.
// [Walk] and [FindFirst] traverse a document iteratively, tracking visited composite values by identity.
//
// The playlist extractors build on both:
//   - [ExtractPage] : deletable entries and continuation tokens of one browse page
//   - [ExtractMetadata] : playlist header information
//   - [ExtractSortState] : the sort menu and its selected order
//   - [FindBrowseParams] : browse endpoint params for a given browse id
package payload
