// Package models defines the domain types shared by the scanner, the deletion engine, the exporters and the
// history store.
//
// The package contains two categories of types:
//
// 1. Scan and run values: plain structs with stable JSON field names consumed by export tooling
//   - [Entry] : one deletable playlist row with its server-assigned edit identifier
//   - [SortState] : the server's current sort selection as observed in a response
//   - [PlaylistMetadata] : header information from the first page
//   - [ScanResult] : entries plus metadata and [ScanStats] for one full scan
//   - [DeletionTarget] : an entry selected for removal, remembering its scan-time position
//   - [AuditRecord] : one successful removal
//
// 2. Persistent entities: [Run] and its deleted entries, stored by the repositories package.
package models
