// Package tasks prunes the oldest entries from a playlist whose order and edit identifiers can change under it.
//
// # Components
//
//  1. [Scanner] : paginated scan
//     - Fetches the first page by browse id, then follows continuation tokens in FIFO order, each at most once
//     - Deduplicates entries by setVideoId and assigns 1-based order indexes
//     - Optionally fails with [SortDriftError] when the first page shows an unexpected order
//
//  2. [SortEnforcer] : sort order state machine
//     - [Unverified] → [VerifyViaEdit] → [VerifyViaBrowse] → [Verified] or [Failed]
//     - Fails with [SortUnverifiableError] once attempts are exhausted
//
//  3. [DeletionEngine] : batched removal
//     - Sends multi-action removes, falling back to single removes for a failed batch
//     - On a transient single failure, rescans and re-identifies the target with [FindReplacement], then retries once
//
//  4. [PruneEngine] : orchestration with a reentrancy guard
//
// # Cancellation
//
// [RunHandle] is checked before every page fetch, sort attempt, batch and fallback removal. In-flight requests
// finish; the operation then returns an error wrapping [shared.ErrStopped].
//
// # Progress Reporting
//
// Components log through an injected [log.Logger] and send [ProgressUpdate] values on an optional channel.
// Updates use select with default to prevent blocking.
package tasks
