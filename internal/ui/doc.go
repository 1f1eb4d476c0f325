// Package ui implements an interactive terminal view of a prune run using bubbletea's Elm architecture.
//
// The TUI walks through three views:
//  1. [ConfirmView] : show what will be removed and wait for confirmation
//  2. [RunView] : stream progress updates with a spinner and a scrolling log
//  3. [ResultView] : list the removed entries and report how the run ended
//
// Progress updates arrive on the channel handed to the PruneEngine. The run itself executes in a goroutine and
// reports completion through a separate channel, so the view never blocks on the engine.
//
// Pressing s (or q, or ctrl+c) while running asks the run to stop at the next boundary between remote calls.
package ui
