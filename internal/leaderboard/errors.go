// Package leaderboard parses third-party benchmark and agent leaderboards
// into structured entries. The markup is outside our control, so each page
// gets an ordered list of independent parsing strategies; the first strategy
// that yields entries without erroring wins.
package leaderboard

import "fmt"

// MalformedBlobError means an embedded JSON blob was found but could not be
// parsed. This is distinct from "no blob found", which silently falls through
// to the next strategy.
type MalformedBlobError struct {
	Cause error
}

func (e *MalformedBlobError) Error() string {
	return fmt.Sprintf("failed to parse embedded JSON blob: %v", e.Cause)
}

func (e *MalformedBlobError) Unwrap() error {
	return e.Cause
}

// NoDataError means every strategy fell through without producing entries.
type NoDataError struct {
	Page string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no leaderboard data found in %s page", e.Page)
}

// EmptyBoardError means the agent leaderboard markup parsed but yielded zero
// valid entries. Treated upstream as a hard fetch failure, never as an empty
// board.
type EmptyBoardError struct{}

func (e *EmptyBoardError) Error() string {
	return "agent leaderboard parsed to zero valid entries"
}
