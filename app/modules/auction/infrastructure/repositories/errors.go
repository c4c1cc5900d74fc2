package auctiondb

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConditionFailed indicates a guarded update matched no rows: the
	// record moved out of the expected state before this write.
	ErrConditionFailed = errors.New("conditional update matched no rows")
)
