// ABOUTME: Sentinel errors returned by the sync store and write queue
// ABOUTME: Callers match them with errors.Is
package sync

import "errors"

var (
	ErrNotInitialized      = errors.New("store not initialized")
	ErrInvalidRecord       = errors.New("invalid record")
	ErrInvalidInterestZone = errors.New("invalid interest zone")
	ErrInvalidPayload      = errors.New("invalid write payload")
	ErrNotFound            = errors.New("record not found")
	ErrNoValidData         = errors.New("no valid records in remote data")
	ErrRetriesExhausted    = errors.New("write retries exhausted")
	ErrQueueCleared        = errors.New("write queue cleared")
	ErrStoreReset          = errors.New("store was reset during load")
)
