package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds reported by ErrorKind.
const (
	KindFetch = "fetch"
	KindWrite = "write"
	KindScan  = "scan"
)

// FetchError means the feed was unreachable, timed out, or answered with a
// non-success status.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch feed: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// WriteError means the store rejected one or more records of a batch.
// FailedKeys lists the codes that were not persisted, when known.
type WriteError struct {
	FailedKeys []string
	Err        error
}

func (e *WriteError) Error() string {
	if len(e.FailedKeys) == 0 {
		return fmt.Sprintf("write records: %v", e.Err)
	}
	return fmt.Sprintf("write records (failed keys: %s): %v", strings.Join(e.FailedKeys, ","), e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ScanError means reading from the store failed.
type ScanError struct {
	Err error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan records: %v", e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// ErrorKind classifies err as KindFetch, KindWrite or KindScan, or returns ""
// for errors outside the taxonomy.
func ErrorKind(err error) string {
	var (
		fetchErr *FetchError
		writeErr *WriteError
		scanErr  *ScanError
	)
	switch {
	case errors.As(err, &fetchErr):
		return KindFetch
	case errors.As(err, &writeErr):
		return KindWrite
	case errors.As(err, &scanErr):
		return KindScan
	default:
		return ""
	}
}

// FailedKeys returns the failed codes carried by a WriteError in err's chain.
func FailedKeys(err error) []string {
	var writeErr *WriteError
	if errors.As(err, &writeErr) {
		return writeErr.FailedKeys
	}
	return nil
}
