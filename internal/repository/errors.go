// Package repository holds the errors every storage adapter reports in common.
package repository

import "errors"

var (
	// ErrNotFound means no document matched the lookup.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate means a unique constraint rejected the write.
	ErrDuplicate = errors.New("duplicate key")
	// ErrConditionFailed means a conditional update matched nothing, for
	// example a stock decrement larger than the remaining stock.
	ErrConditionFailed = errors.New("update condition not met")
)
