// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates a record with the same unique key exists.
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput indicates user provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden indicates the caller is not allowed to perform the action.
	ErrForbidden = errors.New("access not allowed")

	// ErrUploadDisabled indicates no upload category is currently active.
	ErrUploadDisabled = errors.New("upload disabled")
)

// ScrapeError represents listing page scraping failures with context.
type ScrapeError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *ScrapeError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("scrape error (url=%s, status=%d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("scrape error (url=%s): %v", e.URL, e.Err)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new scrape error.
func NewScrapeError(url string, statusCode int, err error) *ScrapeError {
	return &ScrapeError{
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}

// SelectorError indicates a fixed HTML selector matched nothing on a page.
// A malformed page aborts the whole extraction; there is no partial record.
type SelectorError struct {
	URL      string
	Selector string
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("selector %q matched nothing on %s", e.Selector, e.URL)
}

// NewSelectorError creates a new selector error.
func NewSelectorError(url, selector string) *SelectorError {
	return &SelectorError{URL: url, Selector: selector}
}
