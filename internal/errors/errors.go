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
	// ErrNoCoursesFound indicates a parsed academic plan yielded zero courses.
	ErrNoCoursesFound = errors.New("no courses found in academic plan")

	// ErrAcademicPlanNotFound indicates a program page carries no academic
	// plan reference, so there is no document to parse.
	ErrAcademicPlanNotFound = errors.New("academic plan URL not found")

	// ErrInvalidStrategy indicates an unknown recommendation strategy.
	ErrInvalidStrategy = errors.New("invalid recommendation strategy")

	// ErrConfigUnavailable indicates the knowledge area configuration could
	// not be loaded. Fatal to recommendation engine construction.
	ErrConfigUnavailable = errors.New("knowledge area config unavailable")

	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates user provided invalid input.
	ErrInvalidInput = errors.New("invalid input")
)

// ParseError reports a curriculum parse failure with document context.
type ParseError struct {
	Program string
	Lines   int
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error (program=%s, lines=%d): %v", e.Program, e.Lines, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new parse error.
func NewParseError(program string, lines int, err error) *ParseError {
	return &ParseError{
		Program: program,
		Lines:   lines,
		Err:     err,
	}
}

// ScrapeError represents document retrieval failures with context.
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
