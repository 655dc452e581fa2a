package domain

import (
	"errors"
	"fmt"
)

// Sentinels matched with errors.Is against the typed errors below.
var (
	// ErrNetwork covers connection failures, timeouts and HTTP error statuses
	// for both page and asset fetches.
	ErrNetwork = errors.New("network error")

	// ErrParse is returned when a required element is missing from a page.
	ErrParse = errors.New("parse error")
)

// NetworkError describes a failed GET.
type NetworkError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNetwork}
	}
	return []error{ErrNetwork, e.Err}
}

// PageType names the kind of page an extraction ran against.
type PageType string

const (
	PageCategory    PageType = "category"
	PageSubcategory PageType = "subcategory"
	PageProduct     PageType = "product"
)

// ParseError describes a required node that was not found.
type ParseError struct {
	Page  PageType
	Field string
	URL   string
}

func (e *ParseError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s page %s: missing %s", e.Page, e.URL, e.Field)
	}
	return fmt.Sprintf("%s page: missing %s", e.Page, e.Field)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}
