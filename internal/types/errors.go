package types

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the conditions a caller has to tell apart.
var (
	ErrNoProductInfo     = errors.New("could not extract product information from this page")
	ErrPageNotReady      = errors.New("page content is not ready yet")
	ErrPayloadTooLarge   = errors.New("product data is too large")
	ErrInvalidAnalysis   = errors.New("received analysis has invalid format")
	ErrAnalysisTooLarge  = errors.New("analysis too large to save")
	ErrCredentialMissing = errors.New("API key not configured")
	ErrInvalidCredential = errors.New("invalid API key")
	ErrCredentialTooLong = errors.New("API key too long")
	ErrNoProductText     = errors.New("no product text provided for analysis")
	ErrAnalysisTimeout   = errors.New("analysis took too long")
	ErrCheckTimeout      = errors.New("operation took too long")
	ErrAlreadyStarted    = errors.New("detector session already started")
	ErrBusy              = errors.New("an analysis is already in progress")
	ErrStale             = errors.New("stored analysis is stale")
	ErrNotFound          = errors.New("not found")
	ErrInvalidURL        = errors.New("invalid URL")
	ErrEmptyResponse     = errors.New("empty response body")
)

// FetchError wraps errors that occur while acquiring a page.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	Retryable  bool
	RetryAfter time.Duration // populated from Retry-After header on HTTP 429
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsRetryable() bool { return e.Retryable }

// ParseError wraps a selector or pattern that could not be compiled.
type ParseError struct {
	Field    string
	Selector string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s (selector=%q): %v", e.Field, e.Selector, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur in a persistence backend.
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("storage error (%s %s): %v", e.Backend, e.Op, e.Err)
	}
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// AnalysisErrorKind classifies failures of the remote analysis call.
type AnalysisErrorKind string

const (
	KindNetwork       AnalysisErrorKind = "network"
	KindAuth          AnalysisErrorKind = "auth"
	KindRateLimit     AnalysisErrorKind = "rate_limit"
	KindAPI           AnalysisErrorKind = "api"
	KindEmptyResponse AnalysisErrorKind = "empty_response"
	KindMalformed     AnalysisErrorKind = "malformed_response"
)

// AnalysisError wraps errors returned by the analysis provider.
type AnalysisError struct {
	Provider   string
	Kind       AnalysisErrorKind
	StatusCode int
	Err        error
}

func (e *AnalysisError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s analysis error (%s, status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s analysis error (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// UserMessage maps an error to the message shown to a person. Each
// condition gets its own wording; unknown errors fall back to their text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var aerr *AnalysisError
	if errors.As(err, &aerr) {
		switch aerr.Kind {
		case KindAuth:
			return "The API key was rejected. Please check it and try again."
		case KindRateLimit:
			return "The analysis service is rate limiting requests. Please wait and try again."
		case KindNetwork:
			return "Error communicating with analysis service. Check your connection."
		case KindEmptyResponse:
			return "The analysis service did not return content."
		case KindMalformed:
			return "The analysis service sent a response that could not be read."
		default:
			if aerr.Err == nil {
				return "Error analyzing product"
			}
			return "Error analyzing product: " + aerr.Err.Error()
		}
	}

	var ferr *FetchError
	if errors.As(err, &ferr) {
		return "Error communicating with page. Make sure you are on a product page."
	}

	switch {
	case errors.Is(err, ErrNoProductInfo):
		return "Could not extract product information from this page"
	case errors.Is(err, ErrPageNotReady):
		return "Page content is not ready yet"
	case errors.Is(err, ErrPayloadTooLarge):
		return "Extracted data is too large. Try another page."
	case errors.Is(err, ErrInvalidAnalysis):
		return "Received analysis has invalid format"
	case errors.Is(err, ErrAnalysisTooLarge):
		return "Analysis too large to save"
	case errors.Is(err, ErrCredentialMissing):
		return "Gemini API key not configured. Please configure it first."
	case errors.Is(err, ErrInvalidCredential):
		return "Please enter a valid API key"
	case errors.Is(err, ErrCredentialTooLong):
		return "API key too long"
	case errors.Is(err, ErrNoProductText):
		return "No product text provided for analysis"
	case errors.Is(err, ErrAnalysisTimeout):
		return "Timeout: Analysis took too long"
	case errors.Is(err, ErrCheckTimeout):
		return "Operation took too long. Please try again."
	case errors.Is(err, ErrBusy):
		return "An analysis is already in progress"
	case errors.Is(err, ErrInvalidURL):
		return "The page address is not valid"
	case errors.Is(err, ErrStale), errors.Is(err, ErrNotFound):
		return "No saved analysis"
	}

	var serr *StorageError
	if errors.As(err, &serr) {
		return "Error accessing saved data. Please try again."
	}

	return err.Error()
}
