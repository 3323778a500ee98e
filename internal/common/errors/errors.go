// Package errors provides standardized error handling for matchmaking jobs and the HTTP API.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeProfileNotFound        ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeInvalidProfile         ErrorCode = "INVALID_PROFILE"
	ErrCodeInvalidMatchRequest    ErrorCode = "INVALID_MATCH_REQUEST"
	ErrCodeMatchComputationFailed ErrorCode = "MATCH_COMPUTATION_FAILED"
	ErrCodeSimilarityFailed       ErrorCode = "SIMILARITY_FAILED"

	ErrCodeProfileStoreFailed ErrorCode = "PROFILE_STORE_FAILED"
	ErrCodeCacheFailed        ErrorCode = "CACHE_FAILED"
	ErrCodeLedgerWriteFailed  ErrorCode = "LEDGER_WRITE_FAILED"
	ErrCodeSearchQueryFailed  ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeEmbeddingFailed    ErrorCode = "EMBEDDING_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// New builds a StandardError stamped with the current UTC time.
func New(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidProfileError(details string) *StandardError {
	return New(ErrCodeInvalidProfile, "Profile data is invalid", details, false)
}

func NewInvalidMatchRequestError(details string) *StandardError {
	return New(ErrCodeInvalidMatchRequest, "Match request validation failed", details, false)
}

func NewMatchComputationFailedError(err error) *StandardError {
	return New(ErrCodeMatchComputationFailed, "Match computation failed", err.Error(), false)
}

func NewSimilarityFailedError(backend string, err error) *StandardError {
	return New(ErrCodeSimilarityFailed, "Similarity backend error", fmt.Sprintf("backend: %s, error: %s", backend, err.Error()), true)
}

func NewProfileStoreFailedError(operation string, err error) *StandardError {
	return New(ErrCodeProfileStoreFailed, "Profile store error", fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

func NewCacheFailedError(err error) *StandardError {
	return New(ErrCodeCacheFailed, "Result cache error", err.Error(), true)
}

func NewLedgerWriteFailedError(err error) *StandardError {
	return New(ErrCodeLedgerWriteFailed, "Score ledger write failed", err.Error(), true)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return New(ErrCodeSearchQueryFailed, "Elasticsearch query error", fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewEmbeddingFailedError(model string, err error) *StandardError {
	return New(ErrCodeEmbeddingFailed, "Embedding API error", fmt.Sprintf("model: %s, error: %s", model, err.Error()), true)
}

func NewInternalError(err error) *StandardError {
	return New(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// AsStandardError unwraps err looking for a *StandardError.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeProfileNotFound:        "PROFILE_NOT_FOUND",
	ErrCodeInvalidProfile:         "INVALID_PROFILE",
	ErrCodeInvalidMatchRequest:    "INVALID_MATCH_REQUEST",
	ErrCodeMatchComputationFailed: "MATCH_COMPUTATION_FAILED",
	ErrCodeSimilarityFailed:       "SIMILARITY_FAILED",
	ErrCodeProfileStoreFailed:     "PROFILE_STORE_FAILED",
	ErrCodeCacheFailed:            "CACHE_FAILED",
	ErrCodeLedgerWriteFailed:      "LEDGER_WRITE_FAILED",
	ErrCodeSearchQueryFailed:      "SEARCH_QUERY_FAILED",
	ErrCodeEmbeddingFailed:        "EMBEDDING_FAILED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProfileStoreFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeLedgerWriteFailed:
		return 3

	case ErrCodeEmbeddingFailed,
		ErrCodeSimilarityFailed,
		ErrCodeCacheFailed:
		return 2

	default:
		return 0 // business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "NOT_FOUND"):
		return "VALIDATION"
	case strings.Contains(codeStr, "STORE") || strings.Contains(codeStr, "LEDGER"):
		return "DATABASE"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "EMBEDDING") || strings.Contains(codeStr, "SIMILARITY"):
		return "AI"
	case strings.Contains(codeStr, "MATCH"):
		return "MATCHING"
	default:
		return "OTHER"
	}
}

// HTTPStatus maps an error code to the status returned by the HTTP API.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeProfileNotFound:
		return http.StatusNotFound
	case ErrCodeInvalidProfile, ErrCodeInvalidMatchRequest:
		return http.StatusBadRequest
	case ErrCodeProfileStoreFailed, ErrCodeSearchQueryFailed, ErrCodeEmbeddingFailed, ErrCodeCacheFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
