// Package services holds the business logic between the HTTP handlers and
// job workers on one side and the engine, stores and queues on the other.
package services

import "errors"

// Service error codes. Handlers map them to HTTP status codes.
const (
	CodeInvalidMethod    = "INVALID_METHOD"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeSeriesNotFound   = "SERIES_NOT_FOUND"
	CodeSnapshotNotFound = "SNAPSHOT_NOT_FOUND"
	CodeSubjectNotFound  = "SUBJECT_NOT_FOUND"
	CodeSubjectExists    = "SUBJECT_EXISTS"
	CodeStorageFailed    = "STORAGE_FAILED"
	CodeMetadataFailed   = "METADATA_FAILED"
	CodeQueueFailed      = "QUEUE_FAILED"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// AsServiceError unwraps err into a *ServiceError
func AsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}

func invalidRequest(message string) *ServiceError {
	return NewServiceError(CodeInvalidRequest, message)
}

func internalError(code, message string, err error) *ServiceError {
	return NewServiceErrorWithDetails(code, message, map[string]interface{}{"error": err.Error()})
}
