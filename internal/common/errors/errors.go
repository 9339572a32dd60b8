// Package errors provides the standardized error taxonomy shared by the plan
// service, the live session and the workflow worker.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Plan generation
const (
	ErrCodeModelAttemptFailed ErrorCode = "MODEL_ATTEMPT_FAILED"
	ErrCodeAllModelsFailed    ErrorCode = "ALL_MODELS_FAILED"
	ErrCodeParseFailure       ErrorCode = "PARSE_FAILURE"
	ErrCodeConfiguration      ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"
)

// Infrastructure
const (
	ErrCodeWorkflowEngine ErrorCode = "WORKFLOW_ENGINE_ERROR"
)

// Live session
const (
	ErrCodeAcquisitionFailed     ErrorCode = "ACQUISITION_FAILED"
	ErrCodeFrameEstimationFailed ErrorCode = "FRAME_ESTIMATION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. BPMN Error Integration
// ==========================

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

// ==========================
// 3. Error Constructors
// ==========================

// NewModelAttemptFailedError describes one rejected candidate model. It is
// recovered locally by moving to the next candidate.
func NewModelAttemptFailedError(modelID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeModelAttemptFailed,
		Message:   "Model attempt failed",
		Details:   fmt.Sprintf("model: %s, error: %v", modelID, err),
		Retryable: true,
		Metadata:  map[string]interface{}{"model": modelID},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewAllModelsFailedError is recovered by substituting the default plan.
func NewAllModelsFailedError(attempts int, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAllModelsFailed,
		Message:   "Every candidate model failed",
		Details:   fmt.Sprintf("attempts: %d, last error: %v", attempts, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewParseFailureError is recovered by substituting the default plan.
func NewParseFailureError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeParseFailure,
		Message:   "Model output is not a valid plan",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewConfigurationError is never recovered: no generation is possible.
func NewConfigurationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfiguration,
		Message:   "Missing API Key",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidInputError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid input variables",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewAcquisitionFailedError is terminal for a live session.
func NewAcquisitionFailedError(resource string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAcquisitionFailed,
		Message:   "Error loading AI. Refresh page.",
		Details:   fmt.Sprintf("resource: %s, error: %v", resource, err),
		Retryable: false,
		Metadata:  map[string]interface{}{"resource": resource},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewFrameEstimationFailedError is swallowed by the live loop.
func NewFrameEstimationFailedError(seq uint64, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFrameEstimationFailed,
		Message:   "Pose estimation failed for frame",
		Details:   fmt.Sprintf("seq: %d, error: %v", seq, err),
		Retryable: true,
		Metadata:  map[string]interface{}{"seq": seq},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewWorkflowEngineError wraps a failed Zeebe gateway call.
func NewWorkflowEngineError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWorkflowEngine,
		Message:   "Workflow engine unavailable",
		Details:   fmt.Sprintf("operation: %s, error: %v", operation, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeModelAttemptFailed:    "MODEL_ATTEMPT_FAILED",
	ErrCodeAllModelsFailed:       "ALL_MODELS_FAILED",
	ErrCodeParseFailure:          "PARSE_FAILURE",
	ErrCodeConfiguration:         "CONFIGURATION_ERROR",
	ErrCodeInvalidInput:          "INVALID_INPUT",
	ErrCodeAcquisitionFailed:     "ACQUISITION_FAILED",
	ErrCodeFrameEstimationFailed: "FRAME_ESTIMATION_FAILED",
	ErrCodeWorkflowEngine:        "WORKFLOW_ENGINE_ERROR",
}

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeAllModelsFailed, ErrCodeWorkflowEngine:
		return 2

	case ErrCodeModelAttemptFailed, ErrCodeFrameEstimationFailed:
		return 1

	default:
		return 0 // configuration and input errors: no retry
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

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "MODEL") || strings.Contains(codeStr, "PARSE"):
		return "GENERATION"
	case strings.Contains(codeStr, "ACQUISITION") || strings.Contains(codeStr, "FRAME"):
		return "LIVE"
	case strings.Contains(codeStr, "WORKFLOW"):
		return "INFRASTRUCTURE"
	case strings.Contains(codeStr, "CONFIGURATION"):
		return "CONFIGURATION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
