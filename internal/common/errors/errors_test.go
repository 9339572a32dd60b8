package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantCode    string
		wantRetries int
	}{
		{"all models failed", NewAllModelsFailedError(4, fmt.Errorf("quota")), "ALL_MODELS_FAILED", 2},
		{"parse failure", NewParseFailureError(fmt.Errorf("no object")), "PARSE_FAILURE", 0},
		{"configuration", NewConfigurationError("apis.genai.api_key is empty"), "CONFIGURATION_ERROR", 0},
		{"invalid input", NewInvalidInputError(fmt.Errorf("bad json")), "INVALID_INPUT", 0},
		{"workflow engine", NewWorkflowEngineError("topology", fmt.Errorf("unavailable")), "WORKFLOW_ENGINE_ERROR", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantCode, bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)
			assert.Equal(t, string(tt.err.Code), bpmn.ErrorVariables["originalErrorCode"])

			vars := bpmn.ToErrorVariables()
			assert.Equal(t, tt.wantCode, vars["errorCode"])
		})
	}
}

func TestStandardError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := NewAcquisitionFailedError("estimator", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, "Error loading AI. Refresh page.", err.Message)
	assert.Contains(t, err.Error(), "ACQUISITION_FAILED")
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "GENERATION", GetErrorCategory(ErrCodeModelAttemptFailed))
	assert.Equal(t, "GENERATION", GetErrorCategory(ErrCodeParseFailure))
	assert.Equal(t, "LIVE", GetErrorCategory(ErrCodeFrameEstimationFailed))
	assert.Equal(t, "LIVE", GetErrorCategory(ErrCodeAcquisitionFailed))
	assert.Equal(t, "CONFIGURATION", GetErrorCategory(ErrCodeConfiguration))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidInput))
	assert.Equal(t, "INFRASTRUCTURE", GetErrorCategory(ErrCodeWorkflowEngine))
}

func TestNormalize(t *testing.T) {
	std := NewParseFailureError(fmt.Errorf("x"))
	assert.Same(t, std, Normalize(std))

	plain := Normalize(fmt.Errorf("boom"))
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), plain.Code)
	assert.False(t, IsRetryableErrorCode(plain.Code))
}
