package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeNotImplemented     ErrorCode = "COMMON_015"
)

// Aliases used by generic layers
const (
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeUnauthorized   = ErrCodeUnauthorized
	CodeForbidden      = ErrCodeForbidden
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeRateLimit      = ErrCodeTooManyRequests
	CodeNotImplemented = ErrCodeNotImplemented
	CodeOK             = ErrorCode("OK")
	CodeUnknown        = ErrorCode("UNKNOWN")

	CodeDBConnectionError = ErrCodeDatabaseError
	CodeDatabaseError     = ErrCodeDatabaseError
	CodeCacheError        = ErrCodeCacheError
	CodeMessageQueueError = ErrCodeQueuePublishFailed
)

// Screening Module Error Codes
const (
	ErrCodeScreeningInvalidQuery    ErrorCode = "SCR_001"
	ErrCodeScreeningInvalidCount    ErrorCode = "SCR_002"
	ErrCodeScreeningInvalidMode     ErrorCode = "SCR_003"
	ErrCodeScreeningEmptyEntity     ErrorCode = "SCR_004"
	ErrCodeScreeningUnknownCategory ErrorCode = "SCR_005"
	ErrCodeScreeningCategoryLocked  ErrorCode = "SCR_006"
	ErrCodeScreeningKeywordExists   ErrorCode = "SCR_007"
	ErrCodeScreeningKeywordMissing  ErrorCode = "SCR_008"
	ErrCodeScreeningAborted         ErrorCode = "SCR_009"
)

// Risk Module Error Codes
const (
	ErrCodeRiskRecordNotFound  ErrorCode = "RISK_001"
	ErrCodeRiskRecordInvalid   ErrorCode = "RISK_002"
	ErrCodeRiskScoringFailed   ErrorCode = "RISK_003"
	ErrCodeRiskLevelUnknown    ErrorCode = "RISK_004"
)

// Data Source Error Codes
const (
	ErrCodeDataSourceUnavailable ErrorCode = "SRC_001"
	ErrCodeDataSourceRateLimited ErrorCode = "SRC_002"
	ErrCodeDataSourceAuthFailed  ErrorCode = "SRC_003"
	ErrCodeDataSourceParseError  ErrorCode = "SRC_004"
	ErrCodeDataSourceTimeout     ErrorCode = "SRC_005"
)

// AI/LLM Error Codes
const (
	ErrCodeAIModelNotAvailable ErrorCode = "AI_001"
	ErrCodeAIInferenceFailed   ErrorCode = "AI_002"
	ErrCodeAIResponseMalformed ErrorCode = "AI_003"
	ErrCodeAIInputInvalid      ErrorCode = "AI_004"
	ErrCodeAIResourceExhausted ErrorCode = "AI_005"
)

// Store Error Codes
const (
	ErrCodeStoreUnavailable    ErrorCode = "STORE_001"
	ErrCodeStoreRecordNotFound ErrorCode = "STORE_002"
	ErrCodeStoreEncodingFailed ErrorCode = "STORE_003"
	ErrCodeStoreSweepFailed    ErrorCode = "STORE_004"
)

// Notification Error Codes
const (
	ErrCodeQueuePublishFailed   ErrorCode = "NOTIF_001"
	ErrCodeQueueConsumeFailed   ErrorCode = "NOTIF_002"
	ErrCodeNotificationRejected ErrorCode = "NOTIF_003"
)

// Workflow Error Codes
const (
	ErrCodeWorkflowStartFailed     ErrorCode = "WF_001"
	ErrCodeWorkflowDescribeFailed  ErrorCode = "WF_002"
	ErrCodeWorkflowExecutionFailed ErrorCode = "WF_003"
	ErrCodeWorkflowTimeout         ErrorCode = "WF_004"
)

// Configuration Error Codes
const (
	ErrCodeConfigInvalid ErrorCode = "CFG_001"
	ErrCodeConfigMissing ErrorCode = "CFG_002"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeScreeningInvalidQuery:    http.StatusBadRequest,
	ErrCodeScreeningInvalidCount:    http.StatusBadRequest,
	ErrCodeScreeningInvalidMode:     http.StatusBadRequest,
	ErrCodeScreeningEmptyEntity:     http.StatusBadRequest,
	ErrCodeScreeningUnknownCategory: http.StatusBadRequest,
	ErrCodeScreeningCategoryLocked:  http.StatusBadRequest,
	ErrCodeScreeningKeywordExists:   http.StatusConflict,
	ErrCodeScreeningKeywordMissing:  http.StatusNotFound,
	ErrCodeScreeningAborted:         http.StatusInternalServerError,

	ErrCodeRiskRecordNotFound: http.StatusNotFound,
	ErrCodeRiskRecordInvalid:  http.StatusBadRequest,
	ErrCodeRiskScoringFailed:  http.StatusInternalServerError,
	ErrCodeRiskLevelUnknown:   http.StatusBadRequest,

	ErrCodeDataSourceUnavailable: http.StatusServiceUnavailable,
	ErrCodeDataSourceRateLimited: http.StatusTooManyRequests,
	ErrCodeDataSourceAuthFailed:  http.StatusBadGateway,
	ErrCodeDataSourceParseError:  http.StatusBadGateway,
	ErrCodeDataSourceTimeout:     http.StatusGatewayTimeout,

	ErrCodeAIModelNotAvailable: http.StatusServiceUnavailable,
	ErrCodeAIInferenceFailed:   http.StatusInternalServerError,
	ErrCodeAIResponseMalformed: http.StatusInternalServerError,
	ErrCodeAIInputInvalid:      http.StatusBadRequest,
	ErrCodeAIResourceExhausted: http.StatusServiceUnavailable,

	ErrCodeStoreUnavailable:    http.StatusServiceUnavailable,
	ErrCodeStoreRecordNotFound: http.StatusNotFound,
	ErrCodeStoreEncodingFailed: http.StatusInternalServerError,
	ErrCodeStoreSweepFailed:    http.StatusInternalServerError,

	ErrCodeQueuePublishFailed:   http.StatusInternalServerError,
	ErrCodeQueueConsumeFailed:   http.StatusInternalServerError,
	ErrCodeNotificationRejected: http.StatusInternalServerError,

	ErrCodeWorkflowStartFailed:     http.StatusBadGateway,
	ErrCodeWorkflowDescribeFailed:  http.StatusBadGateway,
	ErrCodeWorkflowExecutionFailed: http.StatusInternalServerError,
	ErrCodeWorkflowTimeout:         http.StatusGatewayTimeout,

	ErrCodeConfigInvalid: http.StatusInternalServerError,
	ErrCodeConfigMissing: http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeScreeningInvalidQuery:    "query must be between 3 and 500 characters",
	ErrCodeScreeningInvalidCount:    "result count must be between 1 and 100",
	ErrCodeScreeningInvalidMode:     "unsupported screening mode",
	ErrCodeScreeningEmptyEntity:     "entity name must not be empty",
	ErrCodeScreeningUnknownCategory: "unknown risk category",
	ErrCodeScreeningCategoryLocked:  "category cannot be modified",
	ErrCodeScreeningKeywordExists:   "keyword already present in category",
	ErrCodeScreeningKeywordMissing:  "keyword not found in category",
	ErrCodeScreeningAborted:         "screening aborted",

	ErrCodeRiskRecordNotFound: "risk record not found",
	ErrCodeRiskRecordInvalid:  "invalid risk record",
	ErrCodeRiskScoringFailed:  "risk scoring failed",
	ErrCodeRiskLevelUnknown:   "unknown risk level",

	ErrCodeDataSourceUnavailable: "data source unavailable",
	ErrCodeDataSourceRateLimited: "data source rate limited",
	ErrCodeDataSourceAuthFailed:  "data source authentication failed",
	ErrCodeDataSourceParseError:  "failed to parse data source response",
	ErrCodeDataSourceTimeout:     "data source request timed out",

	ErrCodeAIModelNotAvailable: "AI model not available",
	ErrCodeAIInferenceFailed:   "AI inference failed",
	ErrCodeAIResponseMalformed: "AI response could not be parsed",
	ErrCodeAIInputInvalid:      "invalid input for AI model",
	ErrCodeAIResourceExhausted: "AI resource exhausted",

	ErrCodeStoreUnavailable:    "record store unavailable",
	ErrCodeStoreRecordNotFound: "stored record not found",
	ErrCodeStoreEncodingFailed: "failed to encode record for storage",
	ErrCodeStoreSweepFailed:    "expired record sweep failed",

	ErrCodeQueuePublishFailed:   "failed to publish message",
	ErrCodeQueueConsumeFailed:   "failed to consume message",
	ErrCodeNotificationRejected: "notification rejected",

	ErrCodeWorkflowStartFailed:     "failed to start workflow execution",
	ErrCodeWorkflowDescribeFailed:  "failed to describe workflow execution",
	ErrCodeWorkflowExecutionFailed: "workflow execution failed",
	ErrCodeWorkflowTimeout:         "workflow execution timed out",

	ErrCodeConfigInvalid: "invalid configuration",
	ErrCodeConfigMissing: "missing configuration",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
