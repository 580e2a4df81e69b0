package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error codes surfaced to callers of the recognition service.
const (
	CodeInvalidText          = "INVALID_TEXT"
	CodeRecordCreationFailed = "RECORD_CREATION_FAILED"
	CodeStorageError         = "STORAGE_ERROR"
	CodeParseFailed          = "PARSE_FAILED"
	CodeRecordNotFound       = "RECORD_NOT_FOUND"
	CodeAlreadyConfirmed     = "RECORD_ALREADY_CONFIRMED"
	CodeValidationError      = "VALIDATION_ERROR"
	CodeAutoCreateFailed     = "AUTO_CREATE_FAILED"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError builds an AppError with an optional cause.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrorCode extracts the application code from an error chain, or "" when the
// error carries none.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// grpcCodes maps application codes onto the gRPC status vocabulary used at
// the service boundary.
var grpcCodes = map[string]codes.Code{
	CodeInvalidText:          codes.InvalidArgument,
	CodeValidationError:      codes.InvalidArgument,
	CodeRecordNotFound:       codes.NotFound,
	CodeAlreadyConfirmed:     codes.AlreadyExists,
	CodeParseFailed:          codes.FailedPrecondition,
	CodeRecordCreationFailed: codes.Internal,
	CodeStorageError:         codes.Internal,
	CodeAutoCreateFailed:     codes.Internal,
}

// GRPCStatus converts an error into a gRPC status error, defaulting to
// Internal for unclassified failures.
func GRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	if code, ok := grpcCodes[ErrorCode(err)]; ok {
		return status.Error(code, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
