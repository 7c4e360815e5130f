package repository

import "errors"

// ErrorCode identifies an expected domain failure of the relationship
// workflow. Infrastructure failures are returned as ordinary wrapped
// errors and carry no code.
type ErrorCode string

const (
	CodeCannotFollowSelf ErrorCode = "CANNOT_FOLLOW_SELF"
	CodeDuplicateRequest ErrorCode = "DUPLICATE_REQUEST"
	CodeAlreadyFollowing ErrorCode = "ALREADY_FOLLOWING"
	CodeNotFollowing     ErrorCode = "NOT_FOLLOWING"
	CodeRequestNotFound  ErrorCode = "REQUEST_NOT_FOUND"
	CodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	CodeInvalidStatus    ErrorCode = "INVALID_STATUS"
)

// WorkflowError is a domain error with a machine-readable code. Callers
// branch on the code; the message is for logs and API responses.
type WorkflowError struct {
	Code    ErrorCode
	Message string
}

func (e *WorkflowError) Error() string {
	return e.Message
}

func NewWorkflowError(code ErrorCode, message string) *WorkflowError {
	return &WorkflowError{Code: code, Message: message}
}

// CodeOf extracts the domain error code from err, or "" if err is not a
// workflow error.
func CodeOf(err error) ErrorCode {
	var wfErr *WorkflowError
	if errors.As(err, &wfErr) {
		return wfErr.Code
	}
	return ""
}
