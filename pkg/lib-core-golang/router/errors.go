package router

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Error codes exposed to clients along with the status
const (
	CodeInvalidArgument  = "INVALID_ARGUMENT"
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidOperation = "INVALID_OPERATION"
	CodeMissingTenantID  = "MISSING_TENANT_ID"
	CodeInvalidTenantID  = "INVALID_TENANT_ID"
	CodeInternal         = "INTERNAL"
)

// HTTPError represents a generic http error structure
type HTTPError struct {
	StatusCode int    `json:"statusCode"`
	Status     string `json:"error"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
}

func (e HTTPError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%v](%v) %v: %v", e.StatusCode, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("[%v](%v): %v", e.StatusCode, e.Status, e.Message)
}

// Send will marshal and send the error response to the client
// panic if failed to send
func (e HTTPError) Send(w http.ResponseWriter) {
	errorData, err := json.Marshal(e)
	if err != nil {
		panic(err)
	}
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(e.StatusCode)
	if _, err := w.Write(errorData); err != nil {
		panic(err)
	}
}

// NewHTTPError - creates a generic http error
func NewHTTPError(statusCode int, message string) error {
	return HTTPError{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Message:    message,
	}
}

// NewCodedHTTPError creates http error with a client facing error code
func NewCodedHTTPError(statusCode int, code string, message string) error {
	return HTTPError{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Code:       code,
		Message:    message,
	}
}

// ResourceNotFoundError a standard 404 error
func ResourceNotFoundError(message string) error {
	return NewCodedHTTPError(http.StatusNotFound, CodeNotFound, message)
}

// BadRequestError a standard 400 error
func BadRequestError(message string) error {
	return NewCodedHTTPError(http.StatusBadRequest, CodeInvalidArgument, message)
}

// ConflictError is a 409 error for operations not allowed in the current state
func ConflictError(message string) error {
	return NewCodedHTTPError(http.StatusConflict, CodeInvalidOperation, message)
}

// ParamValidationError a bad request error related to params validation
func ParamValidationError(paramType RequestParamType, paramName string) error {
	return BadRequestError(fmt.Sprint("ValidationFailed: ", paramType, " parameter '", paramName, "' is invalid"))
}

func newHTTPErrorFromError(err error) HTTPError {
	var errResp HTTPError
	if errors.As(err, &errResp) {
		return errResp
	}
	return HTTPError{
		StatusCode: http.StatusInternalServerError,
		Status:     http.StatusText(http.StatusInternalServerError),
		Code:       CodeInternal,

		// TODO: Do not expose internal messages once the api has non internal clients
		Message: err.Error(),
	}
}
