package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jsamuelsen/qc-audit-service/internal/adapters/clients"
	"github.com/jsamuelsen/qc-audit-service/internal/domain"
)

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// ErrorResponse covers the error bodies of both providers:
//
//	Azure OpenAI: {"error":{"code":"...","message":"..."}}
//	ElevenLabs:   {"detail":{"status":"...","message":"..."}} or {"detail":"..."}
type ErrorResponse struct {
	Error  ErrorDetail     `json:"error"`
	Detail json.RawMessage `json:"detail,omitempty"`

	detail ErrorDetail
}

// ErrorDetail contains the provider's code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// GetCode returns the provider error code, whichever format carried it.
func (e *ErrorResponse) GetCode() string {
	switch {
	case e.Error.Code != "":
		return e.Error.Code
	case e.detail.Status != "":
		return e.detail.Status
	default:
		return e.detail.Code
	}
}

// GetMessage returns the provider error message, whichever format carried it.
func (e *ErrorResponse) GetMessage() string {
	if e.Error.Message != "" {
		return e.Error.Message
	}

	return e.detail.Message
}

// ParseErrorResponse decodes an error body. It returns nil when the body is
// empty or carries neither a code nor a message.
func ParseErrorResponse(body io.Reader) *ErrorResponse {
	if body == nil {
		return nil
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&errResp); err != nil {
		return nil
	}

	if len(errResp.Detail) > 0 {
		var text string
		if json.Unmarshal(errResp.Detail, &text) == nil {
			errResp.detail.Message = text
		} else {
			_ = json.Unmarshal(errResp.Detail, &errResp.detail)
		}
	}

	if errResp.GetCode() == "" && errResp.GetMessage() == "" {
		return nil
	}

	return &errResp
}

// MapHTTPError turns a failed provider call into a domain error.
// resp may be nil when the client itself failed.
func MapHTTPError(resp *http.Response, clientErr error, serviceName, operation string) error {
	if clientErr != nil {
		return mapClientError(clientErr, serviceName, operation)
	}

	if resp == nil {
		return domain.NewUnavailableError(serviceName, "no response received")
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	var errResp *ErrorResponse
	if resp.Body != nil {
		errResp = ParseErrorResponse(resp.Body)
	}

	return mapStatusCode(resp.StatusCode, errResp, serviceName, operation)
}

func mapClientError(err error, serviceName, operation string) error {
	var statusErr *clients.StatusError

	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(serviceName,
			fmt.Sprintf("circuit breaker open during %s", operation))

	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests:
		return domain.NewUnavailableError(serviceName,
			fmt.Sprintf("rate limit exceeded during %s", operation))

	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		return domain.NewUnavailableError(serviceName,
			fmt.Sprintf("max retries exceeded during %s", operation))

	default:
		return domain.NewUnavailableError(serviceName,
			fmt.Sprintf("%s failed: %v", operation, err))
	}
}

func mapStatusCode(status int, errResp *ErrorResponse, serviceName, operation string) error {
	message := defaultMessageForStatus(status, operation)
	if errResp != nil && errResp.GetMessage() != "" {
		message = errResp.GetMessage()
	}

	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge,
		http.StatusUnsupportedMediaType, http.StatusUnprocessableEntity:
		return domain.NewValidationError(operation, message)

	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.NewUnavailableError(serviceName, "credentials rejected: "+message)

	case http.StatusNotFound:
		return domain.NewUnavailableError(serviceName, "endpoint or deployment not found: "+message)

	default:
		return domain.NewUnavailableError(serviceName, message)
	}
}

func defaultMessageForStatus(status int, operation string) string {
	text := strings.ToLower(http.StatusText(status))
	if text == "" {
		text = "unexpected status"
	}

	return fmt.Sprintf("%s failed with status %d (%s)", operation, status, text)
}
