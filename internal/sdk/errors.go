package sdk

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/Shivanand-hulikatti/eventix/internal/model"
)

// Error is a non-2xx response from the server.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// ErrorCode returns the wire code, used by callers that classify failures
// without importing this package.
func (e *Error) ErrorCode() string {
	return e.Code
}

func decodeError(resp *http.Response) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var env model.ErrorResponse
	if err := json.Unmarshal(body, &env); err != nil || env.Error == "" {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &Error{Status: resp.StatusCode, Message: msg}
	}
	return &Error{Status: resp.StatusCode, Code: env.Code, Message: env.Error}
}
