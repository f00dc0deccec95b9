package vantage6

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type MessageFor map[StatusCodeRange]string

// ServerError is a non-2xx answer from the Vantage6 server.
type ServerError struct {
	StatusCode int
	Summary    string
	Detail     string
}

func (e *ServerError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s (status code = %d)", e.Summary, e.StatusCode)
	}
	return fmt.Sprintf("%s (status code = %d)\n%s", e.Summary, e.StatusCode, e.Detail)
}

// unmarshal http response which has json content.
//
// args:
//   - resp: http response to be processed.
//   - v: value which response should be.
//   - messageFor: title of error message for HTTP status code range.
//
// return:
//
//	error if...
//	- can not read response body
//	- response body is not shaped of v
//	- status code is in 4xx or 5xx
func unmarshalJsonResponse[T any](resp *http.Response, v *T, messageFor MessageFor) error {
	scr := StatusCodeRangeOf(resp)
	if scr <= Status2xx {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("unexpected error: %w (status code = %d)", err, resp.StatusCode)
		}
		return nil
	}

	message, ok := messageFor[scr]
	if !ok {
		message = scr.String()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ServerError{
			StatusCode: resp.StatusCode,
			Summary:    message,
			Detail:     fmt.Sprintf("cannot read server message: %s", err.Error()),
		}
	}

	return &ServerError{
		StatusCode: resp.StatusCode,
		Summary:    message,
		Detail:     parseErrorMessage(body),
	}
}

func parseErrorMessage(body []byte) string {
	msg := struct {
		Msg *string `json:"msg"`
	}{}
	if err := json.Unmarshal(body, &msg); err == nil && msg.Msg != nil {
		return *msg.Msg
	}
	return string(body)
}
