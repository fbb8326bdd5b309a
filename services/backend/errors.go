package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type (
	// GraphQLError is the first error of a GraphQL response envelope.
	GraphQLError struct {
		Message    string        `json:"message"`
		Path       []interface{} `json:"path,omitempty"`
		Extensions struct {
			Code string `json:"code"`
		} `json:"extensions"`
		Count int `json:"-"` // errors in the envelope
	}

	// HTTPError is a non-2xx backend response.
	HTTPError struct {
		StatusCode int
		Message    string
	}
)

func (e *GraphQLError) Error() string {
	if e.Extensions.Code != "" {
		return fmt.Sprintf("graphql: %s (%s)", e.Message, e.Extensions.Code)
	}
	return "graphql: " + e.Message
}

func (e *GraphQLError) UserMessage() string { return e.Message }

func (e *GraphQLError) Code() string { return e.Extensions.Code }

func (e *HTTPError) Error() string {
	return fmt.Sprintf("backend responded %d: %s", e.StatusCode, e.Message)
}

func (e *HTTPError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.StatusCode)
}

// IsNotFound tells whether the backend reported a missing entity.
func IsNotFound(err error) bool {
	switch e := err.(type) {
	case *HTTPError:
		return e.StatusCode == http.StatusNotFound
	case *GraphQLError:
		return e.Extensions.Code == "NOT_FOUND"
	}
	return false
}

// newHTTPError extracts the most useful message out of an error body.
func newHTTPError(status int, body []byte) *HTTPError {
	var parsed struct {
		Message string         `json:"message"`
		Error   string         `json:"error"`
		Errors  []GraphQLError `json:"errors"`
	}
	msg := ""
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case len(parsed.Errors) > 0:
			msg = parsed.Errors[0].Message
		case parsed.Message != "":
			msg = parsed.Message
		case parsed.Error != "":
			msg = parsed.Error
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
		if len(msg) > 200 {
			msg = msg[:200]
		}
	}
	return &HTTPError{StatusCode: status, Message: msg}
}
