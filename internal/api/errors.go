package api

import (
	"fmt"
	"strings"
)

// APIError is a structured error returned by the HTTP API.
type APIError struct {
	Status    int
	Code      string
	ErrorCode int
	Message   string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Code != "" && e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Status > 0 {
		return fmt.Sprintf("api error: %d", e.Status)
	}
	return "api error"
}

// HTTPStatus reports the response status that produced the error.
func (e *APIError) HTTPStatus() int {
	if e == nil {
		return 0
	}
	return e.Status
}

// GraphQLError is returned when a GraphQL reply carries an errors array.
type GraphQLError struct {
	Operation string
	Errors    []GraphQLErrorItem
}

func (e *GraphQLError) Error() string {
	if e == nil {
		return ""
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		msgs = append(msgs, item.Message)
	}
	if len(msgs) == 0 {
		msgs = append(msgs, "unknown error")
	}
	return fmt.Sprintf("graphql %s: %s", e.Operation, strings.Join(msgs, "; "))
}

// Code returns the first error's extensions.code, if any.
func (e *GraphQLError) Code() string {
	if e == nil {
		return ""
	}
	for _, item := range e.Errors {
		if code, ok := item.Extensions["code"].(string); ok {
			return code
		}
	}
	return ""
}
