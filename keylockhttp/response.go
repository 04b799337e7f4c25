/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package keylockhttp

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/acronis/go-keylock/log"
)

// ContentTypeAppJSON represents MIME media type for JSON.
const ContentTypeAppJSON = "application/json"

// ErrorDomain is the domain of errors returned by the handler.
const ErrorDomain = "KeyLock"

// Error codes.
const (
	ErrCodeInvalidArgument  = "invalidArgument"
	ErrCodeNotFound         = "notFound"
	ErrCodeMethodNotAllowed = "methodNotAllowed"
	ErrCodeInternal         = "internalError"
)

// Error represents an error details.
type Error struct {
	Domain  string                 `json:"domain"`
	Code    string                 `json:"code"`
	Message string                 `json:"message,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// NewError creates a new Error with specified params.
func NewError(code, message string) *Error {
	return &Error{Domain: ErrorDomain, Code: code, Message: message}
}

// AddContext adds value to error context.
func (e *Error) AddContext(field string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[field] = value
	return e
}

// ErrorResponseData is a body of the error response.
type ErrorResponseData struct {
	Err *Error `json:"error"`
}

// jsonMarshal does JSON marshaling with disabled HTML escaping.
func jsonMarshal(v interface{}) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buffer.Bytes(), []byte("\n")), nil
}

func respondCodeAndJSON(rw http.ResponseWriter, statusCode int, respData interface{}, logger log.FieldLogger) {
	respJSON, err := jsonMarshal(respData)
	if err != nil {
		logger.Error("error while marshaling json for response body", log.Error(err))
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}
	rw.Header().Set("Content-Type", ContentTypeAppJSON)
	rw.WriteHeader(statusCode)
	if _, err = rw.Write(respJSON); err != nil {
		logger.Error("error while writing response body", log.Error(err))
	}
}

func respondError(rw http.ResponseWriter, statusCode int, apiErr *Error, logger log.FieldLogger) {
	logger.Warn("error in response",
		log.String("error_code", apiErr.Code), log.String("error_message", apiErr.Message))
	respondCodeAndJSON(rw, statusCode, ErrorResponseData{apiErr}, logger)
}
