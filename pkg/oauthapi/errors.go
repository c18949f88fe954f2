package oauthapi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from a Kinde API endpoint.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("oauthapi: HTTP %d: %s: %s", e.StatusCode, e.Code, e.Message)
	case e.Code != "":
		return fmt.Sprintf("oauthapi: HTTP %d: %s", e.StatusCode, e.Code)
	default:
		return fmt.Sprintf("oauthapi: HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
}

// errorBody covers both the OAuth2 error shape and the management API's
// {"errors":[{"code","message"}]} shape.
type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Errors           []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func parseErrorResponse(resp *http.Response, bodyBytes []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: bodyBytes}

	var body errorBody
	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		return apiErr
	}

	switch {
	case body.Error != "":
		apiErr.Code = body.Error
		apiErr.Message = body.ErrorDescription
	case len(body.Errors) > 0:
		apiErr.Code = body.Errors[0].Code
		apiErr.Message = body.Errors[0].Message
	}
	return apiErr
}
