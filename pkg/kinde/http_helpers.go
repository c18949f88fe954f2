package kinde

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"slices"
)

// encodeMultipartForm writes fields as multipart/form-data, which the Kinde
// token endpoint accepts alongside urlencoded bodies. Fields are written in
// key order so requests are reproducible.
func encodeMultipartForm(fields url.Values) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		for _, v := range fields[k] {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", fmt.Errorf("failed to write form field %s: %w", k, err)
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close form: %w", err)
	}
	return body, w.FormDataContentType(), nil
}

// decodeTokenResponse decodes a token endpoint response. A body carrying an
// error field is an *OAuth2Error whatever the status code.
func decodeTokenResponse(resp *http.Response) (*TokenSet, error) {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(bodyBytes, &raw); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &OAuth2Error{
				StatusCode:  resp.StatusCode,
				Code:        ErrorCodeServerError,
				Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			}
		}
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if code, _ := raw["error"].(string); code != "" {
		desc, _ := raw["error_description"].(string)
		return nil, &OAuth2Error{
			StatusCode:  resp.StatusCode,
			Code:        code,
			Description: desc,
			Raw:         raw,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &OAuth2Error{
			StatusCode:  resp.StatusCode,
			Code:        ErrorCodeServerError,
			Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			Raw:         raw,
		}
	}

	var token TokenSet
	if err := json.Unmarshal(bodyBytes, &token); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &token, nil
}
