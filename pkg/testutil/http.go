// Package testutil provides common test utilities for unit and integration tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// DoRequest executes a bodyless request against a handler and returns the recorder.
func DoRequest(handler http.Handler, method, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}

// UnmarshalResponse unmarshals the response body into the target struct.
func UnmarshalResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) *T {
	t.Helper()
	var result T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result), "failed to unmarshal response")
	return &result
}

// AssertStatus asserts the response status code matches expected.
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, "unexpected status code")
}

// AssertJSONContains asserts the response JSON contains the expected key-value pair.
func AssertJSONContains(t *testing.T, rr *httptest.ResponseRecorder, key string, expectedValue any) {
	t.Helper()
	var result map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result), "failed to unmarshal response")
	assert.Equal(t, expectedValue, result[key], "unexpected value for key %q", key)
}
